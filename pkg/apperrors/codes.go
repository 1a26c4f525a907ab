package apperrors

// Error codes - organized by domain

// Authentication errors (AUTH_*)
const (
	ErrCodeAccessDenied        = "AUTH_ACCESS_DENIED"
	ErrCodeInvalidPassword     = "AUTH_INVALID_PASSWORD"
	ErrCodePasswordNotSet      = "AUTH_PASSWORD_NOT_SET"
	ErrCodeTokenInvalid        = "AUTH_TOKEN_INVALID"
	ErrCodeServerMisconfigured = "AUTH_SERVER_MISCONFIGURED"
)

// Authorization errors (AUTHZ_*)
const (
	ErrCodeForbidden = "AUTHZ_FORBIDDEN"
)

// Validation errors (VALIDATION_*)
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidInput     = "VALIDATION_INVALID_INPUT"
	ErrCodeMissingField     = "VALIDATION_MISSING_FIELD"
)

// Resource errors (RESOURCE_*)
const (
	ErrCodeMentorNotFound = "RESOURCE_MENTOR_NOT_FOUND"
	ErrCodePageNotFound   = "RESOURCE_PAGE_NOT_FOUND"
	ErrCodeBlockNotFound  = "RESOURCE_BLOCK_NOT_FOUND"
)

// Rate limiting errors (RATE_*)
const (
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Internal errors (INTERNAL_*)
const (
	ErrCodeDatabaseError   = "INTERNAL_DATABASE_ERROR"
	ErrCodeUnexpectedError = "INTERNAL_UNEXPECTED_ERROR"
)

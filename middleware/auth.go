package middleware

import (
	"database/sql"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coution-app/be-kb-platform/domain/mentor"
	"github.com/coution-app/be-kb-platform/pkg/apperrors"
	"github.com/coution-app/be-kb-platform/pkg/logger"
	"github.com/coution-app/be-kb-platform/utils"
)

// JWTMiddleware validates the bearer token and re-resolves the subject
// against the auth store. A missing header, wrong scheme, bad signature,
// expired token or deleted mentor all yield the same 401.
func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
				apperrors.ErrCodeTokenInvalid,
				"Missing or invalid token.",
			))
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		mentorID, _, err := utils.ValidateToken(tokenString)
		if err != nil {
			if err == utils.ErrNoSecret {
				return apperrors.RespondWithError(c, apperrors.NewInternal(
					apperrors.ErrCodeServerMisconfigured,
					"Server misconfigured.",
					err,
				))
			}
			return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
				apperrors.ErrCodeTokenInvalid,
				"Invalid or expired token.",
			))
		}

		// The subject must still exist; role is recomputed from the live
		// is_admin flag rather than trusted from the token.
		m, err := mentor.GetByID(mentorID)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
					apperrors.ErrCodeTokenInvalid,
					"Invalid or expired token.",
				))
			}
			logger.Get().WithComponent("middleware").Error("Failed to resolve mentor", err, logger.MentorID(mentorID))
			return apperrors.RespondWithError(c, apperrors.NewInternal(
				apperrors.ErrCodeDatabaseError,
				"Internal server error.",
				err,
			))
		}

		c.Set("mentor_id", m.ID)
		c.Set("role", m.Role())
		c.Set("is_admin", m.IsAdmin)
		c.Set("mentor", m)

		return next(c)
	}
}

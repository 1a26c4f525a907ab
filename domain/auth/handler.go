package auth

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/coution-app/be-kb-platform/domain/mentor"
	"github.com/coution-app/be-kb-platform/pkg/apperrors"
	"github.com/coution-app/be-kb-platform/pkg/logger"
	"github.com/coution-app/be-kb-platform/utils"
)

// LoginHandler authenticates a mentor by Telegram handle and password and
// issues a bearer token. Each step is a hard stop; an unknown handle and a
// wrong password both surface as a generic 401 so account existence does
// not leak.
func LoginHandler(c echo.Context) error {
	log := logger.Get().WithComponent("auth")
	requestID := logger.GetRequestIDFromContext(c)
	log = log.WithRequestID(requestID)

	if viper.GetString("JWT_SECRET") == "" {
		log.Error("JWT_SECRET not configured", nil)
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeServerMisconfigured,
			"Server misconfigured.",
			utils.ErrNoSecret,
		))
	}

	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		log.Warn("Invalid login request payload", logger.Err(err))
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeValidationFailed,
			"Invalid request payload.",
		))
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return apperrors.RespondWithError(c, apperrors.NewBadRequest(
			apperrors.ErrCodeMissingField,
			"Username required.",
		))
	}

	// Login accepts bare handle or @handle uniformly.
	telegram := username
	if !strings.HasPrefix(telegram, "@") {
		telegram = "@" + telegram
	}

	m, err := mentor.GetByTelegram(telegram)
	if err != nil {
		if err == sql.ErrNoRows {
			// Deliberately generic, not "user not found".
			log.Warn("Login with unknown handle", logger.Username(telegram))
			return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
				apperrors.ErrCodeAccessDenied,
				"Access denied.",
			))
		}
		log.Error("Failed to fetch mentor", err, logger.Username(telegram))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	hash := strings.TrimSpace(m.PasswordHash.String)
	if hash == "" {
		return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
			apperrors.ErrCodePasswordNotSet,
			"Password not set. Ask an admin to run the setpassword tool for "+telegram+".",
		))
	}

	if !utils.IsBcryptHash(hash) {
		log.Error("Stored password hash is not bcrypt-shaped", nil, logger.MentorID(m.ID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeServerMisconfigured,
			"Server misconfigured.",
			nil,
		))
	}

	if !utils.CheckPasswordHash(req.Password, hash) {
		log.Warn("Invalid password", logger.MentorID(m.ID))
		return apperrors.RespondWithError(c, apperrors.NewUnauthorized(
			apperrors.ErrCodeInvalidPassword,
			"Invalid password.",
		))
	}

	role := m.Role()
	token, err := utils.GenerateToken(m.ID, role)
	if err != nil {
		log.Error("Failed to generate token", err, logger.MentorID(m.ID))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeServerMisconfigured,
			"Server misconfigured.",
			err,
		))
	}

	log.Info("Mentor logged in", logger.MentorID(m.ID), logger.Role(role))

	return c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User: UserResponse{
			ID:       m.ID,
			FullName: m.FullName,
			Username: m.Telegram,
			Role:     role,
		},
	})
}

// MeHandler returns the authenticated mentor, resolved live by the JWT
// middleware.
func MeHandler(c echo.Context) error {
	m := c.Get("mentor").(*mentor.Mentor)

	return c.JSON(http.StatusOK, UserResponse{
		ID:       m.ID,
		FullName: m.FullName,
		Username: m.Telegram,
		Role:     m.Role(),
	})
}

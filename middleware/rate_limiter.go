package middleware

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/coution-app/be-kb-platform/pkg/apperrors"
	"github.com/coution-app/be-kb-platform/pkg/logger"
)

// RateLimiterConfig holds the configuration for rate limiting
type RateLimiterConfig struct {
	MaxRequests   int           // Maximum number of requests allowed
	Window        time.Duration // Time window for rate limiting
	BlockDuration time.Duration // Duration to block the IP after exceeding limits
	DB            *sqlx.DB      // Store holding the ip_rate_limits table
}

// RateLimiterMiddleware limits requests per IP using a database table.
// Applied to the login route only; everything else is bearer-gated anyway.
func RateLimiterMiddleware(config RateLimiterConfig) echo.MiddlewareFunc {
	log := logger.Get().WithComponent("rate_limiter")

	internalErr := func(c echo.Context, msg string, err error) error {
		log.Error(msg, err, logger.RemoteIP(c.RealIP()))
		return apperrors.RespondWithError(c, apperrors.NewInternal(
			apperrors.ErrCodeDatabaseError,
			"Internal server error.",
			err,
		))
	}

	limited := func(c echo.Context) error {
		return apperrors.RespondWithError(c, apperrors.NewTooManyRequests(
			apperrors.ErrCodeRateLimitExceeded,
			"Too many requests from this IP, please try again later.",
		))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			now := time.Now()

			tx, err := config.DB.Begin()
			if err != nil {
				return internalErr(c, "Failed to begin transaction", err)
			}
			defer tx.Rollback()

			var blockedUntil sql.NullTime
			err = tx.QueryRow("SELECT blocked_until FROM ip_rate_limits WHERE ip_address = $1", ip).Scan(&blockedUntil)
			if err != nil && err != sql.ErrNoRows {
				return internalErr(c, "Failed to fetch blocked_until", err)
			}

			if blockedUntil.Valid && blockedUntil.Time.After(now) {
				tx.Commit()
				return limited(c)
			}

			var requestCount int
			var firstRequestTime time.Time
			err = tx.QueryRow("SELECT request_count, first_request_time FROM ip_rate_limits WHERE ip_address = $1", ip).Scan(&requestCount, &firstRequestTime)
			if err != nil && err != sql.ErrNoRows {
				return internalErr(c, "Failed to fetch rate limit data", err)
			}

			if err == sql.ErrNoRows {
				// First request from this IP
				_, err = tx.Exec(`
					INSERT INTO ip_rate_limits (ip_address, request_count, first_request_time, last_request_time)
					VALUES ($1, 1, $2, $3)
				`, ip, now, now)
				if err != nil {
					return internalErr(c, "Failed to insert rate limit data", err)
				}
			} else if now.Sub(firstRequestTime) > config.Window {
				// Window expired, reset
				_, err = tx.Exec(`
					UPDATE ip_rate_limits
					SET request_count = 1, first_request_time = $1, last_request_time = $2, blocked_until = NULL
					WHERE ip_address = $3
				`, now, now, ip)
				if err != nil {
					return internalErr(c, "Failed to reset rate limit data", err)
				}
			} else if requestCount >= config.MaxRequests {
				blockedUntilTime := now.Add(config.BlockDuration)
				_, err = tx.Exec(`
					UPDATE ip_rate_limits
					SET blocked_until = $1
					WHERE ip_address = $2
				`, blockedUntilTime, ip)
				if err != nil {
					return internalErr(c, "Failed to block IP", err)
				}
				if err := tx.Commit(); err != nil {
					return internalErr(c, "Failed to commit transaction", err)
				}
				log.Warn("IP blocked for excessive login attempts", logger.RemoteIP(ip))
				return limited(c)
			} else {
				_, err = tx.Exec(`
					UPDATE ip_rate_limits
					SET request_count = request_count + 1, last_request_time = $1
					WHERE ip_address = $2
				`, now, ip)
				if err != nil {
					return internalErr(c, "Failed to update rate limit data", err)
				}
			}

			if err := tx.Commit(); err != nil {
				return internalErr(c, "Failed to commit transaction", err)
			}

			return next(c)
		}
	}
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/coution-app/be-kb-platform/pkg/apperrors"
)

// AdminMiddleware gates publish/unpublish style operations. It composes with
// JWTMiddleware, which already recomputed is_admin from the live mentor row.
func AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		isAdmin, ok := c.Get("is_admin").(bool)
		if !ok || !isAdmin {
			return apperrors.RespondWithError(c, apperrors.NewForbidden(
				apperrors.ErrCodeForbidden,
				"Admin only.",
			))
		}
		return next(c)
	}
}

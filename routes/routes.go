package routes

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coution-app/be-kb-platform/config"
	"github.com/coution-app/be-kb-platform/domain/auth"
	"github.com/coution-app/be-kb-platform/domain/block"
	"github.com/coution-app/be-kb-platform/domain/health"
	"github.com/coution-app/be-kb-platform/domain/page"
	"github.com/coution-app/be-kb-platform/domain/presence"
	"github.com/coution-app/be-kb-platform/middleware"
)

func RegisterRoutes(e *echo.Echo) {
	// Auth routes
	loginLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		MaxRequests:   10,
		Window:        1 * time.Minute,
		BlockDuration: 15 * time.Minute,
		DB:            config.KBDB,
	})
	e.POST("/auth/login", auth.LoginHandler, loginLimiter)
	e.GET("/auth/me", auth.MeHandler, middleware.JWTMiddleware)

	// KB routes
	kbGroup := e.Group("/kb", middleware.JWTMiddleware)
	kbGroup.GET("/pages", page.ListPagesHandler)
	kbGroup.POST("/pages", page.CreatePageHandler)
	kbGroup.GET("/pages/:id", page.GetPageHandler)
	kbGroup.PATCH("/pages/:id", page.UpdatePageHandler)
	kbGroup.DELETE("/pages/:id", page.DeletePageHandler)
	kbGroup.POST("/pages/:id/publish", page.PublishPageHandler, middleware.AdminMiddleware)
	kbGroup.POST("/pages/:id/refresh-slug", page.RefreshSlugHandler, middleware.AdminMiddleware)
	kbGroup.POST("/pages/:id/unpublish", page.UnpublishPageHandler, middleware.AdminMiddleware)
	kbGroup.POST("/pages/:id/blocks", block.CreateBlockHandler)
	kbGroup.PATCH("/blocks/:id", block.UpdateBlockHandler)
	kbGroup.DELETE("/blocks/:id", block.DeleteBlockHandler)

	// Public access, no auth
	e.GET("/kb/public/:slug", page.PublicPageHandler)

	// Presence
	e.POST("/presence/heartbeat", presence.HeartbeatHandler, middleware.JWTMiddleware)

	// Health probes
	e.GET("/health/live", health.LivenessHandler)
	e.GET("/health/ready", health.ReadinessHandler)
	e.GET("/health/stats", health.StatsHandler)
}

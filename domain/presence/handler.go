package presence

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coution-app/be-kb-platform/config"
)

// HeartbeatHandler updates the last active timestamp for the authenticated
// mentor in Redis.
// POST /presence/heartbeat
func HeartbeatHandler(c echo.Context) error {
	mentorID := c.Get("mentor_id").(int64)

	// A Redis write failure must never break the client.
	_ = config.SetLastActive(mentorID)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

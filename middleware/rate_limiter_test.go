package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "modernc.org/sqlite"
)

const rateLimitSchema = `
CREATE TABLE ip_rate_limits (
	ip_address TEXT PRIMARY KEY,
	request_count INTEGER NOT NULL DEFAULT 0,
	first_request_time TIMESTAMP NOT NULL,
	last_request_time TIMESTAMP NOT NULL,
	blocked_until TIMESTAMP
);`

func setupRateLimitDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.MustExec(rateLimitSchema)
	t.Cleanup(func() { db.Close() })
	return db
}

func hitLogin(t *testing.T, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:54321"
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("rate limiter: %v", err)
	}
	return rec
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	db := setupRateLimitDB(t)

	handler := RateLimiterMiddleware(RateLimiterConfig{
		MaxRequests:   3,
		Window:        time.Minute,
		BlockDuration: 15 * time.Minute,
		DB:            db,
	})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		if rec := hitLogin(t, handler); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, rec.Code)
		}
	}

	if rec := hitLogin(t, handler); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over-limit request: got %d", rec.Code)
	}

	// The IP stays blocked even though the counter would otherwise allow it.
	if rec := hitLogin(t, handler); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("blocked request: got %d", rec.Code)
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	db := setupRateLimitDB(t)

	handler := RateLimiterMiddleware(RateLimiterConfig{
		MaxRequests:   2,
		Window:        time.Minute,
		BlockDuration: 15 * time.Minute,
		DB:            db,
	})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	hitLogin(t, handler)
	hitLogin(t, handler)

	// Age the window out instead of sleeping through it.
	db.MustExec("UPDATE ip_rate_limits SET first_request_time = $1", time.Now().Add(-2*time.Minute))

	if rec := hitLogin(t, handler); rec.Code != http.StatusOK {
		t.Fatalf("post-window request: got %d", rec.Code)
	}

	var count int
	if err := db.Get(&count, "SELECT request_count FROM ip_rate_limits"); err != nil {
		t.Fatalf("fetch count: %v", err)
	}
	if count != 1 {
		t.Fatalf("window reset left request_count=%d", count)
	}
}

package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/task_manager/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHTTP struct {
	DB    Pinger
	Cache Pinger
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Ready reports 503 until both the database and the cache answer.
func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	l := logging.FromContext(ctx).With("handler", "health.ready")

	checks := map[string]string{"db": "ok", "cache": "ok"}
	code := http.StatusOK
	if err := h.DB.Ping(ctx); err != nil {
		l.Error("readiness_failed", "component", "db", "error", err)
		checks["db"] = "down"
		code = http.StatusServiceUnavailable
	}
	if h.Cache != nil {
		if err := h.Cache.Ping(ctx); err != nil {
			l.Error("readiness_failed", "component", "cache", "error", err)
			checks["cache"] = "down"
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, checks)
}

func (h *HealthHTTP) PingApp(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Ping app ok."})
}

func (h *HealthHTTP) PingDB(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "ping.db")
	if err := h.DB.Ping(c.Request().Context()); err != nil {
		l.Error("ping_db_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Ping DB failed.")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Ping DB ok."})
}

package handlers

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthCheck handles GET /health
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessCheck handles GET /health/ready: ok only when the database
// answers a ping.
func ReadinessCheck(c echo.Context, pool *pgxpool.Pool) error {
	if err := pool.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "database unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

// handlers_health.go - Health check handlers
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version   string
	buildTime string
	started   time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, buildTime string) HealthHandler {
	return &HealthHandlerImpl{
		version:   version,
		buildTime: buildTime,
		started:   time.Now(),
	}
}

// HandleHealth returns server health status and build identification
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"buildTime": h.buildTime,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// handlers_health.go - Health check handlers
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	started time.Time
	jobs    ActiveJobCounter
}

// ActiveJobCounter reports background jobs that have not finished.
type ActiveJobCounter interface {
	ActiveJobs() int
}

// NewHealthHandler creates a new health handler. jobs may be nil.
func NewHealthHandler(version string, jobs ActiveJobCounter) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		started: time.Now(),
		jobs:    jobs,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	}
	if h.jobs != nil {
		resp["activeJobs"] = h.jobs.ActiveJobs()
	}
	return c.JSON(http.StatusOK, resp)
}

// handlers_jobs.go - Background job status handlers
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// JobHandlerImpl implements the JobHandler interface
type JobHandlerImpl struct {
	jobs         JobSource
	upgrader     websocket.Upgrader
	pollInterval time.Duration
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobSource) *JobHandlerImpl {
	return &JobHandlerImpl{
		jobs: jobs,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pollInterval: 200 * time.Millisecond,
	}
}

// HandleGetJob returns the current job snapshot
func (h *JobHandlerImpl) HandleGetJob(c echo.Context) error {
	id := c.Param("id")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job", id)
	}
	return c.JSON(http.StatusOK, job)
}

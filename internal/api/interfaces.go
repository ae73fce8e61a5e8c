// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/settlement-form/backend/internal/models"
	"github.com/settlement-form/backend/internal/upload"
)

// SettlementHandler handles settlement submission and read-back
type SettlementHandler interface {
	HandleCreateSettlement(c echo.Context) error
	HandleGetSettlement(c echo.Context) error
}

// JobHandler exposes background job state
type JobHandler interface {
	HandleGetJob(c echo.Context) error
	HandleWatchJob(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// Submitter is the orchestration the settlement handler drives.
// This allows mocking in tests
type Submitter interface {
	Submit(ctx context.Context, form models.Form, attachments []models.Attachment) (*models.Settlement, *upload.Job, error)
	Get(ctx context.Context, id string) (*models.Settlement, error)
}

// JobSource looks up background jobs
type JobSource interface {
	GetJob(id string) (*upload.Job, bool)
}

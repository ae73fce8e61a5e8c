// routes.go - Route registration helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Settlements Submitter
	Jobs        interface {
		JobSource
		ActiveJobCounter
	}
	Gatherer prometheus.Gatherer
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health     HealthHandler
	Settlement SettlementHandler
	Job        JobHandler
	Metrics    echo.HandlerFunc
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	h := &Handlers{
		Health:     NewHealthHandler(deps.Version, deps.Jobs),
		Settlement: NewSettlementHandler(deps.Settlements),
		Job:        NewJobHandler(deps.Jobs),
	}
	if deps.Gatherer != nil {
		h.Metrics = echo.WrapHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return h
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)

	apiGroup.POST("/settlements", handlers.Settlement.HandleCreateSettlement)
	apiGroup.GET("/settlements/:id", handlers.Settlement.HandleGetSettlement)

	apiGroup.GET("/jobs/:id", handlers.Job.HandleGetJob)
	apiGroup.GET("/ws/jobs/:id", handlers.Job.HandleWatchJob)

	// Legacy path still posted to by the deployed form.
	e.POST("/settelment", handlers.Settlement.HandleCreateSettlement)

	if handlers.Metrics != nil {
		e.GET("/metrics", handlers.Metrics)
	}
}

// MiddlewareConfig carries the server settings middleware depends on
type MiddlewareConfig struct {
	RequestLogging bool
	EnableCORS     bool
	AllowOrigins   string
	BodyLimit      string
	Logger         *slog.Logger
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	e.HTTPErrorHandler = ErrorHandler

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.RequestLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return path == "/api/health" || path == "/metrics"
			},
			LogStatus:   true,
			LogURI:      true,
			LogMethod:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				level := slog.LevelInfo
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				attrs := []slog.Attr{
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
				}
				if v.Error != nil {
					attrs = append(attrs, slog.String("error", v.Error.Error()))
				}
				logger.LogAttrs(context.Background(), level, "request", attrs...)
				return nil
			},
		}))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := strings.Split(cfg.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			ExposeHeaders: []string{headerJobID},
		}))
	}
}

// Package handlers implements the HTTP endpoints of the forecaster.
// Handlers parse input and delegate to the services; errors are returned
// unchanged and rendered by middleware.ErrorHandler.
package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/services"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker func(ctx context.Context) error

// Handler contains all HTTP handlers
type Handler struct {
	logger    *logging.Logger
	forecasts *services.ForecastService
	series    *services.SeriesService
	subjects  *services.SubjectService
	jobs      *services.JobService // nil when the queue is disabled
	checks    map[string]HealthChecker
	version   string
}

// Options groups the collaborators of a Handler
type Options struct {
	Forecasts *services.ForecastService
	Series    *services.SeriesService
	Subjects  *services.SubjectService
	Jobs      *services.JobService
	Checks    map[string]HealthChecker
	Version   string
}

// New creates a new handler instance
func New(logger *logging.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logging.Global()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		logger:    logger,
		forecasts: opts.Forecasts,
		series:    opts.Series,
		subjects:  opts.Subjects,
		jobs:      opts.Jobs,
		checks:    opts.Checks,
		version:   version,
	}
}

// bodyParser decodes the JSON body into out, reporting malformed input as INVALID_REQUEST
func bodyParser(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return services.NewServiceError(services.CodeInvalidRequest, "invalid request body: "+err.Error())
	}
	return nil
}

// queryInt reads an optional non-negative integer query parameter
func queryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, services.NewServiceError(services.CodeInvalidRequest,
			name+" must be a non-negative integer")
	}
	return v, nil
}

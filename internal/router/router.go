package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giftpool/forecaster/internal/config"
	"github.com/giftpool/forecaster/internal/handlers"
	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/middleware"
)

const defaultMetricsPath = "/metrics"

// Setup configures all routes and middlewares. gatherer backs the metrics
// endpoint and may be nil when metrics are disabled.
func Setup(app *fiber.App, logger *logging.Logger, h *handlers.Handler, gatherer prometheus.Gatherer, cfg config.Config) {
	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check and metrics (no auth required)
	app.Get("/health", h.Health)
	if cfg.Metrics.Enabled && gatherer != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = defaultMetricsPath
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API key authentication middleware
	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", authMiddleware)

	// Inline forecasts
	v1.Post("/forecast", h.Forecast)
	v1.Post("/forecast/best-method", h.BestMethodInline)

	// Subject management
	v1.Post("/subjects", h.CreateSubject)
	v1.Get("/subjects", h.ListSubjects)
	v1.Get("/subjects/:subject", h.GetSubject)
	v1.Delete("/subjects/:subject", h.DeleteSubject)
	v1.Get("/subjects/:subject/metrics", h.ListSeries)

	metric := v1.Group("/subjects/:subject/metrics/:metric")

	// Series storage
	metric.Put("/series", h.PutSeries)
	metric.Get("/series", h.GetSeries)
	metric.Delete("/series", h.DeleteSeries)
	metric.Post("/series/points", h.AppendPoints)

	// Stored-series forecasts
	metric.Get("/forecast", h.SubjectForecast)
	metric.Post("/forecast", h.SubjectForecast)
	metric.Get("/forecast/latest", h.LatestForecast)
	metric.Get("/best-method", h.BestMethod)
	metric.Get("/evaluate", h.Evaluate)

	// Method preferences
	metric.Put("/preference", h.SetPreference)
	metric.Delete("/preference", h.ClearPreference)

	// Batch jobs
	v1.Post("/jobs", h.SubmitJob)

	// 404 handler
	app.Use(h.NotFound)
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, h *handlers.Handler, gatherer prometheus.Gatherer, cfg config.Config) *fiber.App {
	fiberCfg := fiber.Config{
		AppName:               "forecaster",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	}
	if cfg.Server.BodyLimit > 0 {
		fiberCfg.BodyLimit = cfg.Server.BodyLimit
	}
	app := fiber.New(fiberCfg)

	Setup(app, logger, h, gatherer, cfg)

	return app
}

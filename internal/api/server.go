// Package api wires the HTTP surface: the review workflow, the ingest
// endpoint and the lifecycle ops endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/health"
	"github.com/brandpulse/brandpulse/internal/ingest"
	"github.com/brandpulse/brandpulse/internal/mention"
	"github.com/brandpulse/brandpulse/internal/retention"
	"github.com/brandpulse/brandpulse/internal/review"
	"github.com/brandpulse/brandpulse/internal/scheduler"
)

// Server handles HTTP requests for the BrandPulse API.
type Server struct {
	echo   *echo.Echo
	logger zerolog.Logger
	cfg    *config.Config

	store     *mention.Store
	ingestSvc *ingest.Service
	retention *retention.Service
	sched     *scheduler.Scheduler
	health    *health.Service
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg *config.Config, store *mention.Store, ingestSvc *ingest.Service,
	retentionSvc *retention.Service, reviewSvc *review.Service, sched *scheduler.Scheduler,
	healthSvc *health.Service, logger zerolog.Logger) *Server {

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		logger:    logger.With().Str("component", "api").Logger(),
		cfg:       cfg,
		store:     store,
		ingestSvc: ingestSvc,
		retention: retentionSvc,
		sched:     sched,
		health:    healthSvc,
	}

	s.setupMiddleware()

	v1 := e.Group("/api/v1")
	review.NewHandlers(reviewSvc).RegisterRoutes(v1)
	v1.POST("/mentions", s.Ingest)
	v1.POST("/retention/run", s.RunRetention)
	v1.GET("/tasks", s.ListTasks)
	v1.GET("/system/summary", s.SystemSummary)
	v1.GET("/health", s.Health)

	return s
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))
}

// Echo exposes the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Ingest accepts one crawled post, classifies it and stores it.
// POST /api/v1/mentions
func (s *Server) Ingest(c echo.Context) error {
	var post ingest.Post
	if err := c.Bind(&post); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rec, err := s.ingestSvc.Ingest(c.Request().Context(), post)
	if err != nil {
		if errors.Is(err, mention.ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store mention")
	}
	return c.JSON(http.StatusCreated, rec)
}

type retentionResponse struct {
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

// RunRetention runs one retention cycle on demand.
// POST /api/v1/retention/run
func (s *Server) RunRetention(c echo.Context) error {
	deleted, err := s.retention.RunCycle(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("manual retention cycle failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "retention cycle failed")
	}

	msg := "no records past the retention window"
	if deleted > 0 {
		msg = "retention cycle completed"
	}
	return c.JSON(http.StatusOK, retentionResponse{Deleted: deleted, Message: msg})
}

// ListTasks returns the registered scheduler tasks.
// GET /api/v1/tasks
func (s *Server) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sched.ListTasks())
}

type systemSummary struct {
	Total     int64      `json:"total"`
	Earliest  *time.Time `json:"earliest,omitempty"`
	Latest    *time.Time `json:"latest,omitempty"`
	SizeBytes int64      `json:"sizeBytes"`
}

// Health reports per-component health. Degraded components return 200 with
// their status in the body; only a hard database failure changes the code.
// GET /api/v1/health
func (s *Server) Health(c echo.Context) error {
	report := s.health.Report(c.Request().Context())
	code := http.StatusOK
	if report.Status == health.StatusError {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, report)
}

// SystemSummary reports the overall shape of the store.
// GET /api/v1/system/summary
func (s *Server) SystemSummary(c echo.Context) error {
	summary, err := s.store.GetSummary(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read store summary")
	}
	return c.JSON(http.StatusOK, systemSummary{
		Total:     summary.Total,
		Earliest:  summary.Earliest,
		Latest:    summary.Latest,
		SizeBytes: summary.SizeBytes,
	})
}

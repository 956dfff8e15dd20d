package review

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/brandpulse/brandpulse/internal/crawler"
	"github.com/brandpulse/brandpulse/internal/mention"
)

// Handlers provides the HTTP surface for the review workflow.
type Handlers struct {
	service *Service
}

// NewHandlers creates review handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the review routes on an Echo group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/mentions", h.List)
	g.GET("/mentions/stats", h.Stats)
	g.POST("/mentions/:id/processed", h.MarkProcessed)
	g.PUT("/mentions/:id/notes", h.SetNotes)
	g.POST("/crawl/trigger", h.TriggerCrawl)
	g.GET("/crawl/status", h.CrawlStatus)
}

// List returns one page of mentions.
// GET /api/v1/mentions
func (h *Handlers) List(c echo.Context) error {
	opts := ListOptions{
		Platform: c.QueryParam("platform"),
		Category: c.QueryParam("category"),
		Range:    c.QueryParam("range"),
		Status:   c.QueryParam("status"),
		Page:     intParam(c, "page", 1),
		PageSize: intParam(c, "pageSize", 10),
	}

	result, err := h.service.List(c.Request().Context(), opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// Stats returns the dashboard aggregates.
// GET /api/v1/mentions/stats
func (h *Handlers) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context(), c.QueryParam("range"), c.QueryParam("status"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

// MarkProcessed transitions a mention to processed.
// POST /api/v1/mentions/:id/processed
func (h *Handlers) MarkProcessed(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid mention id")
	}

	if err := h.service.MarkProcessed(c.Request().Context(), id); err != nil {
		if errors.Is(err, mention.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "mention not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update mention")
	}
	return c.NoContent(http.StatusNoContent)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// SetNotes stores reviewer notes on a mention.
// PUT /api/v1/mentions/:id/notes
func (h *Handlers) SetNotes(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid mention id")
	}

	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SetNotes(c.Request().Context(), id, req.Notes); err != nil {
		if errors.Is(err, mention.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "mention not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update mention")
	}
	return c.NoContent(http.StatusNoContent)
}

// TriggerCrawl starts a crawl batch in the background.
// POST /api/v1/crawl/trigger
func (h *Handlers) TriggerCrawl(c echo.Context) error {
	message, err := h.service.TriggerCrawl()
	if err != nil {
		if errors.Is(err, crawler.ErrBatchRunning) {
			return echo.NewHTTPError(http.StatusConflict, "a crawl batch is already running")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]string{"message": message})
}

type crawlStatusResponse struct {
	Running    bool                 `json:"running"`
	LastResult *crawler.BatchResult `json:"lastResult,omitempty"`
}

// CrawlStatus reports the state of the most recent manual batch.
// GET /api/v1/crawl/status
func (h *Handlers) CrawlStatus(c echo.Context) error {
	running, last := h.service.CrawlStatus()
	return c.JSON(http.StatusOK, crawlStatusResponse{Running: running, LastResult: last})
}

func intParam(c echo.Context, name string, fallback int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// Package review is the thin boundary the human reviewer works through:
// filtered listing, dashboard stats and the single unprocessed -> processed
// transition.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandpulse/brandpulse/internal/crawler"
	"github.com/brandpulse/brandpulse/internal/mention"
)

// ListOptions are the reviewer-facing filter and pagination parameters.
type ListOptions struct {
	Platform string
	Category string
	Range    string
	Status   string
	Page     int
	PageSize int
}

// ListResponse is one page of mentions plus pagination metadata.
type ListResponse struct {
	Items      []mention.Record `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalCount int64            `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
}

// Service provides the review workflow on top of the mention store.
type Service struct {
	store *mention.Store
	orch  *crawler.Orchestrator
	cfg   CrawlTrigger
	log   zerolog.Logger
}

// CrawlTrigger carries what the manual trigger needs to start a batch.
type CrawlTrigger struct {
	Platforms []mention.Platform
}

// NewService creates a review service. The orchestrator may be nil when no
// crawl provider is configured; the manual trigger then reports that.
func NewService(store *mention.Store, orch *crawler.Orchestrator, cfg CrawlTrigger, logger zerolog.Logger) *Service {
	return &Service{
		store: store,
		orch:  orch,
		cfg:   cfg,
		log:   logger.With().Str("component", "review").Logger(),
	}
}

func (s *Service) buildFilter(opts ListOptions) (mention.Filter, error) {
	f := mention.Filter{
		Platform: mention.Platform(opts.Platform),
		Category: mention.Category(opts.Category),
		Status:   mention.Status(opts.Status),
		Range:    mention.DateRange(opts.Range),
	}
	if f.Platform != "" && !f.Platform.Valid() {
		return mention.Filter{}, fmt.Errorf("unknown platform %q", opts.Platform)
	}
	if f.Category != "" && !f.Category.Valid() {
		return mention.Filter{}, fmt.Errorf("unknown category %q", opts.Category)
	}
	if f.Status != "" && !f.Status.Valid() {
		return mention.Filter{}, fmt.Errorf("unknown status %q", opts.Status)
	}
	if !f.Range.Valid() {
		return mention.Filter{}, fmt.Errorf("unknown date range %q", opts.Range)
	}
	return f, nil
}

// List returns one page of mentions for the review list.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 10
	}

	f, err := s.buildFilter(opts)
	if err != nil {
		return nil, err
	}

	items, total, err := s.store.List(ctx, f, opts.Page, opts.PageSize)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / opts.PageSize
	if int(total)%opts.PageSize > 0 {
		totalPages++
	}

	return &ListResponse{
		Items:      items,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// Stats returns the four dashboard aggregates for the given view.
func (s *Service) Stats(ctx context.Context, dateRange, status string) (mention.Stats, error) {
	r := mention.DateRange(dateRange)
	if !r.Valid() {
		return mention.Stats{}, fmt.Errorf("unknown date range %q", dateRange)
	}
	st := mention.Status(status)
	if st != "" && !st.Valid() {
		return mention.Stats{}, fmt.Errorf("unknown status %q", status)
	}
	return s.store.Stats(ctx, r, st)
}

// MarkProcessed performs the single allowed state transition.
func (s *Service) MarkProcessed(ctx context.Context, id int64) error {
	if err := s.store.MarkProcessed(ctx, id, time.Now()); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Msg("mention marked processed")
	return nil
}

// SetNotes stores reviewer notes on a mention.
func (s *Service) SetNotes(ctx context.Context, id int64, notes string) error {
	return s.store.SetNotes(ctx, id, notes)
}

// TriggerCrawl starts a full crawl batch in the background and returns an
// immediate acknowledgment; the reviewer is never blocked on the batch.
func (s *Service) TriggerCrawl() (string, error) {
	if s.orch == nil {
		return "", fmt.Errorf("no crawl provider configured")
	}

	if _, err := s.orch.TriggerAsync(s.cfg.Platforms); err != nil {
		return "", err
	}

	s.log.Info().Int("platforms", len(s.cfg.Platforms)).Msg("manual crawl batch triggered")
	return "crawl batch started, new data will appear within minutes", nil
}

// CrawlStatus reports whether a manual batch is running and the last result.
func (s *Service) CrawlStatus() (bool, *crawler.BatchResult) {
	if s.orch == nil {
		return false, nil
	}
	return s.orch.ManualStatus()
}

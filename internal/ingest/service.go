// Package ingest is the write path that lands crawled posts in the store.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandpulse/brandpulse/internal/classifier"
	"github.com/brandpulse/brandpulse/internal/mention"
)

// Post is a raw crawled post before classification.
type Post struct {
	Platform    mention.Platform `json:"platform"`
	Keyword     string           `json:"keyword"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	URL         string           `json:"url,omitempty"`
	Author      string           `json:"author,omitempty"`
	PublishTime *time.Time       `json:"publishTime,omitempty"`
	HotScore    int64            `json:"hotScore"`
}

// Service classifies incoming posts and inserts them as mention records.
type Service struct {
	store      *mention.Store
	classifier classifier.Classifier
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a new ingest service. The classifier may be nil; posts
// then receive the documented fallback labels.
func NewService(store *mention.Store, c classifier.Classifier, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		classifier: c,
		logger:     logger.With().Str("component", "ingest").Logger(),
		now:        time.Now,
	}
}

// Ingest labels the post and persists it. Classifier faults never block
// ingestion; store faults are returned to the caller.
func (s *Service) Ingest(ctx context.Context, post Post) (*mention.Record, error) {
	labels := classifier.ClassifyOrFallback(ctx, s.classifier, post.Title, post.Content, s.logger)

	rec := &mention.Record{
		Platform:       post.Platform,
		Keyword:        post.Keyword,
		Title:          post.Title,
		Content:        post.Content,
		URL:            post.URL,
		Author:         post.Author,
		PublishTime:    post.PublishTime,
		CrawlTime:      s.now(),
		HotScore:       post.HotScore,
		Sentiment:      labels.Sentiment,
		SentimentScore: labels.Score,
		Category:       labels.Category,
		Status:         mention.StatusUnprocessed,
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int64("id", rec.ID).
		Str("platform", string(rec.Platform)).
		Str("sentiment", string(rec.Sentiment)).
		Str("category", string(rec.Category)).
		Msg("ingested mention")

	return rec, nil
}

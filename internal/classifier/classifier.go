// Package classifier labels mention text with sentiment and category.
package classifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/brandpulse/brandpulse/internal/mention"
)

// Result is the classifier output for one mention.
type Result struct {
	Sentiment mention.Sentiment `json:"sentiment"`
	Score     float64           `json:"sentiment_score"`
	Category  mention.Category  `json:"category"`
}

// Classifier assigns sentiment and category labels to mention text.
type Classifier interface {
	Classify(ctx context.Context, title, content string) (Result, error)
}

// Fallback is the documented default used whenever classification fails.
// Ingestion must never block on classifier availability.
func Fallback() Result {
	return Result{
		Sentiment: mention.SentimentNeutral,
		Score:     0,
		Category:  mention.CategoryOther,
	}
}

// ClassifyOrFallback runs the classifier and substitutes the fallback on any
// failure or out-of-domain output, logging what happened.
func ClassifyOrFallback(ctx context.Context, c Classifier, title, content string, logger zerolog.Logger) Result {
	if c == nil {
		return Fallback()
	}

	res, err := c.Classify(ctx, title, content)
	if err != nil {
		logger.Warn().Err(err).Msg("classifier failed, using fallback labels")
		return Fallback()
	}
	if !res.Sentiment.Valid() || !res.Category.Valid() || res.Score < -1.0 || res.Score > 1.0 {
		logger.Warn().
			Str("sentiment", string(res.Sentiment)).
			Str("category", string(res.Category)).
			Float64("score", res.Score).
			Msg("classifier returned out-of-domain labels, using fallback")
		return Fallback()
	}
	return res
}

package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/mention"
)

const systemPrompt = "You are a brand sentiment analyst. Given the title and content of a social-media post about the monitored brand, respond with JSON only: " +
	`{"sentiment":"positive|neutral|negative","sentiment_score":<-1.0..1.0>,"category":"price|product|service|membership|safety|other"}`

// DeepSeek calls an OpenAI-compatible chat completions endpoint to label
// mentions. Any transport or parse failure surfaces as an error; callers
// apply the fallback.
type DeepSeek struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Classifier = (*DeepSeek)(nil)

// NewDeepSeek builds a client from configuration. Returns nil when no API
// key is configured so callers fall through to the fallback labels.
func NewDeepSeek(cfg config.ClassifierConfig) *DeepSeek {
	if cfg.APIKey == "" {
		return nil
	}
	return &DeepSeek{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends one post to the model and parses the JSON labels.
func (c *DeepSeek) Classify(ctx context.Context, title, content string) (Result, error) {
	if c == nil {
		return Result{}, fmt.Errorf("classifier not configured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": 0.3,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": fmt.Sprintf("Title: %s\n\nContent: %s", title, content)},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal classify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{}, fmt.Errorf("classifier error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decode classifier response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("classifier returned no choices")
	}

	return parseLabels(parsed.Choices[0].Message.Content)
}

// parseLabels extracts the JSON label object from the model output, which
// may be wrapped in markdown fences or surrounding prose.
func parseLabels(raw string) (Result, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Result{}, fmt.Errorf("no JSON object in classifier output")
	}

	var out struct {
		Sentiment string  `json:"sentiment"`
		Score     float64 `json:"sentiment_score"`
		Category  string  `json:"category"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return Result{}, fmt.Errorf("parse classifier labels: %w", err)
	}

	return Result{
		Sentiment: mention.Sentiment(out.Sentiment),
		Score:     out.Score,
		Category:  mention.Category(out.Category),
	}, nil
}

// Package mention owns the mention record schema and the filtered,
// paginated query layer on top of it.
package mention

import (
	"errors"
	"fmt"
	"time"
)

// Platform identifies one of the monitored social networks.
type Platform string

const (
	PlatformXHS      Platform = "xhs"  // Xiaohongshu
	PlatformDouyin   Platform = "dy"   // Douyin
	PlatformWeibo    Platform = "wb"   // Weibo
	PlatformBilibili Platform = "bili" // Bilibili
)

// Valid reports whether the platform is one of the supported codes.
func (p Platform) Valid() bool {
	switch p {
	case PlatformXHS, PlatformDouyin, PlatformWeibo, PlatformBilibili:
		return true
	}
	return false
}

// Sentiment is the classifier-assigned polarity of a mention.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether the sentiment is a known value.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Category is the classifier-assigned complaint category.
type Category string

const (
	CategoryPrice      Category = "price"
	CategoryProduct    Category = "product"
	CategoryService    Category = "service"
	CategoryMembership Category = "membership"
	CategorySafety     Category = "safety"
	CategoryOther      Category = "other"
)

// Valid reports whether the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryPrice, CategoryProduct, CategoryService, CategoryMembership, CategorySafety, CategoryOther:
		return true
	}
	return false
}

// Status is the review state of a mention. The only transition is
// unprocessed -> processed; there is no way back.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusProcessed   Status = "processed"
)

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	return s == StatusUnprocessed || s == StatusProcessed
}

// Record is one ingested social-media post with its sentiment labels.
type Record struct {
	ID             int64      `json:"id"`
	Platform       Platform   `json:"platform"`
	Keyword        string     `json:"keyword"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	URL            string     `json:"url,omitempty"`
	Author         string     `json:"author,omitempty"`
	PublishTime    *time.Time `json:"publishTime,omitempty"`
	CrawlTime      time.Time  `json:"crawlTime"`
	HotScore       int64      `json:"hotScore"`
	Sentiment      Sentiment  `json:"sentiment"`
	SentimentScore float64    `json:"sentimentScore"`
	Category       Category   `json:"category"`
	Status         Status     `json:"status"`
	ProcessedTime  *time.Time `json:"processedTime,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("mention not found")

// ErrInvalid is the base error for records rejected at the store boundary.
// Out-of-domain values are rejected, never coerced.
var ErrInvalid = errors.New("invalid mention")

// Validate checks the field invariants enforced on insert.
func (r *Record) Validate() error {
	if !r.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalid, r.Platform)
	}
	if !r.Sentiment.Valid() {
		return fmt.Errorf("%w: unknown sentiment %q", ErrInvalid, r.Sentiment)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, r.Category)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, r.Status)
	}
	if r.CrawlTime.IsZero() {
		return fmt.Errorf("%w: crawl time is required", ErrInvalid)
	}
	if r.Status == StatusProcessed && r.ProcessedTime == nil {
		return fmt.Errorf("%w: processed record has no processed time", ErrInvalid)
	}
	if r.Status == StatusUnprocessed && r.ProcessedTime != nil {
		return fmt.Errorf("%w: unprocessed record has a processed time", ErrInvalid)
	}
	if r.SentimentScore < -1.0 || r.SentimentScore > 1.0 {
		return fmt.Errorf("%w: sentiment score %v outside [-1, 1]", ErrInvalid, r.SentimentScore)
	}
	if r.HotScore < 0 {
		return fmt.Errorf("%w: negative hot score %d", ErrInvalid, r.HotScore)
	}
	return nil
}

// DateRange selects a crawl-time window for listing and stats.
type DateRange string

const (
	RangeAll        DateRange = ""
	RangeToday      DateRange = "today"
	RangeYesterday  DateRange = "yesterday"
	RangeLast7Days  DateRange = "7d"
	RangeLast30Days DateRange = "30d"
)

// Valid reports whether the date range is a known value.
func (d DateRange) Valid() bool {
	switch d {
	case RangeAll, RangeToday, RangeYesterday, RangeLast7Days, RangeLast30Days:
		return true
	}
	return false
}

// Bounds resolves the range against now. Today starts at local midnight,
// yesterday is the single prior calendar day, and the 7/30 day windows are
// rolling (ending now), not calendar-aligned. Zero times mean unbounded.
func (d DateRange) Bounds(now time.Time) (from, to time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch d {
	case RangeToday:
		return midnight, time.Time{}
	case RangeYesterday:
		return midnight.AddDate(0, 0, -1), midnight
	case RangeLast7Days:
		return now.AddDate(0, 0, -7), time.Time{}
	case RangeLast30Days:
		return now.AddDate(0, 0, -30), time.Time{}
	}
	return time.Time{}, time.Time{}
}

// Filter holds the conjunctive predicates for List and Stats.
// Zero values mean "no constraint".
type Filter struct {
	Platform  Platform
	Category  Category
	Sentiment Sentiment
	Status    Status
	Range     DateRange
}

// Stats are the four dashboard aggregates, all computed over the same
// date/status predicates so the numbers stay comparable with the list view.
type Stats struct {
	Total       int64 `json:"total"`
	Unprocessed int64 `json:"unprocessed"`
	Negative    int64 `json:"negative"`
	Price       int64 `json:"price"`
}

// Summary describes the overall shape of the store.
type Summary struct {
	Total     int64      `json:"total"`
	Earliest  *time.Time `json:"earliest,omitempty"`
	Latest    *time.Time `json:"latest,omitempty"`
	SizeBytes int64      `json:"sizeBytes"`
}

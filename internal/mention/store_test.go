package mention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandpulse/brandpulse/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewStore(db.Conn(), zerolog.New(zerolog.NewTestWriter(t)))
}

func testRecord(crawlTime time.Time) *Record {
	return &Record{
		Platform:       PlatformXHS,
		Keyword:        "brand",
		Title:          "test mention",
		Content:        "some content about the brand",
		CrawlTime:      crawlTime,
		HotScore:       100,
		Sentiment:      SentimentNeutral,
		SentimentScore: 0.1,
		Category:       CategoryOther,
		Status:         StatusUnprocessed,
	}
}

func TestInsertAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	crawled := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	published := crawled.Add(-2 * time.Hour)

	rec := testRecord(crawled)
	rec.URL = "https://example.com/post/1"
	rec.Author = "someone"
	rec.PublishTime = &published

	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("Insert did not assign an id")
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Platform != PlatformXHS {
		t.Errorf("Platform = %q, want %q", got.Platform, PlatformXHS)
	}
	if got.Title != rec.Title {
		t.Errorf("Title = %q, want %q", got.Title, rec.Title)
	}
	if !got.CrawlTime.Equal(crawled) {
		t.Errorf("CrawlTime = %v, want %v", got.CrawlTime, crawled)
	}
	if got.PublishTime == nil || !got.PublishTime.Equal(published) {
		t.Errorf("PublishTime = %v, want %v", got.PublishTime, published)
	}
	if got.Status != StatusUnprocessed {
		t.Errorf("Status = %q, want %q", got.Status, StatusUnprocessed)
	}
	if got.ProcessedTime != nil {
		t.Errorf("ProcessedTime = %v, want nil", got.ProcessedTime)
	}
}

func TestInsertAndGetProcessedRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	crawled := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	processed := crawled.Add(6 * time.Hour)

	rec := testRecord(crawled)
	rec.Status = StatusProcessed
	rec.ProcessedTime = &processed

	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusProcessed {
		t.Errorf("Status = %q, want %q", got.Status, StatusProcessed)
	}
	if got.ProcessedTime == nil || !got.ProcessedTime.Equal(processed) {
		t.Errorf("ProcessedTime = %v, want %v", got.ProcessedTime, processed)
	}
}

func TestInsertRejectsInvalidRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"unknown platform", func(r *Record) { r.Platform = "twitter" }},
		{"unknown sentiment", func(r *Record) { r.Sentiment = "mixed" }},
		{"unknown category", func(r *Record) { r.Category = "shipping" }},
		{"unknown status", func(r *Record) { r.Status = "archived" }},
		{"zero crawl time", func(r *Record) { r.CrawlTime = time.Time{} }},
		{"score above range", func(r *Record) { r.SentimentScore = 1.5 }},
		{"score below range", func(r *Record) { r.SentimentScore = -1.5 }},
		{"negative hot score", func(r *Record) { r.HotScore = -1 }},
		{"processed without processed time", func(r *Record) { r.Status = StatusProcessed }},
		{"unprocessed with processed time", func(r *Record) {
			t := r.CrawlTime.Add(time.Hour)
			r.ProcessedTime = &t
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord(now)
			tt.mutate(rec)

			err := store.Insert(ctx, rec)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Insert error = %v, want ErrInvalid", err)
			}
		})
	}

	total, err := store.Count(ctx, Filter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 0 {
		t.Errorf("store holds %d records after rejected inserts, want 0", total)
	}
}

func TestListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	insert := func(platform Platform, sentiment Sentiment, category Category, age time.Duration) {
		rec := testRecord(now.Add(-age))
		rec.Platform = platform
		rec.Sentiment = sentiment
		rec.Category = category
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	insert(PlatformXHS, SentimentNegative, CategoryPrice, time.Hour)
	insert(PlatformXHS, SentimentPositive, CategoryProduct, 2*time.Hour)
	insert(PlatformWeibo, SentimentNegative, CategoryService, 3*time.Hour)
	insert(PlatformDouyin, SentimentNeutral, CategoryPrice, 10*24*time.Hour)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 4},
		{"platform", Filter{Platform: PlatformXHS}, 2},
		{"sentiment", Filter{Sentiment: SentimentNegative}, 2},
		{"category", Filter{Category: CategoryPrice}, 2},
		{"platform and sentiment", Filter{Platform: PlatformXHS, Sentiment: SentimentNegative}, 1},
		{"last 7 days", Filter{Range: RangeLast7Days}, 3},
		{"last 30 days", Filter{Range: RangeLast30Days}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := store.List(ctx, tt.filter, 1, 50)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("List returned %d records, want %d", len(records), tt.want)
			}
			if total != int64(tt.want) {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}
}

func TestListDateRangeBoundaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	midnight := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		now.Add(-time.Hour),            // today
		midnight,                       // first second of today
		midnight.Add(-time.Second),     // last second of yesterday
		midnight.AddDate(0, 0, -1),     // first second of yesterday
		midnight.Add(-36 * time.Hour),  // two days ago
	}
	for _, tm := range times {
		if err := store.Insert(ctx, testRecord(tm)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	today, err := store.Count(ctx, Filter{Range: RangeToday})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if today != 2 {
		t.Errorf("today count = %d, want 2", today)
	}

	yesterday, err := store.Count(ctx, Filter{Range: RangeYesterday})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if yesterday != 2 {
		t.Errorf("yesterday count = %d, want 2", yesterday)
	}
}

func TestListOrderingAndPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		rec := testRecord(base.Add(time.Duration(i) * time.Minute))
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	var seen []int64
	for page := 1; page <= 3; page++ {
		records, total, err := store.List(ctx, Filter{}, page, 10)
		if err != nil {
			t.Fatalf("List page %d failed: %v", page, err)
		}
		if total != 25 {
			t.Errorf("total = %d, want 25", total)
		}

		wantLen := 10
		if page == 3 {
			wantLen = 5
		}
		if len(records) != wantLen {
			t.Errorf("page %d has %d records, want %d", page, len(records), wantLen)
		}

		for _, r := range records {
			seen = append(seen, r.ID)
		}
	}

	if len(seen) != 25 {
		t.Fatalf("pages concatenated to %d records, want 25", len(seen))
	}

	// Most recent first; within a page and across pages crawl times only
	// ever decrease.
	prev := time.Time{}
	for i, id := range seen {
		rec, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get %d failed: %v", id, err)
		}
		if i > 0 && rec.CrawlTime.After(prev) {
			t.Fatalf("record %d out of order: %v after %v", id, rec.CrawlTime, prev)
		}
		prev = rec.CrawlTime
	}

	unique := make(map[int64]struct{}, len(seen))
	for _, id := range seen {
		if _, dup := unique[id]; dup {
			t.Fatalf("record %d appears on more than one page", id)
		}
		unique[id] = struct{}{}
	}
}

func TestListUnderConcurrentWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		if err := store.Insert(ctx, testRecord(base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 20; i++ {
			if err := store.Insert(ctx, testRecord(base.Add(time.Duration(i)*time.Second))); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	// The page and its total come from one snapshot, so the count can
	// never be smaller than what a full walk of the pages would return.
	for i := 0; i < 10; i++ {
		records, total, err := store.List(ctx, Filter{}, 1, 100)
		if err != nil {
			t.Fatalf("List failed during concurrent writes: %v", err)
		}
		if int64(len(records)) != total {
			t.Fatalf("page shows %d records but total = %d", len(records), total)
		}
	}

	if err := <-done; err != nil {
		t.Fatalf("concurrent Insert failed: %v", err)
	}
}

func TestMarkProcessed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	rec := testRecord(now)
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	processedAt := now.Add(time.Hour)
	if err := store.MarkProcessed(ctx, rec.ID, processedAt); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusProcessed {
		t.Errorf("Status = %q, want %q", got.Status, StatusProcessed)
	}
	if got.ProcessedTime == nil || !got.ProcessedTime.Equal(processedAt) {
		t.Errorf("ProcessedTime = %v, want %v", got.ProcessedTime, processedAt)
	}

	// Repeat call is accepted and the timestamp takes the last write.
	later := processedAt.Add(time.Hour)
	if err := store.MarkProcessed(ctx, rec.ID, later); err != nil {
		t.Fatalf("repeat MarkProcessed failed: %v", err)
	}
	got, err = store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ProcessedTime == nil || !got.ProcessedTime.Equal(later) {
		t.Errorf("ProcessedTime = %v, want %v", got.ProcessedTime, later)
	}
}

func TestMarkProcessedUnknownID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.MarkProcessed(ctx, 9999, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkProcessed error = %v, want ErrNotFound", err)
	}
}

func TestSetNotes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord(time.Now())
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.SetNotes(ctx, rec.ID, "follow up with support team"); err != nil {
		t.Fatalf("SetNotes failed: %v", err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Notes != "follow up with support team" {
		t.Errorf("Notes = %q", got.Notes)
	}

	if err := store.SetNotes(ctx, 9999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetNotes error = %v, want ErrNotFound", err)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	insert := func(sentiment Sentiment, category Category, status Status) {
		rec := testRecord(now.Add(-time.Hour))
		rec.Sentiment = sentiment
		rec.Category = category
		rec.Status = status
		if status == StatusProcessed {
			processed := now.Add(-30 * time.Minute)
			rec.ProcessedTime = &processed
		}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	insert(SentimentNegative, CategoryPrice, StatusUnprocessed)
	insert(SentimentNegative, CategoryService, StatusProcessed)
	insert(SentimentNeutral, CategoryPrice, StatusUnprocessed)
	insert(SentimentPositive, CategoryProduct, StatusProcessed)

	stats, err := store.Stats(ctx, RangeAll, "")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("Total = %d, want 4", stats.Total)
	}
	if stats.Unprocessed != 2 {
		t.Errorf("Unprocessed = %d, want 2", stats.Unprocessed)
	}
	if stats.Negative != 2 {
		t.Errorf("Negative = %d, want 2", stats.Negative)
	}
	if stats.Price != 2 {
		t.Errorf("Price = %d, want 2", stats.Price)
	}

	// With a status filter the total narrows but the unprocessed count
	// still reports all remaining review work.
	stats, err = store.Stats(ctx, RangeAll, StatusProcessed)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("filtered Total = %d, want 2", stats.Total)
	}
	if stats.Unprocessed != 2 {
		t.Errorf("filtered Unprocessed = %d, want 2", stats.Unprocessed)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)

	ages := []int{1, 5, 13, 15, 30}
	for _, days := range ages {
		if err := store.Insert(ctx, testRecord(now.AddDate(0, 0, -days))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	cutoff := now.AddDate(0, 0, -14)

	eligible, err := store.CountOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("CountOlderThan failed: %v", err)
	}
	if eligible != 2 {
		t.Errorf("eligible = %d, want 2", eligible)
	}

	deleted, err := store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	remaining, err := store.Count(ctx, Filter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if remaining != 3 {
		t.Errorf("remaining = %d, want 3", remaining)
	}

	// A second pass with the same cutoff is a no-op.
	deleted, err = store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("second DeleteOlderThan failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("second pass deleted %d, want 0", deleted)
	}
}

func TestGetSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	summary, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.Total != 0 || summary.Earliest != nil || summary.Latest != nil {
		t.Errorf("empty summary = %+v", summary)
	}

	earliest := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	latest := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	for _, tm := range []time.Time{latest, earliest} {
		if err := store.Insert(ctx, testRecord(tm)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	summary, err = store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.Total != 2 {
		t.Errorf("Total = %d, want 2", summary.Total)
	}
	if summary.Earliest == nil || !summary.Earliest.Equal(earliest) {
		t.Errorf("Earliest = %v, want %v", summary.Earliest, earliest)
	}
	if summary.Latest == nil || !summary.Latest.Equal(latest) {
		t.Errorf("Latest = %v, want %v", summary.Latest, latest)
	}
	if summary.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want > 0", summary.SizeBytes)
	}
}

func TestSeedSampleData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := SeedSampleData(ctx, store); err != nil {
		t.Fatalf("SeedSampleData failed: %v", err)
	}

	total, err := store.Count(ctx, Filter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 5 {
		t.Errorf("seeded %d records, want 5", total)
	}

	// Seeding again is a no-op on a populated store.
	if err := SeedSampleData(ctx, store); err != nil {
		t.Fatalf("second SeedSampleData failed: %v", err)
	}
	total, err = store.Count(ctx, Filter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 5 {
		t.Errorf("store holds %d records after reseed, want 5", total)
	}
}

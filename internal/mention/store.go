package mention

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
)

// timeLayout is the canonical column format. Times are stored in UTC at
// second precision so lexicographic comparison matches chronological order;
// within-second ordering falls back to the monotonic id.
const timeLayout = "2006-01-02 15:04:05"

const recordColumns = "id, platform, keyword, title, content, url, author, publish_time, crawl_time, hot_score, sentiment, sentiment_score, category, status, processed_time, notes"

// Store provides access to the mentions table.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore creates a new mention store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "mention-store").Logger(),
		now:    time.Now,
	}
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

// Insert validates the record, assigns its id and persists it.
// Out-of-domain enum values are rejected, never coerced.
func (s *Store) Insert(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	var publishTime sql.NullString
	if r.PublishTime != nil {
		publishTime = sql.NullString{String: fmtTime(*r.PublishTime), Valid: true}
	}
	var processedTime sql.NullString
	if r.ProcessedTime != nil {
		processedTime = sql.NullString{String: fmtTime(*r.ProcessedTime), Valid: true}
	}

	query, args, err := sq.Insert("mentions").
		Columns("platform", "keyword", "title", "content", "url", "author",
			"publish_time", "crawl_time", "hot_score",
			"sentiment", "sentiment_score", "category",
			"status", "processed_time", "notes").
		Values(string(r.Platform), r.Keyword, r.Title, r.Content, r.URL, r.Author,
			publishTime, fmtTime(r.CrawlTime), r.HotScore,
			string(r.Sentiment), r.SentimentScore, string(r.Category),
			string(r.Status), processedTime, r.Notes).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert mention: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read insert id: %w", err)
	}
	r.ID = id

	return nil
}

// whereFilter appends the conjunctive filter predicates as bound parameters.
func (s *Store) whereFilter(b sq.SelectBuilder, f Filter) sq.SelectBuilder {
	if f.Platform != "" {
		b = b.Where(sq.Eq{"platform": string(f.Platform)})
	}
	if f.Category != "" {
		b = b.Where(sq.Eq{"category": string(f.Category)})
	}
	if f.Sentiment != "" {
		b = b.Where(sq.Eq{"sentiment": string(f.Sentiment)})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	from, to := f.Range.Bounds(s.now())
	if !from.IsZero() {
		b = b.Where(sq.GtOrEq{"crawl_time": fmtTime(from)})
	}
	if !to.IsZero() {
		b = b.Where(sq.Lt{"crawl_time": fmtTime(to)})
	}
	return b
}

// List returns one page of records matching the filter, most recent first,
// plus the total match count. Ordering on (crawl_time, id) keeps pages
// stable under concurrent inserts, and the page and its count are read in
// one transaction so they always describe the same snapshot.
func (s *Store) List(ctx context.Context, f Filter, page, pageSize int) ([]Record, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query, args, err := s.whereFilter(sq.Select(recordColumns).From("mentions"), f).
		OrderBy("crawl_time DESC", "id DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list: %w", err)
	}

	countQuery, countArgs, err := s.whereFilter(sq.Select("COUNT(*)").From("mentions"), f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list mentions: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, pageSize)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list mentions: %w", err)
	}
	rows.Close()

	var total int64
	if err := tx.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count mentions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("list mentions: %w", err)
	}

	return records, total, nil
}

// Count returns the number of records matching the filter.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	query, args, err := s.whereFilter(sq.Select("COUNT(*)").From("mentions"), f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mentions: %w", err)
	}
	return n, nil
}

// Stats computes the four dashboard aggregates over the same date/status
// predicates. The unprocessed count ignores the status filter by design:
// it answers "how much review work is left" regardless of the current view.
func (s *Store) Stats(ctx context.Context, dateRange DateRange, status Status) (Stats, error) {
	base := Filter{Range: dateRange, Status: status}

	total, err := s.Count(ctx, base)
	if err != nil {
		return Stats{}, err
	}

	unprocessed, err := s.Count(ctx, Filter{Range: dateRange, Status: StatusUnprocessed})
	if err != nil {
		return Stats{}, err
	}

	negative := base
	negative.Sentiment = SentimentNegative
	negativeCount, err := s.Count(ctx, negative)
	if err != nil {
		return Stats{}, err
	}

	price := base
	price.Category = CategoryPrice
	priceCount, err := s.Count(ctx, price)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Total:       total,
		Unprocessed: unprocessed,
		Negative:    negativeCount,
		Price:       priceCount,
	}, nil
}

// Get returns a single record by id.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	query, args, err := sq.Select(recordColumns).From("mentions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get mention: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get mention: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanRecord(rows)
}

// MarkProcessed transitions a record to processed and stamps the processed
// time. Unknown ids are rejected with ErrNotFound and change nothing.
// A repeat call on an already processed record is silently accepted and the
// processed time takes the last write.
func (s *Store) MarkProcessed(ctx context.Context, id int64, processedTime time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE mentions SET status = ?, processed_time = ? WHERE id = ?",
		string(StatusProcessed), fmtTime(processedTime), id)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetNotes replaces the reviewer notes on a record.
func (s *Store) SetNotes(ctx context.Context, id int64, notes string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE mentions SET notes = ? WHERE id = ?", notes, id)
	if err != nil {
		return fmt.Errorf("set notes: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set notes: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOlderThan returns the number of records crawled before the cutoff.
func (s *Store) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mentions WHERE crawl_time < ?", fmtTime(cutoff)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count older than cutoff: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes all records crawled before the cutoff and returns
// how many were deleted.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM mentions WHERE crawl_time < ?", fmtTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete older than cutoff: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete older than cutoff: %w", err)
	}
	return deleted, nil
}

// Vacuum reclaims freed space. Slow on large stores; deliberately not
// time-bounded.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// GetSummary returns the overall shape of the store.
func (s *Store) GetSummary(ctx context.Context) (Summary, error) {
	var total int64
	var earliest, latest sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), MIN(crawl_time), MAX(crawl_time) FROM mentions").
		Scan(&total, &earliest, &latest)
	if err != nil {
		return Summary{}, fmt.Errorf("store summary: %w", err)
	}

	summary := Summary{Total: total}
	if earliest.Valid {
		if t, err := parseTime(earliest.String); err == nil {
			summary.Earliest = &t
		}
	}
	if latest.Valid {
		if t, err := parseTime(latest.String); err == nil {
			summary.Latest = &t
		}
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").
		Scan(&summary.SizeBytes)
	if err != nil {
		return Summary{}, fmt.Errorf("store size: %w", err)
	}

	return summary, nil
}

// scanRecord reads one row. The time columns are declared TIMESTAMP, so the
// driver hands back time.Time values; they are scanned as such instead of
// being re-parsed from text.
func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		r                   Record
		platform, sentiment string
		category, status    string
		url, author, notes  sql.NullString
		publishTime         sql.NullTime
		crawlTime           sql.NullTime
		processedTime       sql.NullTime
	)

	err := rows.Scan(&r.ID, &platform, &r.Keyword, &r.Title, &r.Content,
		&url, &author, &publishTime, &crawlTime, &r.HotScore,
		&sentiment, &r.SentimentScore, &category, &status, &processedTime, &notes)
	if err != nil {
		return nil, fmt.Errorf("scan mention: %w", err)
	}

	r.Platform = Platform(platform)
	r.Sentiment = Sentiment(sentiment)
	r.Category = Category(category)
	r.Status = Status(status)
	if url.Valid {
		r.URL = url.String
	}
	if author.Valid {
		r.Author = author.String
	}
	if notes.Valid {
		r.Notes = notes.String
	}
	if publishTime.Valid {
		t := publishTime.Time.UTC()
		r.PublishTime = &t
	}
	if crawlTime.Valid {
		r.CrawlTime = crawlTime.Time.UTC()
	}
	if processedTime.Valid {
		t := processedTime.Time.UTC()
		r.ProcessedTime = &t
	}

	return &r, nil
}

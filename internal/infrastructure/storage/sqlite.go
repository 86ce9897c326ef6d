package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ResearchDigest/internal/domain"
	"ResearchDigest/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS featured_items (
    item_id        TEXT PRIMARY KEY,
    title          TEXT,
    authors        TEXT,
    published_date TEXT,
    category       TEXT,
    source_link    TEXT,
    featured_at    INTEGER
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
    id                     TEXT PRIMARY KEY,
    started_at             INTEGER,
    success                INTEGER,
    news_count             INTEGER,
    papers_count           INTEGER,
    execution_time_seconds REAL,
    errors                 TEXT
);
`

// Open creates or opens the SQLite database at path and ensures the schema.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}

// Store persists featured items and pipeline run records.
type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.FeaturedStore = (*Store)(nil)
var _ ports.RunStore = (*Store)(nil)

// NewStore wires a sql.DB opened via Open.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now:     time.Now,
	}
}

// WasFeatured reports whether the item appeared in a digest within the
// last windowDays days. The boundary is inclusive: a record featured
// exactly windowDays ago still counts.
func (s *Store) WasFeatured(ctx context.Context, itemID string, windowDays int) (bool, error) {
	query, args, err := s.builder.
		Select("featured_at").
		From("featured_items").
		Where(sq.Eq{"item_id": itemID}).
		ToSql()
	if err != nil {
		return false, domain.NewStorageError("build query", err)
	}

	var featuredAt sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&featuredAt); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, domain.NewStorageError("query featured", err)
	}

	if !featuredAt.Valid {
		return false, nil
	}

	cutoff := s.now().Add(-time.Duration(windowDays) * 24 * time.Hour)
	return !time.Unix(featuredAt.Int64, 0).Before(cutoff), nil
}

// RecordFeatured upserts the featured record for the item, refreshing
// featured_at on repeat calls so the operation is idempotent by item id.
func (s *Store) RecordFeatured(ctx context.Context, item domain.CandidateItem) (domain.FeaturedRecord, error) {
	record := domain.FeaturedRecord{
		ItemID:      item.ID,
		Title:       item.Title,
		Authors:     strings.Join(item.Authors, ", "),
		PublishedAt: item.PublishedAt,
		Category:    item.Category,
		SourceLink:  item.Link,
		FeaturedAt:  s.now(),
	}

	query, args, err := s.builder.
		Insert("featured_items").
		Columns("item_id", "title", "authors", "published_date", "category", "source_link", "featured_at").
		Values(
			record.ItemID,
			record.Title,
			record.Authors,
			record.PublishedAt.Format("2006-01-02"),
			record.Category,
			record.SourceLink,
			record.FeaturedAt.Unix(),
		).
		Suffix(`ON CONFLICT(item_id) DO UPDATE SET
            featured_at = excluded.featured_at,
            category = excluded.category,
            source_link = excluded.source_link`).
		ToSql()
	if err != nil {
		return domain.FeaturedRecord{}, domain.NewStorageError("build upsert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return domain.FeaturedRecord{}, domain.NewStorageError("upsert featured", err)
	}

	return record, nil
}

// SaveRun records one row per pipeline execution.
func (s *Store) SaveRun(ctx context.Context, run domain.PipelineRun) error {
	query, args, err := s.builder.
		Insert("pipeline_runs").
		Columns("id", "started_at", "success", "news_count", "papers_count", "execution_time_seconds", "errors").
		Values(
			run.ID,
			run.StartedAt.Unix(),
			run.Success,
			run.NewsCount,
			run.PapersSelectedCount,
			run.ExecutionTimeSeconds,
			strings.Join(run.Errors, "; "),
		).
		ToSql()
	if err != nil {
		return domain.NewStorageError("build insert", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return domain.NewStorageError("insert run", err)
	}

	return nil
}

// Statistics aggregates store counters for observability.
func (s *Store) Statistics(ctx context.Context) (domain.Statistics, error) {
	var stats domain.Statistics

	counts := []struct {
		dest  *int
		query sq.SelectBuilder
	}{
		{&stats.TotalRuns, s.builder.Select("COUNT(*)").From("pipeline_runs")},
		{&stats.SuccessfulRuns, s.builder.Select("COUNT(*)").From("pipeline_runs").Where(sq.Eq{"success": true})},
		{&stats.TotalItems, s.builder.Select("COUNT(*)").From("featured_items")},
		{&stats.TotalFeatured, s.builder.Select("COUNT(*)").From("featured_items").Where(sq.NotEq{"featured_at": nil})},
	}

	for _, c := range counts {
		query, args, err := c.query.ToSql()
		if err != nil {
			return domain.Statistics{}, domain.NewStorageError("build count", err)
		}
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(c.dest); err != nil {
			return domain.Statistics{}, domain.NewStorageError("count rows", err)
		}
	}

	return stats, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"

	"github.com/jackc/pgx/v5"
)

// CrawlRunRepository implements port.CrawlRunRepositoryPort for PostgreSQL.
type CrawlRunRepository struct {
	db DB
}

var _ port.CrawlRunRepositoryPort = (*CrawlRunRepository)(nil)

func NewCrawlRunRepository(db DB) (*CrawlRunRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres crawl run repository: db cannot be nil")
	}
	return &CrawlRunRepository{db: db}, nil
}

func (r *CrawlRunRepository) SaveRun(ctx context.Context, run domain.CrawlRun) error {
	query := `
        INSERT INTO crawl_runs (run_id, search_name, mode, started_at, finished_at, page_count,
            pages_fetched, links_found, links_enqueued, listings_saved, truncated, error)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (run_id) DO UPDATE SET
            finished_at = EXCLUDED.finished_at,
            page_count = EXCLUDED.page_count,
            pages_fetched = EXCLUDED.pages_fetched,
            links_found = EXCLUDED.links_found,
            links_enqueued = EXCLUDED.links_enqueued,
            listings_saved = EXCLUDED.listings_saved,
            truncated = EXCLUDED.truncated,
            error = EXCLUDED.error
    `
	_, err := r.db.Exec(ctx, query,
		run.RunID, run.SearchName, run.Mode, run.StartedAt, run.FinishedAt, run.PageCount,
		run.PagesFetched, run.LinksFound, run.LinksEnqueued, run.ListingsSaved, run.Truncated, run.Error,
	)
	if err != nil {
		return fmt.Errorf("error saving crawl run %s for search '%s': %w", run.RunID, run.SearchName, err)
	}

	contextkeys.LoggerFromContext(ctx).Debug("Crawl run saved", port.Fields{
		"component": "PostgresCrawlRuns",
		"run_id":    run.RunID.String(),
	})
	return nil
}

// GetLastRun returns the most recently started run of the search, or nil when there is none.
func (r *CrawlRunRepository) GetLastRun(ctx context.Context, searchName string) (*domain.CrawlRun, error) {
	query := `
        SELECT run_id, search_name, mode, started_at, finished_at, page_count,
            pages_fetched, links_found, links_enqueued, listings_saved, truncated, error
        FROM crawl_runs
        WHERE search_name = $1
        ORDER BY started_at DESC
        LIMIT 1
    `
	var run domain.CrawlRun
	err := r.db.QueryRow(ctx, query, searchName).Scan(
		&run.RunID, &run.SearchName, &run.Mode, &run.StartedAt, &run.FinishedAt, &run.PageCount,
		&run.PagesFetched, &run.LinksFound, &run.LinksEnqueued, &run.ListingsSaved, &run.Truncated, &run.Error,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying last run for search '%s': %w", searchName, err)
	}
	return &run, nil
}

package port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

// CrawlRunRepositoryPort stores crawl bookkeeping.
type CrawlRunRepositoryPort interface {
	SaveRun(ctx context.Context, run domain.CrawlRun) error
	// GetLastRun returns nil without error when the search never ran.
	GetLastRun(ctx context.Context, searchName string) (*domain.CrawlRun, error)
}

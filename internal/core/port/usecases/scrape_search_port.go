package usecases_port

import (
	"context"
	"olx-parser-service/internal/core/domain"

	"github.com/google/uuid"
)

// ScrapeSearchPort runs crawl and extraction for one search in-process, without queues.
type ScrapeSearchPort interface {
	Execute(ctx context.Context, runID uuid.UUID, search domain.NamedSearch) (*domain.CrawlRun, error)
}

package usecases_port

import (
	"context"
	"olx-parser-service/internal/core/domain"

	"github.com/google/uuid"
)

// CrawlLinksUseCase crawls a search and hands every link to the extraction queue.
type CrawlLinksUseCase interface {
	Execute(ctx context.Context, runID uuid.UUID, search domain.NamedSearch) (*domain.CrawlRun, error)
}

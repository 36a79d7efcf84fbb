package usecases_port

import (
	"context"
	"olx-parser-service/internal/core/domain"

	"github.com/google/uuid"
)

// StartCrawlPort schedules a crawl and returns its run id without waiting for it.
type StartCrawlPort interface {
	Execute(ctx context.Context, search domain.NamedSearch) (uuid.UUID, error)
}

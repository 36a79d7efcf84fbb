package port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

// LinksQueuePort sends discovered listing links to the extraction queue.
type LinksQueuePort interface {
	Enqueue(ctx context.Context, link domain.ListingLink) error
}

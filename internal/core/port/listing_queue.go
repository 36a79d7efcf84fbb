package port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

// ListingQueuePort sends extracted listings to the storage queue.
type ListingQueuePort interface {
	Enqueue(ctx context.Context, record domain.ListingRecord) error
}

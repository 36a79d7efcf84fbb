package port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

// ListingStoragePort persists an extracted listing.
type ListingStoragePort interface {
	Save(ctx context.Context, record domain.ListingRecord) error
}

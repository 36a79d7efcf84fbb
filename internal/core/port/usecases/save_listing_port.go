package usecases_port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

type SaveListingPort interface {
	Execute(ctx context.Context, record domain.ListingRecord) error
}

package usecases_port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

type ProcessLinkPort interface {
	Execute(ctx context.Context, link domain.ListingLink) error
}

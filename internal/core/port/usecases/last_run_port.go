package usecases_port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

type GetLastRunUseCase interface {
	Execute(ctx context.Context, searchName string) (*domain.CrawlRun, error)
}

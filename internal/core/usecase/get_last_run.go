package usecase

import (
	"context"
	"fmt"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
)

type GetLastRunUseCase struct {
	runs port.CrawlRunRepositoryPort
}

func NewGetLastRunUseCase(runs port.CrawlRunRepositoryPort) *GetLastRunUseCase {
	return &GetLastRunUseCase{runs: runs}
}

// Execute returns nil when the search has never run.
func (uc *GetLastRunUseCase) Execute(ctx context.Context, searchName string) (*domain.CrawlRun, error) {
	run, err := uc.runs.GetLastRun(ctx, searchName)
	if err != nil {
		return nil, fmt.Errorf("failed to get last run for %s: %w", searchName, err)
	}
	return run, nil
}

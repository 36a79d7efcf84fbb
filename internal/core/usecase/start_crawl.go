package usecase

import (
	"context"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	usecases_port "olx-parser-service/internal/core/port/usecases"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StartCrawlUseCase runs CrawlAndEnqueueLinks in the background for requests that
// cannot wait for a whole crawl.
type StartCrawlUseCase struct {
	crawlUC usecases_port.CrawlLinksUseCase
	// baseCtx outlives the request and is cancelled on shutdown
	baseCtx context.Context
	wg      sync.WaitGroup
}

func NewStartCrawlUseCase(baseCtx context.Context, crawlUC usecases_port.CrawlLinksUseCase) *StartCrawlUseCase {
	return &StartCrawlUseCase{
		crawlUC: crawlUC,
		baseCtx: baseCtx,
	}
}

func (uc *StartCrawlUseCase) Execute(ctx context.Context, search domain.NamedSearch) (uuid.UUID, error) {
	if strings.TrimSpace(search.Name) == "" {
		return uuid.Nil, fmt.Errorf("%w: search name is required", domain.ErrInvalidSearch)
	}

	logger := contextkeys.LoggerFromContext(ctx)
	runID := uuid.New()

	bgCtx := contextkeys.ContextWithLogger(uc.baseCtx, logger)
	bgCtx = contextkeys.ContextWithTraceID(bgCtx, contextkeys.TraceIDFromContext(ctx))

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		if _, err := uc.crawlUC.Execute(bgCtx, runID, search); err != nil {
			logger.Error("Background crawl failed", err, port.Fields{"run_id": runID.String(), "search": search.Name})
		}
	}()

	logger.Info("Crawl scheduled", port.Fields{"run_id": runID.String(), "search": search.Name})
	return runID, nil
}

// Wait blocks until every scheduled crawl has returned.
func (uc *StartCrawlUseCase) Wait() {
	uc.wg.Wait()
}

package usecase

import (
	"context"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"time"

	"github.com/google/uuid"
)

// CrawlAndEnqueueLinksUseCase crawls one search and puts every listing link on the links queue.
type CrawlAndEnqueueLinksUseCase struct {
	source port.ListingSourcePort
	queue  port.LinksQueuePort
	runs   port.CrawlRunRepositoryPort
}

func NewCrawlAndEnqueueLinksUseCase(
	source port.ListingSourcePort,
	queue port.LinksQueuePort,
	runs port.CrawlRunRepositoryPort,
) *CrawlAndEnqueueLinksUseCase {
	return &CrawlAndEnqueueLinksUseCase{
		source: source,
		queue:  queue,
		runs:   runs,
	}
}

// Execute returns the recorded run even when the crawl fails.
func (uc *CrawlAndEnqueueLinksUseCase) Execute(ctx context.Context, runID uuid.UUID, search domain.NamedSearch) (*domain.CrawlRun, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "CrawlAndEnqueueLinks",
		"search":   search.Name,
		"run_id":   runID.String(),
	})
	ctx = contextkeys.ContextWithLogger(ctx, ucLogger)

	run := &domain.CrawlRun{
		RunID:      runID,
		SearchName: search.Name,
		Mode:       domain.RunModePipeline,
		StartedAt:  time.Now().UTC(),
	}
	ucLogger.Info("Starting crawl", nil)

	result, err := uc.source.Crawl(ctx, search.Query)
	if err != nil {
		ucLogger.Error("Crawl failed", err, nil)
		recordRun(ctx, uc.runs, run, err, ucLogger)
		return run, fmt.Errorf("crawl search %s: %w", search.Name, err)
	}
	applyCrawlResult(run, result)

	queuedAt := time.Now().UTC()
	for i, u := range result.URLs {
		if ctx.Err() != nil {
			ucLogger.Warn("Context cancelled, stopping enqueue", port.Fields{"enqueued": run.LinksEnqueued})
			break
		}
		link := domain.ListingLink{
			URL:        u,
			SearchName: search.Name,
			RunID:      runID,
			Position:   i + 1,
			QueuedAt:   queuedAt,
		}
		if err := uc.queue.Enqueue(ctx, link); err != nil {
			ucLogger.Error("Failed to enqueue link, skipping", err, port.Fields{"url": u})
			continue
		}
		run.LinksEnqueued++
	}

	recordRun(ctx, uc.runs, run, nil, ucLogger)
	ucLogger.Info("Crawl finished", port.Fields{
		"links_found":    run.LinksFound,
		"links_enqueued": run.LinksEnqueued,
		"truncated":      run.Truncated,
	})
	return run, nil
}

package usecase

import (
	"context"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	usecases_port "olx-parser-service/internal/core/port/usecases"
	"time"

	"github.com/google/uuid"
)

// ScrapeSearchUseCase runs crawl, batch extraction and saving in-process.
type ScrapeSearchUseCase struct {
	source port.ListingSourcePort
	saveUC usecases_port.SaveListingPort
	runs   port.CrawlRunRepositoryPort
}

func NewScrapeSearchUseCase(
	source port.ListingSourcePort,
	saveUC usecases_port.SaveListingPort,
	runs port.CrawlRunRepositoryPort,
) *ScrapeSearchUseCase {
	return &ScrapeSearchUseCase{
		source: source,
		saveUC: saveUC,
		runs:   runs,
	}
}

func (uc *ScrapeSearchUseCase) Execute(ctx context.Context, runID uuid.UUID, search domain.NamedSearch) (*domain.CrawlRun, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "ScrapeSearch",
		"search":   search.Name,
		"run_id":   runID.String(),
	})
	ctx = contextkeys.ContextWithLogger(ctx, ucLogger)

	run := &domain.CrawlRun{
		RunID:      runID,
		SearchName: search.Name,
		Mode:       domain.RunModeBatch,
		StartedAt:  time.Now().UTC(),
	}

	result, err := uc.source.Crawl(ctx, search.Query)
	if err != nil {
		ucLogger.Error("Crawl failed", err, nil)
		recordRun(ctx, uc.runs, run, err, ucLogger)
		return run, fmt.Errorf("crawl search %s: %w", search.Name, err)
	}
	applyCrawlResult(run, result)

	records := uc.source.ExtractMany(ctx, result.URLs)
	for _, record := range records {
		if err := uc.saveUC.Execute(ctx, record); err != nil {
			ucLogger.Warn("Listing not saved, continuing", port.Fields{"url": record.URL, "error": err.Error()})
			continue
		}
		run.ListingsSaved++
	}

	recordRun(ctx, uc.runs, run, nil, ucLogger)
	ucLogger.Info("Search scraped", port.Fields{
		"links_found":    run.LinksFound,
		"extracted":      len(records),
		"listings_saved": run.ListingsSaved,
		"truncated":      run.Truncated,
	})
	return run, nil
}

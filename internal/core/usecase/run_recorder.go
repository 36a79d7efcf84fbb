package usecase

import (
	"context"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"time"
)

// recordRun closes the run and stores it. A bookkeeping failure is only logged.
func recordRun(ctx context.Context, runs port.CrawlRunRepositoryPort, run *domain.CrawlRun, runErr error, logger port.LoggerPort) {
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if runErr != nil {
		msg := runErr.Error()
		run.Error = &msg
	}
	if runs == nil {
		return
	}
	if err := runs.SaveRun(ctx, *run); err != nil {
		logger.Error("Failed to save crawl run", err, port.Fields{"run_id": run.RunID.String()})
	}
}

func applyCrawlResult(run *domain.CrawlRun, result *domain.CrawlResult) {
	run.PageCount = result.PageCount
	run.PagesFetched = result.PagesFetched
	run.LinksFound = len(result.URLs)
	run.Truncated = result.Truncated
}

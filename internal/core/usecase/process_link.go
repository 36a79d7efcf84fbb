package usecase

import (
	"context"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
)

// ProcessLinkUseCase extracts one listing and sends the record to the listings queue.
type ProcessLinkUseCase struct {
	extractor   port.ListingSourcePort
	resultQueue port.ListingQueuePort
}

func NewProcessLinkUseCase(
	extractor port.ListingSourcePort,
	queue port.ListingQueuePort,
) *ProcessLinkUseCase {
	return &ProcessLinkUseCase{
		extractor:   extractor,
		resultQueue: queue,
	}
}

func (uc *ProcessLinkUseCase) Execute(ctx context.Context, link domain.ListingLink) error {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "ProcessLink",
		"url":      link.URL,
		"search":   link.SearchName,
	})

	record, err := uc.extractor.Extract(ctx, link.URL)
	if err != nil {
		return fmt.Errorf("failed to extract listing %s: %w", link.URL, err)
	}
	if record == nil {
		ucLogger.Info("Listing is no longer available, nothing to enqueue", nil)
		return nil
	}
	ucLogger.Debug("Listing extracted", port.Fields{"listing_id": record.ListingID, "title": record.Title})

	if err := uc.resultQueue.Enqueue(ctx, *record); err != nil {
		return fmt.Errorf("CRITICAL: failed to enqueue listing %s: %w", link.URL, err)
	}

	ucLogger.Info("Listing enqueued for storage", port.Fields{"listing_id": record.ListingID})
	return nil
}

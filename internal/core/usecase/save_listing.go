package usecase

import (
	"context"
	"errors"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
)

// SaveListingUseCase writes a record to every configured sink.
type SaveListingUseCase struct {
	storages []port.ListingStoragePort
}

func NewSaveListingUseCase(storages ...port.ListingStoragePort) *SaveListingUseCase {
	return &SaveListingUseCase{
		storages: storages,
	}
}

// Execute tries every sink even if one fails and returns the joined errors.
func (uc *SaveListingUseCase) Execute(ctx context.Context, record domain.ListingRecord) error {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "SaveListing",
		"url":      record.URL,
	})

	var errs []error
	for _, storage := range uc.storages {
		if err := storage.Save(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		ucLogger.Error("Failed to save listing", err, nil)
		return fmt.Errorf("failed to save listing %s: %w", record.URL, err)
	}

	ucLogger.Debug("Listing saved", port.Fields{"sinks": len(uc.storages)})
	return nil
}

package filestorage

import (
	"context"
	"encoding/json"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"os"
	"sync"
)

// ListingFileStorageAdapter implements port.ListingStoragePort by appending records to a file.
type ListingFileStorageAdapter struct {
	filename string
	mu       sync.Mutex
}

var _ port.ListingStoragePort = (*ListingFileStorageAdapter)(nil)

func NewListingFileStorageAdapter(filename string) (*ListingFileStorageAdapter, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename cannot be empty")
	}
	return &ListingFileStorageAdapter{
		filename: filename,
	}, nil
}

// Save appends the record as indented JSON followed by a blank line.
func (a *ListingFileStorageAdapter) Save(ctx context.Context, record domain.ListingRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prettyJSON, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format listing %s as JSON: %w", record.URL, err)
	}

	file, err := os.OpenFile(a.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file '%s': %w", a.filename, err)
	}
	defer file.Close()

	if _, err := file.Write(append(prettyJSON, '\n', '\n')); err != nil {
		return fmt.Errorf("failed to write to output file '%s': %w", a.filename, err)
	}

	contextkeys.LoggerFromContext(ctx).Debug("Listing written to file", port.Fields{
		"component": "FileStorage",
		"url":       record.URL,
		"file":      a.filename,
	})
	return nil
}

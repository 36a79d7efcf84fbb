package postgres

import (
	"context"
	"fmt"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
)

// ListingStorageAdapter implements port.ListingStoragePort for PostgreSQL.
type ListingStorageAdapter struct {
	db DB
}

var _ port.ListingStoragePort = (*ListingStorageAdapter)(nil)

func NewListingStorageAdapter(db DB) (*ListingStorageAdapter, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres listing storage: db cannot be nil")
	}
	return &ListingStorageAdapter{db: db}, nil
}

// Save upserts the listing keyed by its URL.
func (a *ListingStorageAdapter) Save(ctx context.Context, record domain.ListingRecord) error {
	columns, values := listingRow(record)

	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != "url" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	sql := fmt.Sprintf(
		`INSERT INTO listings (%s, updated_at) VALUES (%s, NOW())
		ON CONFLICT (url) DO UPDATE SET %s, updated_at = NOW()`,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	if _, err := a.db.Exec(ctx, sql, values...); err != nil {
		return fmt.Errorf("failed to upsert listing %s: %w", record.URL, err)
	}

	contextkeys.LoggerFromContext(ctx).Debug("Listing upserted", port.Fields{
		"component":  "PostgresListingStorage",
		"listing_id": record.ListingID,
		"url":        record.URL,
	})
	return nil
}

// listingRow returns the listings columns and the matching values of record.
func listingRow(record domain.ListingRecord) ([]string, []any) {
	var lat, lon *float64
	var hash *string
	if record.GPS != nil {
		lat, lon = &record.GPS.Lat, &record.GPS.Lon
		h := geohash.Encode(record.GPS.Lat, record.GPS.Lon)
		hash = &h
	}

	var dateAdded *time.Time
	if record.DateAdded != nil {
		t := time.Unix(*record.DateAdded, 0).UTC()
		dateAdded = &t
	}

	images := record.Images
	if images == nil {
		images = []string{}
	}

	columns := []string{
		"listing_id", "url", "title", "price", "currency", "additional_rent",
		"surface", "rooms", "built_type", "furniture", "floor", "private_business",
		"description", "poster_name", "city", "district", "voivodeship",
		"latitude", "longitude", "geohash", "date_added", "date_added_text", "images",
	}
	values := []any{
		record.ListingID, record.URL, record.Title, record.Price, record.Currency, record.AdditionalRent,
		record.Surface, record.Rooms, record.BuiltType, record.Furniture, record.Floor, record.PrivateBusiness,
		record.Description, record.PosterName, record.City, record.District, record.Voivodeship,
		lat, lon, hash, dateAdded, record.DateAddedText, images,
	}
	return columns, values
}

package port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

// ListingSourcePort groups the operations available against the classifieds site.
type ListingSourcePort interface {
	// Crawl walks every result page of the search and returns the listing URLs in page order.
	// Only a failure on the first page is returned as an error.
	Crawl(ctx context.Context, query domain.SearchQuery) (*domain.CrawlResult, error)

	// CrawlPage returns the listing URLs of a single result page.
	CrawlPage(ctx context.Context, query domain.SearchQuery, page int) ([]string, error)

	// Extract parses one listing page. A nil record with a nil error means the listing is gone.
	Extract(ctx context.Context, url string) (*domain.ListingRecord, error)

	// ExtractMany extracts every URL in order, skipping empty URLs and gone listings.
	ExtractMany(ctx context.Context, urls []string) []domain.ListingRecord
}

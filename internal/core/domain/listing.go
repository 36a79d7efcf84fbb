package domain

import (
	"time"

	"github.com/google/uuid"
)

// GPS is a latitude/longitude pair read from the listing map container.
type GPS struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ListingRecord is the structured result of extracting one listing page.
// Optional fields stay nil when the page does not provide them.
type ListingRecord struct {
	ListingID string `json:"listing_id" db:"listing_id"`
	URL       string `json:"url" db:"url"`
	Title     string `json:"title" db:"title"`

	Price          *int64  `json:"price,omitempty" db:"price"`
	Currency       *string `json:"currency,omitempty" db:"currency"`
	AdditionalRent *int64  `json:"additional_rent,omitempty" db:"additional_rent"`

	Surface         *float64 `json:"surface,omitempty" db:"surface"`
	Rooms           *int     `json:"rooms,omitempty" db:"rooms"`
	BuiltType       *string  `json:"built_type,omitempty" db:"built_type"`
	Furniture       *bool    `json:"furniture,omitempty" db:"furniture"`
	Floor           *int     `json:"floor,omitempty" db:"floor"`
	PrivateBusiness *string  `json:"private_business,omitempty" db:"private_business"`

	Description string `json:"description" db:"description"`
	PosterName  string `json:"poster_name" db:"poster_name"`

	City        string  `json:"city" db:"city"`
	District    *string `json:"district,omitempty" db:"district"`
	Voivodeship string  `json:"voivodeship" db:"voivodeship"`
	GPS         *GPS    `json:"gps,omitempty" db:"gps"`

	// DateAdded is epoch seconds; DateAddedText keeps the page text for when parsing fails.
	DateAdded     *int64 `json:"date_added,omitempty" db:"date_added"`
	DateAddedText string `json:"date_added_text,omitempty" db:"date_added_text"`

	Images []string `json:"images,omitempty" db:"images"`
}

// ListingLink is a discovered listing URL travelling from the crawler to the extractor.
type ListingLink struct {
	URL        string    `json:"url"`
	SearchName string    `json:"search_name"`
	RunID      uuid.UUID `json:"run_id"`
	Position   int       `json:"position"`
	QueuedAt   time.Time `json:"queued_at"`
}

// CrawlResult is the outcome of crawling one search.
type CrawlResult struct {
	URLs         []string
	PageCount    int
	PagesFetched int
	// AdsCount is the total reported by the site, 0 when unknown.
	AdsCount int
	// Truncated is set when a page after the first could not be fetched.
	Truncated bool
	Rejected  []FilterRejection
}

// CrawlRun is the bookkeeping row written after every crawl.
type CrawlRun struct {
	RunID         uuid.UUID  `json:"run_id" db:"run_id"`
	SearchName    string     `json:"search_name" db:"search_name"`
	Mode          string     `json:"mode" db:"mode"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	PageCount     int        `json:"page_count" db:"page_count"`
	PagesFetched  int        `json:"pages_fetched" db:"pages_fetched"`
	LinksFound    int        `json:"links_found" db:"links_found"`
	LinksEnqueued int        `json:"links_enqueued" db:"links_enqueued"`
	ListingsSaved int        `json:"listings_saved" db:"listings_saved"`
	Truncated     bool       `json:"truncated" db:"truncated"`
	Error         *string    `json:"error,omitempty" db:"error"`
}

// Crawl run modes
const (
	RunModePipeline = "pipeline"
	RunModeBatch    = "batch"
)

package rest

import "olx-parser-service/internal/core/domain"

// CrawlRequestDTO is the body of POST /crawls. Without a query the name must match a predefined search.
type CrawlRequestDTO struct {
	Name  string              `json:"name"`
	Query *domain.SearchQuery `json:"query,omitempty"`
}

type CrawlStartedDTO struct {
	RunID string `json:"run_id"`
}

type SearchURLResponseDTO struct {
	URL             string                   `json:"url"`
	RejectedFilters []domain.FilterRejection `json:"rejected_filters"`
}

type HealthDTO struct {
	Status string `json:"status"`
	App    string `json:"app"`
}

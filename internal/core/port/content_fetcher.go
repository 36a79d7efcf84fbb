package port

import (
	"context"
	"olx-parser-service/internal/core/domain"
)

// ContentFetcherPort performs a single GET for a page.
// Any HTTP answer is returned as a response, whatever its status;
// an error means the request itself failed.
type ContentFetcherPort interface {
	Fetch(ctx context.Context, url string) (*domain.FetchResponse, error)
}

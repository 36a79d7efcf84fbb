package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPageUnavailable is returned for pages answered with a status of 300 or above.
	ErrPageUnavailable = errors.New("page unavailable")
	ErrFilterRejected  = errors.New("filter value rejected")
	ErrListingGone     = errors.New("listing no longer available")
	ErrInvalidSearch   = errors.New("invalid search")
)

// FetchResponse is what the content fetcher returns for any HTTP answer.
type FetchResponse struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports whether the page can be parsed.
func (r *FetchResponse) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// FetchError describes a failed page fetch.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

package olx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"olx-parser-service/internal/constants"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"time"
	_ "time/tzdata"

	"github.com/PuerkitoBio/goquery"
)

// Config holds the site constants shared by the crawler and the extractor.
type Config struct {
	BaseURL        string
	AllowedDomains []string
	FeaturedOffers int
	Location       *time.Location
}

// DefaultConfig returns the production site settings.
func DefaultConfig() Config {
	loc, err := time.LoadLocation(constants.OlxTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Config{
		BaseURL:        constants.OlxBaseURL,
		AllowedDomains: constants.OlxWhitelistedDomains(),
		FeaturedOffers: constants.FeaturedOffersPerPage,
		Location:       loc,
	}
}

// OlxAdapter implements port.ListingSourcePort for the olx.pl site.
type OlxAdapter struct {
	*Crawler
	*Extractor
	urls *URLBuilder
}

var _ port.ListingSourcePort = (*OlxAdapter)(nil)

func NewOlxAdapter(fetcher port.ContentFetcherPort, cfg Config) (*OlxAdapter, error) {
	if fetcher == nil {
		return nil, errors.New("olx adapter: content fetcher is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("olx adapter: invalid base url %q: %w", cfg.BaseURL, err)
	}
	if len(cfg.AllowedDomains) == 0 {
		return nil, errors.New("olx adapter: at least one allowed domain is required")
	}

	urls := NewURLBuilder(cfg.BaseURL)
	return &OlxAdapter{
		Crawler:   NewCrawler(fetcher, urls, cfg.AllowedDomains, cfg.FeaturedOffers),
		Extractor: NewExtractor(fetcher, cfg.Location),
		urls:      urls,
	}, nil
}

// SearchURL exposes the URL builder to callers that only need the address of a page.
func (a *OlxAdapter) SearchURL(query domain.SearchQuery, page int) (string, []domain.FilterRejection) {
	return a.urls.BuildSearchURL(query, page)
}

func fetchDocument(ctx context.Context, fetcher port.ContentFetcherPort, pageURL string) (*goquery.Document, error) {
	resp, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &domain.FetchError{URL: pageURL, Err: err}
	}
	if !resp.OK() {
		return nil, &domain.FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: domain.ErrPageUnavailable}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

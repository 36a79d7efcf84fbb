package collyfetcher

import (
	"context"
	"fmt"
	"net/http"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Config tunes the shared collector.
type Config struct {
	// AllowedDomains restricts the hosts that may be fetched; empty allows any host.
	AllowedDomains []string
	RandomDelay    time.Duration
	RequestTimeout time.Duration
	// CacheDir enables colly's on-disk response cache when set.
	CacheDir string
}

// CollyFetcherAdapter implements port.ContentFetcherPort on top of one parent colly.Collector.
// All clones share its transport and limit rule, so requests from concurrent callers are
// serialised into one polite queue.
type CollyFetcherAdapter struct {
	collector *colly.Collector
	logger    port.LoggerPort
}

var _ port.ContentFetcherPort = (*CollyFetcherAdapter)(nil)

func NewCollyFetcherAdapter(cfg Config, logger port.LoggerPort) (*CollyFetcherAdapter, error) {
	opts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		// every status reaches OnResponse; the caller decides what is unavailable
		colly.ParseHTTPErrorResponse(),
	}
	if len(cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(cfg.AllowedDomains...))
	}
	if cfg.CacheDir != "" {
		opts = append(opts, colly.CacheDir(cfg.CacheDir))
	}
	c := colly.NewCollector(opts...)

	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}
	// redirects are reported, not followed
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	})

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		RandomDelay: cfg.RandomDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("colly fetcher: failed to set limit rule: %w", err)
	}

	return &CollyFetcherAdapter{
		collector: c,
		logger:    logger.WithFields(port.Fields{"component": "CollyFetcher"}),
	}, nil
}

// Fetch performs one GET through a clone of the parent collector.
func (a *CollyFetcherAdapter) Fetch(ctx context.Context, pageURL string) (*domain.FetchResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Clone keeps limits and transport but not callbacks, so the extensions are attached per clone.
	collector := a.collector.Clone()
	extensions.RandomUserAgent(collector)
	extensions.Referer(collector)

	var resp *domain.FetchResponse
	collector.OnRequest(func(r *colly.Request) {
		a.logger.Debug("Making request", port.Fields{"url": r.URL.String()})
	})
	collector.OnResponse(func(r *colly.Response) {
		resp = &domain.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		a.logger.Warn("Request failed", port.Fields{"url": pageURL, "status": status, "error": err.Error()})
	})

	if err := collector.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("colly fetcher: failed to visit %s: %w", pageURL, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("colly fetcher: no response for %s", pageURL)
	}
	return resp, nil
}

package olx

import (
	"context"
	"fmt"
	"net/url"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Crawler walks the result pages of a search and collects listing URLs.
type Crawler struct {
	fetcher        port.ContentFetcherPort
	urls           *URLBuilder
	allowedDomains map[string]struct{}
	featuredOffers int
}

func NewCrawler(fetcher port.ContentFetcherPort, urls *URLBuilder, allowedDomains []string, featuredOffers int) *Crawler {
	allowed := make(map[string]struct{}, len(allowedDomains))
	for _, d := range allowedDomains {
		allowed[strings.ToLower(d)] = struct{}{}
	}
	if featuredOffers < 0 {
		featuredOffers = 0
	}
	return &Crawler{
		fetcher:        fetcher,
		urls:           urls,
		allowedDomains: allowed,
		featuredOffers: featuredOffers,
	}
}

// Crawl fetches page 1, reads the page count from it and walks the remaining pages in order.
// A failure on page 1 is returned as an error. A failure on a later page stops the crawl
// and returns what was collected so far with Truncated set.
func (c *Crawler) Crawl(ctx context.Context, query domain.SearchQuery) (*domain.CrawlResult, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "OlxCrawler"})

	pageURL, rejected := c.urls.BuildSearchURL(query, 1)
	logRejections(logger, rejected)

	doc, err := fetchDocument(ctx, c.fetcher, pageURL)
	if err != nil {
		logger.Error("Failed to fetch first result page", err, port.Fields{"url": pageURL})
		return nil, err
	}

	result := &domain.CrawlResult{Rejected: rejected, PageCount: 1}
	if count, ok := parsePageCount(doc); ok && count > 1 {
		result.PageCount = count
	} else if !ok {
		logger.Warn("Page count not found, crawling the first page only", port.Fields{"url": pageURL})
	}
	result.AdsCount = parseAdsCount(doc)

	seen := make(map[string]struct{})
	for page := 1; page <= result.PageCount; page++ {
		if page > 1 {
			pageURL, _ = c.urls.BuildSearchURL(query, page)
			doc, err = fetchDocument(ctx, c.fetcher, pageURL)
			if err != nil {
				logger.Warn("Result page could not be fetched, returning partial results", port.Fields{
					"url": pageURL, "page": page, "error": err.Error(),
				})
				result.Truncated = true
				break
			}
		}
		result.PagesFetched++

		urls, empty, err := c.parseOffers(doc, pageURL)
		if err != nil {
			logger.Warn("Result page URL could not be parsed", port.Fields{"url": pageURL, "error": err.Error()})
			result.Truncated = true
			break
		}
		if empty {
			logger.Info("Result page has no offers, stopping", port.Fields{"page": page})
			break
		}
		for _, u := range urls {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			result.URLs = append(result.URLs, u)
		}
		logger.Debug("Result page processed", port.Fields{"page": page, "links": len(urls)})
	}

	logger.Info("Crawl finished", port.Fields{
		"page_count":    result.PageCount,
		"pages_fetched": result.PagesFetched,
		"links":         len(result.URLs),
		"truncated":     result.Truncated,
	})
	return result, nil
}

// CrawlPage returns the listing URLs of a single result page.
func (c *Crawler) CrawlPage(ctx context.Context, query domain.SearchQuery, page int) ([]string, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "OlxCrawler"})

	pageURL, rejected := c.urls.BuildSearchURL(query, page)
	logRejections(logger, rejected)

	doc, err := fetchDocument(ctx, c.fetcher, pageURL)
	if err != nil {
		return nil, err
	}
	urls, _, err := c.parseOffers(doc, pageURL)
	if err != nil {
		return nil, err
	}
	return urls, nil
}

// parseOffers returns the whitelisted listing URLs of a result page, skipping the
// featured slots. empty is set when the page carries the no-results marker.
func (c *Crawler) parseOffers(doc *goquery.Document, pageURL string) (urls []string, empty bool, err error) {
	if doc.Find(emptyResultsSelector).Length() > 0 {
		return nil, true, nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, false, fmt.Errorf("parse page url %s: %w", pageURL, err)
	}

	doc.Find(offerSelector).Each(func(i int, s *goquery.Selection) {
		if i < c.featuredOffers {
			return
		}
		if u, ok := c.resolveOfferURL(s, base); ok {
			urls = append(urls, u)
		}
	})
	return urls, false, nil
}

func (c *Crawler) resolveOfferURL(offer *goquery.Selection, base *url.URL) (string, bool) {
	href, ok := offer.Find(offerAnchorSelector).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", false
	}
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if _, ok := c.allowedDomains[strings.ToLower(u.Hostname())]; !ok {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}

func parseAdsCount(doc *goquery.Document) int {
	targeting := parseTargetingPayload(doc)
	raw, ok := payloadString(targeting, targetingAdsCount)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(digitsOnly(raw))
	if err != nil {
		return 0
	}
	return n
}

func logRejections(logger port.LoggerPort, rejected []domain.FilterRejection) {
	for _, r := range rejected {
		logger.Warn("Search filter dropped", port.Fields{"filter": r.Key, "value": r.Value, "reason": r.Reason})
	}
}

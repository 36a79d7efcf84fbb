package olx

import (
	"context"
	"errors"
	"net/http"
	"olx-parser-service/internal/core/domain"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://www.olx.pl"

var featured = []string{
	"https://www.olx.pl/oferta/promo-a.html",
	"https://www.olx.pl/oferta/promo-b.html",
	"https://www.olx.pl/oferta/promo-c.html",
}

func withFeatured(hrefs ...string) []string {
	return append(append([]string(nil), featured...), hrefs...)
}

func newTestCrawler(f *fakeFetcher) (*Crawler, *URLBuilder) {
	urls := NewURLBuilder(testBaseURL)
	return NewCrawler(f, urls, []string{"olx.pl", "www.olx.pl"}, 3), urls
}

func TestCrawl_CollectsEveryPageInOrder(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery(domain.PriceFrom(1000))

	page1, _ := urls.BuildSearchURL(q, 1)
	page2, _ := urls.BuildSearchURL(q, 2)
	f.pages[page1] = searchPage(2, withFeatured(
		"https://www.olx.pl/oferta/mieszkanie-1.html#a1b2c3",
		"https://olx.pl/oferta/mieszkanie-2.html",
	)...)
	f.pages[page2] = searchPage(2, withFeatured(
		"https://www.olx.pl/oferta/mieszkanie-1.html#other",
		"/oferta/mieszkanie-3.html",
		"https://www.otodom.pl/oferta/mieszkanie-4.html",
		"",
	)...)

	result, err := c.Crawl(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.olx.pl/oferta/mieszkanie-1.html",
		"https://olx.pl/oferta/mieszkanie-2.html",
		"https://www.olx.pl/oferta/mieszkanie-3.html",
	}, result.URLs)
	assert.Equal(t, 2, result.PageCount)
	assert.Equal(t, 2, result.PagesFetched)
	assert.False(t, result.Truncated)
	assert.Empty(t, result.Rejected)
	assert.Equal(t, []string{page1, page2}, f.Calls(), "the first page is fetched once")
}

func TestCrawl_FirstPageFailure(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery()

	page1, _ := urls.BuildSearchURL(q, 1)
	f.statuses[page1] = http.StatusServiceUnavailable

	result, err := c.Crawl(context.Background(), q)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrPageUnavailable)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
}

func TestCrawl_RedirectCountsAsUnavailable(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery()

	page1, _ := urls.BuildSearchURL(q, 1)
	f.statuses[page1] = http.StatusMovedPermanently

	_, err := c.Crawl(context.Background(), q)
	assert.ErrorIs(t, err, domain.ErrPageUnavailable)
}

func TestCrawl_TransportErrorOnFirstPage(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery()

	page1, _ := urls.BuildSearchURL(q, 1)
	f.errs[page1] = errors.New("connection reset")

	_, err := c.Crawl(context.Background(), q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCrawl_LaterPageFailureReturnsPartialResult(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery()

	page1, _ := urls.BuildSearchURL(q, 1)
	page2, _ := urls.BuildSearchURL(q, 2)
	page3, _ := urls.BuildSearchURL(q, 3)
	f.pages[page1] = searchPage(4, withFeatured("https://www.olx.pl/oferta/a.html")...)
	f.pages[page2] = searchPage(4, withFeatured("https://www.olx.pl/oferta/b.html")...)
	f.statuses[page3] = http.StatusInternalServerError

	result, err := c.Crawl(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.Equal(t, 4, result.PageCount)
	assert.Equal(t, 2, result.PagesFetched)
	assert.Equal(t, []string{"https://www.olx.pl/oferta/a.html", "https://www.olx.pl/oferta/b.html"}, result.URLs)
	assert.Len(t, f.Calls(), 3)
}

func TestCrawl_MissingPageCountCrawlsFirstPageOnly(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery()

	page1, _ := urls.BuildSearchURL(q, 1)
	f.pages[page1] = searchPage(0, withFeatured("https://www.olx.pl/oferta/only.html")...)

	result, err := c.Crawl(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, result.PageCount)
	assert.Equal(t, []string{"https://www.olx.pl/oferta/only.html"}, result.URLs)
	assert.Equal(t, []string{page1}, f.Calls())
}

func TestCrawl_EmptyMarkerStopsCrawl(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery()

	page1, _ := urls.BuildSearchURL(q, 1)
	page2, _ := urls.BuildSearchURL(q, 2)
	f.pages[page1] = searchPage(3, withFeatured("https://www.olx.pl/oferta/a.html")...)
	f.pages[page2] = emptySearchPage()

	result, err := c.Crawl(context.Background(), q)
	require.NoError(t, err)

	assert.False(t, result.Truncated)
	assert.Equal(t, []string{"https://www.olx.pl/oferta/a.html"}, result.URLs)
	assert.Equal(t, []string{page1, page2}, f.Calls())
}

func TestCrawl_OnlyFeaturedOffers(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery()

	page1, _ := urls.BuildSearchURL(q, 1)
	f.pages[page1] = searchPage(1, featured[:2]...)

	result, err := c.Crawl(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, result.URLs)
}

func TestCrawl_ReportsRejectedFiltersAndAdsCount(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery(domain.Rooms(0), domain.PriceFrom(1000))

	page1, rejected := urls.BuildSearchURL(q, 1)
	require.Len(t, rejected, 1)
	body := searchPage(1, withFeatured("https://www.olx.pl/oferta/a.html")...)
	body = strings.Replace(body, "</head>", `<script>GPT.targeting = {"cat_l0":"nieruchomosci","ads_count":"1 234"};</script></head>`, 1)
	f.pages[page1] = body

	result, err := c.Crawl(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, domain.FilterRooms, result.Rejected[0].Key)
	assert.Equal(t, 1234, result.AdsCount)
}

func TestCrawlPage(t *testing.T) {
	f := newFakeFetcher()
	c, urls := newTestCrawler(f)
	q := gdanskRentQuery()

	page2, _ := urls.BuildSearchURL(q, 2)
	f.pages[page2] = searchPage(5, withFeatured("/oferta/x.html", "https://www.olx.pl/oferta/y.html")...)

	got, err := c.CrawlPage(context.Background(), q, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.olx.pl/oferta/x.html", "https://www.olx.pl/oferta/y.html"}, got)

	_, err = c.CrawlPage(context.Background(), q, 3)
	assert.ErrorIs(t, err, domain.ErrPageUnavailable)
}

func TestParsePageCount(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   int
		found  bool
	}{
		{"quoted number", `var d = {"page_count":"11","rows":40};`, 11, true},
		{"bare number", `var d = {"total":400,"page_count":7};`, 7, true},
		{"noise around digits", `window.ad = {"page_count":"1a1"};`, 11, true},
		{"no digits", `var d = {"page_count":"none"};`, 0, false},
		{"no marker", `var d = {"rows":40};`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><head><script>" + tt.script + "</script></head><body></body></html>"))
			require.NoError(t, err)

			got, found := parsePageCount(doc)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	text := `var x = {"pageView":{"ad_id":"1","note":"a } b {","nested":{"k":"v\"}"}},"rest":1};`

	got, ok := extractJSONObject(text, "pageView")
	require.True(t, ok)
	assert.Equal(t, `{"ad_id":"1","note":"a } b {","nested":{"k":"v\"}"}}`, got)

	_, ok = extractJSONObject(text, "missing")
	assert.False(t, ok)

	_, ok = extractJSONObject(`GPT.targeting = {"a":1`, "GPT.targeting")
	assert.False(t, ok, "unbalanced object")
}

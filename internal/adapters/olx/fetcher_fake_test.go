package olx

import (
	"context"
	"fmt"
	"net/http"
	"olx-parser-service/internal/core/domain"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	statuses map[string]int
	errs     map[string]error
	calls    []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    make(map[string]string),
		statuses: make(map[string]int),
		errs:     make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*domain.FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)

	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if status, ok := f.statuses[url]; ok {
		return &domain.FetchResponse{URL: url, StatusCode: status}, nil
	}
	body, ok := f.pages[url]
	if !ok {
		return &domain.FetchResponse{URL: url, StatusCode: http.StatusNotFound}, nil
	}
	return &domain.FetchResponse{URL: url, StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// searchPage renders a result page. A pageCount below 1 leaves the page count script out.
func searchPage(pageCount int, hrefs ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><head>")
	if pageCount > 0 {
		sb.WriteString(`<script>var pageData = {"ad_list":{"page_count":"` + strconv.Itoa(pageCount) + `","total_ads":120}};</script>`)
	}
	sb.WriteString("</head><body><div id=\"offers_table\">")
	for i, href := range hrefs {
		fmt.Fprintf(&sb, `<div class="offer"><h3><a class="marginright5 link linkWithHash detailsLink" href="%s"><strong>Offer %d</strong></a></h3></div>`, href, i)
	}
	sb.WriteString("</div></body></html>")
	return sb.String()
}

func emptySearchPage() string {
	return `<html><head></head><body><div class="emptynew"><p>Nie znaleźliśmy ogłoszeń</p></div></body></html>`
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

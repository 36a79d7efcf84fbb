package usecase

import (
	"context"
	"errors"
	"olx-parser-service/internal/core/domain"
	"sync"
)

type fakeSource struct {
	crawlResult *domain.CrawlResult
	crawlErr    error
	records     map[string]*domain.ListingRecord
	extractErr  error
	extracted   []string
}

func (f *fakeSource) Crawl(context.Context, domain.SearchQuery) (*domain.CrawlResult, error) {
	return f.crawlResult, f.crawlErr
}

func (f *fakeSource) CrawlPage(context.Context, domain.SearchQuery, int) ([]string, error) {
	if f.crawlResult == nil {
		return nil, f.crawlErr
	}
	return f.crawlResult.URLs, nil
}

func (f *fakeSource) Extract(_ context.Context, url string) (*domain.ListingRecord, error) {
	f.extracted = append(f.extracted, url)
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.records[url], nil
}

func (f *fakeSource) ExtractMany(ctx context.Context, urls []string) []domain.ListingRecord {
	var out []domain.ListingRecord
	for _, u := range urls {
		if r, _ := f.Extract(ctx, u); r != nil {
			out = append(out, *r)
		}
	}
	return out
}

type fakeLinksQueue struct {
	links   []domain.ListingLink
	failFor map[string]bool
}

func (q *fakeLinksQueue) Enqueue(_ context.Context, link domain.ListingLink) error {
	if q.failFor[link.URL] {
		return errors.New("channel closed")
	}
	q.links = append(q.links, link)
	return nil
}

type fakeListingQueue struct {
	records []domain.ListingRecord
	err     error
}

func (q *fakeListingQueue) Enqueue(_ context.Context, record domain.ListingRecord) error {
	if q.err != nil {
		return q.err
	}
	q.records = append(q.records, record)
	return nil
}

type fakeStorage struct {
	saved   []domain.ListingRecord
	failFor map[string]bool
}

func (s *fakeStorage) Save(_ context.Context, record domain.ListingRecord) error {
	if s.failFor[record.URL] {
		return errors.New("duplicate key")
	}
	s.saved = append(s.saved, record)
	return nil
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []domain.CrawlRun
	err  error
}

func (r *fakeRuns) SaveRun(_ context.Context, run domain.CrawlRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeRuns) GetLastRun(_ context.Context, name string) (*domain.CrawlRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for i := len(r.runs) - 1; i >= 0; i-- {
		if r.runs[i].SearchName == name {
			run := r.runs[i]
			return &run, nil
		}
	}
	return nil, nil
}

func (r *fakeRuns) All() []domain.CrawlRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CrawlRun(nil), r.runs...)
}

func listing(url string) *domain.ListingRecord {
	return &domain.ListingRecord{ListingID: "id-" + url, URL: url, Title: "Title " + url, PosterName: "Anna"}
}

var testSearch = domain.NamedSearch{
	Name: "gdansk_flats_rent",
	Query: domain.SearchQuery{
		MainCategory: "nieruchomosci",
		Region:       "Gdańsk",
	},
}

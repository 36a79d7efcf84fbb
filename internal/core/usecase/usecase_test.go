package usecase

import (
	"context"
	"errors"
	"olx-parser-service/internal/core/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlAndEnqueueLinks(t *testing.T) {
	source := &fakeSource{crawlResult: &domain.CrawlResult{
		URLs:         []string{"https://www.olx.pl/a", "https://www.olx.pl/b", "https://www.olx.pl/c"},
		PageCount:    3,
		PagesFetched: 2,
		Truncated:    true,
	}}
	queue := &fakeLinksQueue{failFor: map[string]bool{"https://www.olx.pl/b": true}}
	runs := &fakeRuns{}
	uc := NewCrawlAndEnqueueLinksUseCase(source, queue, runs)
	runID := uuid.New()

	run, err := uc.Execute(context.Background(), runID, testSearch)
	require.NoError(t, err)

	require.Len(t, queue.links, 2)
	assert.Equal(t, "https://www.olx.pl/a", queue.links[0].URL)
	assert.Equal(t, 1, queue.links[0].Position)
	assert.Equal(t, "https://www.olx.pl/c", queue.links[1].URL)
	assert.Equal(t, 3, queue.links[1].Position)
	for _, l := range queue.links {
		assert.Equal(t, runID, l.RunID)
		assert.Equal(t, testSearch.Name, l.SearchName)
	}

	assert.Equal(t, 3, run.LinksFound)
	assert.Equal(t, 2, run.LinksEnqueued)
	assert.True(t, run.Truncated)
	assert.Equal(t, domain.RunModePipeline, run.Mode)
	require.NotNil(t, run.FinishedAt)
	assert.Nil(t, run.Error)

	saved := runs.All()
	require.Len(t, saved, 1)
	assert.Equal(t, runID, saved[0].RunID)
}

func TestCrawlAndEnqueueLinks_CrawlFailureIsRecorded(t *testing.T) {
	crawlErr := &domain.FetchError{URL: "https://www.olx.pl/?", StatusCode: 503, Err: domain.ErrPageUnavailable}
	source := &fakeSource{crawlErr: crawlErr}
	queue := &fakeLinksQueue{}
	runs := &fakeRuns{}
	uc := NewCrawlAndEnqueueLinksUseCase(source, queue, runs)

	run, err := uc.Execute(context.Background(), uuid.New(), testSearch)
	assert.ErrorIs(t, err, domain.ErrPageUnavailable)
	require.NotNil(t, run)
	require.NotNil(t, run.Error)
	assert.Empty(t, queue.links)

	saved := runs.All()
	require.Len(t, saved, 1)
	assert.NotNil(t, saved[0].Error)
}

func TestCrawlAndEnqueueLinks_RunStorageFailureDoesNotFailCrawl(t *testing.T) {
	source := &fakeSource{crawlResult: &domain.CrawlResult{URLs: []string{"https://www.olx.pl/a"}, PageCount: 1, PagesFetched: 1}}
	uc := NewCrawlAndEnqueueLinksUseCase(source, &fakeLinksQueue{}, &fakeRuns{err: errors.New("db down")})

	run, err := uc.Execute(context.Background(), uuid.New(), testSearch)
	require.NoError(t, err)
	assert.Equal(t, 1, run.LinksEnqueued)
}

func TestProcessLink(t *testing.T) {
	tests := []struct {
		name       string
		source     *fakeSource
		queueErr   error
		wantErr    bool
		wantQueued int
	}{
		{
			name:       "listing enqueued",
			source:     &fakeSource{records: map[string]*domain.ListingRecord{"https://www.olx.pl/a": listing("https://www.olx.pl/a")}},
			wantQueued: 1,
		},
		{
			name:       "gone listing is acknowledged",
			source:     &fakeSource{records: map[string]*domain.ListingRecord{}},
			wantQueued: 0,
		},
		{
			name:    "extraction error is returned",
			source:  &fakeSource{extractErr: context.Canceled},
			wantErr: true,
		},
		{
			name:     "queue failure is returned",
			source:   &fakeSource{records: map[string]*domain.ListingRecord{"https://www.olx.pl/a": listing("https://www.olx.pl/a")}},
			queueErr: errors.New("channel closed"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &fakeListingQueue{err: tt.queueErr}
			uc := NewProcessLinkUseCase(tt.source, queue)

			err := uc.Execute(context.Background(), domain.ListingLink{URL: "https://www.olx.pl/a", SearchName: "s"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, queue.records, tt.wantQueued)
		})
	}
}

func TestSaveListing_WritesEverySink(t *testing.T) {
	first := &fakeStorage{failFor: map[string]bool{"https://www.olx.pl/bad": true}}
	second := &fakeStorage{}
	uc := NewSaveListingUseCase(first, second)

	require.NoError(t, uc.Execute(context.Background(), *listing("https://www.olx.pl/a")))

	err := uc.Execute(context.Background(), *listing("https://www.olx.pl/bad"))
	assert.Error(t, err)

	assert.Len(t, first.saved, 1)
	assert.Len(t, second.saved, 2, "a failing sink does not block the others")
}

func TestScrapeSearch(t *testing.T) {
	source := &fakeSource{
		crawlResult: &domain.CrawlResult{
			URLs:         []string{"https://www.olx.pl/a", "https://www.olx.pl/gone", "https://www.olx.pl/bad", "https://www.olx.pl/c"},
			PageCount:    1,
			PagesFetched: 1,
		},
		records: map[string]*domain.ListingRecord{
			"https://www.olx.pl/a":   listing("https://www.olx.pl/a"),
			"https://www.olx.pl/bad": listing("https://www.olx.pl/bad"),
			"https://www.olx.pl/c":   listing("https://www.olx.pl/c"),
		},
	}
	storage := &fakeStorage{failFor: map[string]bool{"https://www.olx.pl/bad": true}}
	runs := &fakeRuns{}
	uc := NewScrapeSearchUseCase(source, NewSaveListingUseCase(storage), runs)

	run, err := uc.Execute(context.Background(), uuid.New(), testSearch)
	require.NoError(t, err)

	assert.Equal(t, source.crawlResult.URLs, source.extracted)
	require.Len(t, storage.saved, 2)
	assert.Equal(t, "https://www.olx.pl/a", storage.saved[0].URL)
	assert.Equal(t, "https://www.olx.pl/c", storage.saved[1].URL)

	assert.Equal(t, 4, run.LinksFound)
	assert.Equal(t, 2, run.ListingsSaved)
	assert.Equal(t, domain.RunModeBatch, run.Mode)
	assert.Len(t, runs.All(), 1)
}

func TestScrapeSearch_CrawlFailure(t *testing.T) {
	source := &fakeSource{crawlErr: errors.New("connection refused")}
	runs := &fakeRuns{}
	uc := NewScrapeSearchUseCase(source, NewSaveListingUseCase(&fakeStorage{}), runs)

	_, err := uc.Execute(context.Background(), uuid.New(), testSearch)
	assert.Error(t, err)
	assert.Empty(t, source.extracted)
	assert.Len(t, runs.All(), 1)
}

func TestGetLastRun(t *testing.T) {
	runs := &fakeRuns{}
	uc := NewGetLastRunUseCase(runs)

	run, err := uc.Execute(context.Background(), testSearch.Name)
	require.NoError(t, err)
	assert.Nil(t, run)

	first := domain.CrawlRun{RunID: uuid.New(), SearchName: testSearch.Name}
	second := domain.CrawlRun{RunID: uuid.New(), SearchName: testSearch.Name}
	require.NoError(t, runs.SaveRun(context.Background(), first))
	require.NoError(t, runs.SaveRun(context.Background(), second))

	run, err = uc.Execute(context.Background(), testSearch.Name)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, second.RunID, run.RunID)

	runs.err = errors.New("db down")
	_, err = uc.Execute(context.Background(), testSearch.Name)
	assert.Error(t, err)
}

func TestStartCrawl(t *testing.T) {
	source := &fakeSource{crawlResult: &domain.CrawlResult{URLs: []string{"https://www.olx.pl/a"}, PageCount: 1, PagesFetched: 1}}
	queue := &fakeLinksQueue{}
	runs := &fakeRuns{}
	uc := NewStartCrawlUseCase(context.Background(), NewCrawlAndEnqueueLinksUseCase(source, queue, runs))

	runID, err := uc.Execute(context.Background(), testSearch)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, runID)

	done := make(chan struct{})
	go func() {
		uc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("background crawl did not finish")
	}

	saved := runs.All()
	require.Len(t, saved, 1)
	assert.Equal(t, runID, saved[0].RunID)
	assert.Len(t, queue.links, 1)
}

func TestStartCrawl_RequiresName(t *testing.T) {
	uc := NewStartCrawlUseCase(context.Background(), NewCrawlAndEnqueueLinksUseCase(&fakeSource{}, &fakeLinksQueue{}, &fakeRuns{}))

	_, err := uc.Execute(context.Background(), domain.NamedSearch{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidSearch)
}

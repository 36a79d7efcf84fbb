package collyfetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"olx-parser-service/internal/contextkeys"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body><p>ua:%s</p></body></html>", r.UserAgent())
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T) *CollyFetcherAdapter {
	t.Helper()
	f, err := NewCollyFetcherAdapter(Config{RequestTimeout: 5 * time.Second}, contextkeys.LoggerFromContext(context.Background()))
	require.NoError(t, err)
	return f
}

func TestFetch_OK(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	resp, err := f.Fetch(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.Contains(t, string(resp.Body), "<p>ua:")
	assert.NotContains(t, string(resp.Body), "<p>ua:</p>", "a user agent is always sent")
}

func TestFetch_SameURLTwice(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	for i := 0; i < 2; i++ {
		resp, err := f.Fetch(context.Background(), srv.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestFetch_ErrorStatusIsAResponse(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	resp, err := f.Fetch(context.Background(), srv.URL+"/gone")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
}

func TestFetch_RedirectIsNotFollowed(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	resp, err := f.Fetch(context.Background(), srv.URL+"/moved")
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.False(t, resp.OK())
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := newTestServer(t)
	f := newTestFetcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, srv.URL+"/ok")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_DisallowedDomain(t *testing.T) {
	srv := newTestServer(t)
	f, err := NewCollyFetcherAdapter(Config{AllowedDomains: []string{"www.olx.pl"}}, contextkeys.LoggerFromContext(context.Background()))
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL+"/ok")
	assert.Error(t, err)
}

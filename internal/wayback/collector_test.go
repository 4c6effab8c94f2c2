package wayback

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulparsec/tulpar/internal/models"
)

// newCDXServer emulates the CDX API: a page count query followed by one
// text body per page.
func newCDXServer(t *testing.T, pages map[int]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("showNumPages") == "true" {
			fmt.Fprintf(w, "%d\n", len(pages))
			return
		}
		var page int
		fmt.Sscanf(q.Get("page"), "%d", &page)
		fmt.Fprint(w, pages[page])
	}))
}

func newCollector(baseURL string) *Collector {
	return NewCollector(Config{
		UserAgent: "test",
		Timeout:   5 * time.Second,
		BaseURL:   baseURL,
	}, zerolog.Nop())
}

func TestRunCollectsAllPages(t *testing.T) {
	srv := newCDXServer(t, map[int]string{
		0: "https://example.com/login\nhttps://api.example.com/v1/users\n",
		1: "https://example.com/old-admin\n",
	})
	defer srv.Close()

	state := models.NewScanState("example.com", t.TempDir())
	require.NoError(t, newCollector(srv.URL).Run(context.Background(), state))

	assert.Equal(t, []string{
		"https://api.example.com/v1/users",
		"https://example.com/login",
		"https://example.com/old-admin",
	}, state.ArchiveEndpoints())
	assert.Empty(t, state.Warnings())
}

func TestRunFiltersOutOfScopeURLs(t *testing.T) {
	srv := newCDXServer(t, map[int]string{
		0: "https://example.com/keep\nhttps://unrelated.net/drop\nhttps://example.com:8443/drop\n",
	})
	defer srv.Close()

	state := models.NewScanState("example.com", t.TempDir())
	require.NoError(t, newCollector(srv.URL).Run(context.Background(), state))

	assert.Equal(t, []string{"https://example.com/keep"}, state.ArchiveEndpoints())
}

func TestRunDeduplicatesSnapshots(t *testing.T) {
	srv := newCDXServer(t, map[int]string{
		0: "https://example.com/a\nhttps://example.com/a\n",
		1: "https://example.com/a\n",
	})
	defer srv.Close()

	state := models.NewScanState("example.com", t.TempDir())
	require.NoError(t, newCollector(srv.URL).Run(context.Background(), state))

	assert.Equal(t, []string{"https://example.com/a"}, state.ArchiveEndpoints())
}

func TestRunAbsorbsAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	state := models.NewScanState("example.com", t.TempDir())

	// The archive being down degrades the run, never aborts it.
	require.NoError(t, newCollector(srv.URL).Run(context.Background(), state))
	assert.Empty(t, state.ArchiveEndpoints())
	require.Len(t, state.Warnings(), 1)
	assert.Equal(t, "wayback", state.Warnings()[0].Stage)
}

func TestQueryShape(t *testing.T) {
	var gotQueries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQueries = append(gotQueries, r.URL.RawQuery)
		if r.URL.Query().Get("showNumPages") == "true" {
			fmt.Fprintln(w, "1")
			return
		}
	}))
	defer srv.Close()

	state := models.NewScanState("example.com", t.TempDir())
	require.NoError(t, newCollector(srv.URL).Run(context.Background(), state))

	require.Len(t, gotQueries, 2)
	for _, raw := range gotQueries {
		assert.Contains(t, raw, "url=%2A.example.com%2F%2A")
		assert.Contains(t, raw, "output=text")
		assert.Contains(t, raw, "fl=original")
		assert.Contains(t, raw, "collapse=urlkey")
	}
}

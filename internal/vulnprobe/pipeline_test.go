package vulnprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulparsec/tulpar/internal/models"
)

func newTestState(t *testing.T, serverURL string) *models.ScanState {
	t.Helper()
	state := models.NewScanState("example.com", t.TempDir())
	state.AddLiveHost(models.LiveHost{URL: serverURL, Scheme: "http", Host: "test", StatusCode: 200})
	return state
}

func totalPayloads() int {
	n := 0
	for _, class := range Classes() {
		n += len(Payloads(class))
	}
	return n
}

func TestRunIssuesFullCartesianProduct(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	params := []string{"q", "id"}
	prober := NewProber(Config{
		UserAgent: "test",
		Timeout:   5 * time.Second,
		Params:    params,
	}, zerolog.Nop())

	state := newTestState(t, srv.URL)
	require.NoError(t, prober.Run(context.Background(), state))

	want := int64(1 * totalPayloads() * len(params))
	assert.Equal(t, want, requests.Load(), "one request per host x payload x param")
}

func TestOpenRedirectDetection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery == "q=https://evil.com" {
			w.Header().Set("Location", "https://evil.com")
			w.WriteHeader(http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	prober := NewProber(Config{
		UserAgent: "test",
		Timeout:   5 * time.Second,
		Params:    []string{"q"},
	}, zerolog.Nop())

	state := newTestState(t, srv.URL)
	require.NoError(t, prober.Run(context.Background(), state))

	findings := state.Findings()
	require.Len(t, findings, 1)
	assert.Equal(t, models.VulnOpenRedirect, findings[0].Type)
	assert.Equal(t, models.SeverityMedium, findings[0].Severity)
	assert.Equal(t, "https://evil.com", findings[0].Payload)
	assert.Contains(t, findings[0].URL, "q=https://evil.com")
}

func TestPathTraversalDetection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery == "file=../../../../etc/passwd" {
			w.Write([]byte("root:x:0:0:root:/root:/bin/bash\n"))
			return
		}
		w.Write([]byte("nothing here"))
	}))
	defer srv.Close()

	prober := NewProber(Config{
		UserAgent: "test",
		Timeout:   5 * time.Second,
		Params:    []string{"file"},
	}, zerolog.Nop())

	state := newTestState(t, srv.URL)
	require.NoError(t, prober.Run(context.Background(), state))

	findings := state.Findings()
	require.Len(t, findings, 1)
	assert.Equal(t, models.VulnPathTraversal, findings[0].Type)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
}

func TestUnreachableHostYieldsNoFindings(t *testing.T) {
	prober := NewProber(Config{
		UserAgent: "test",
		Timeout:   500 * time.Millisecond,
		Params:    []string{"q"},
	}, zerolog.Nop())

	state := models.NewScanState("example.com", t.TempDir())
	state.AddLiveHost(models.LiveHost{URL: "http://127.0.0.1:1", Scheme: "http", Host: "dead", StatusCode: 200})

	require.NoError(t, prober.Run(context.Background(), state))
	assert.Empty(t, state.Findings())
}

func TestBuildTestURL(t *testing.T) {
	// Payloads pass through raw; only spaces become %20.
	u := BuildTestURL("http://example.com", "template", "<%= 7*7 %>")
	assert.Equal(t, "http://example.com?template=<%=%207*7%20%>", u)

	u = BuildTestURL("http://example.com", "file", "..%2f..%2f..%2fetc%2fpasswd")
	assert.Equal(t, "http://example.com?file=..%2f..%2f..%2fetc%2fpasswd", u)
}

package jsminer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulparsec/tulpar/internal/models"
)

func TestScriptSources(t *testing.T) {
	html := `<html><head>
		<script src="/static/app.js"></script>
		<SCRIPT type="text/javascript" SRC='https://cdn.example.com/lib.js'></SCRIPT>
		<script>inline();</script>
	</head></html>`

	assert.Equal(t, []string{"/static/app.js", "https://cdn.example.com/lib.js"}, ScriptSources(html))
}

func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		literal string
		want    string
	}{
		{"https://example.com/api", "absolute_url"},
		{"/api/v1/users", "absolute_path"},
		{"api/v1/users", "api_path"},
		{"graphql/query", "graphql_path"},
		{"ws://example.com/socket", "websocket_url"},
		{"search?q=test", "query_string"},
		{"users/profile/42", "segmented_path"},
		{"just a sentence", ""},
		{"const", ""},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.literal))
		})
	}
}

func TestMineScript(t *testing.T) {
	pageURL, _ := url.Parse("https://app.example.com/")
	body := `
		var api = "https://app.example.com/api/v1/users?id=1&page=2";
		var rooted = '/internal/search?q=x&q=y';
		var thirdParty = "https://tracker.adnetwork.io/pixel";
		var notAnEndpoint = "hello world";
	`

	endpoints := MineScript(pageURL, "example.com", body)
	require.Len(t, endpoints, 2)

	assert.Equal(t, "https://app.example.com/api/v1/users?id=1&page=2", endpoints[0].URL)
	assert.Equal(t, 2, endpoints[0].Parameters)
	assert.Equal(t, []string{"id", "page"}, endpoints[0].ParamNames)

	// Rooted paths resolve against the page URL.
	assert.Equal(t, "https://app.example.com/internal/search?q=x&q=y", endpoints[1].URL)
	assert.Equal(t, 1, endpoints[1].Parameters, "repeated parameter names count once")
	assert.Equal(t, []string{"q"}, endpoints[1].ParamNames)
}

func TestQueryParamNames(t *testing.T) {
	assert.Equal(t, []string{"id", "page"}, QueryParamNames("https://x.example.com/a?id=1&page=2"))
	assert.Equal(t, []string{"q"}, QueryParamNames("https://x.example.com/a?q=1&q=2"))
	assert.Equal(t, []string{"flag"}, QueryParamNames("https://x.example.com/a?flag"))
	assert.Empty(t, QueryParamNames("https://x.example.com/a"))
}

func TestExtractHost(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><script src="/app.js"></script>` +
			`<script src="https://cdn.thirdparty.net/lib.js"></script></html>`))
	})
	var scriptFetched bool
	mux.HandleFunc("/app.js", func(w http.ResponseWriter, r *http.Request) {
		scriptFetched = true
		w.Write([]byte(`fetch("/api/v1/items?sort=asc");`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	target := srv.Listener.Addr().String()

	miner := NewMiner(Config{UserAgent: "test", Timeout: 5 * time.Second}, zerolog.Nop())
	endpoints, err := miner.ExtractHost(context.Background(), srv.URL, target)
	require.NoError(t, err)

	assert.True(t, scriptFetched, "in-scope script must be fetched")
	require.Len(t, endpoints, 1)
	assert.Equal(t, srv.URL+"/api/v1/items?sort=asc", endpoints[0].URL)
	assert.Equal(t, []string{"sort"}, endpoints[0].ParamNames)
}

func TestRunRecordsWarningOnFailure(t *testing.T) {
	miner := NewMiner(Config{UserAgent: "test", Timeout: 500 * time.Millisecond}, zerolog.Nop())

	state := models.NewScanState("example.com", t.TempDir())
	state.AddLiveHost(models.LiveHost{URL: "http://127.0.0.1:1", Scheme: "http", Host: "dead"})

	require.NoError(t, miner.Run(context.Background(), state))
	assert.Empty(t, state.JSEndpoints())
	require.Len(t, state.Warnings(), 1)
	assert.Equal(t, "jsendpoints", state.Warnings()[0].Stage)
}

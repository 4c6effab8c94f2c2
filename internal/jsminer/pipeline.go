// Package jsminer implements the JavaScript endpoint-extraction stage: fetch
// each live host's root page, locate its script tags, fetch every in-scope
// script, and mine URL-shaped string literals out of the script bodies.
//
// Extraction is heuristic by design. False positives are acceptable because
// results feed a human triage report, not an automated exploit.
package jsminer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/tulparsec/tulpar/internal/models"
	"github.com/tulparsec/tulpar/internal/pacer"
	"github.com/tulparsec/tulpar/internal/pipeline"
)

const stageName = "jsendpoints"

// maxBodyBytes caps page and script downloads.
const maxBodyBytes = 10 * 1024 * 1024

// Config contains configuration for the extraction stage.
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	MaxConnections int
	Pacer          *pacer.Pacer
}

// Miner extracts endpoint candidates from live hosts' JavaScript.
type Miner struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewMiner builds a Miner sharing one pooled client across all fetches.
func NewMiner(cfg Config, log zerolog.Logger) *Miner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 50
	}
	return &Miner{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
				MaxIdleConns:        cfg.MaxConnections,
				MaxIdleConnsPerHost: cfg.MaxConnections,
				MaxConnsPerHost:     cfg.MaxConnections,
			},
		},
		log: log,
	}
}

// Run mines every live host concurrently, bounded by the connection
// ceiling. Per-host and per-script failures are logged and skipped; the
// stage itself never fails.
func (m *Miner) Run(ctx context.Context, state *models.ScanState) error {
	hosts := state.LiveHosts()
	if len(hosts) == 0 {
		m.log.Info().Msg("no live hosts to mine")
		return nil
	}

	workers := pool.New().WithMaxGoroutines(m.cfg.MaxConnections)
	for _, host := range hosts {
		host := host
		workers.Go(func() {
			endpoints, err := m.ExtractHost(ctx, host.URL, state.Target)
			if err != nil {
				state.Warn(stageName, fmt.Sprintf("extraction failed for %s: %v", host.URL, err))
				m.log.Warn().Str("url", host.URL).Err(err).Msg("endpoint extraction failed")
				return
			}
			for _, e := range endpoints {
				state.AddJSEndpoint(e)
				m.log.Info().
					Str("endpoint", e.URL).
					Int("parameters", e.Parameters).
					Strs("param_names", e.ParamNames).
					Msg("js endpoint")
			}
		})
	}
	workers.Wait()

	m.log.Info().Int("endpoints", len(state.JSEndpoints())).Msg("js mining complete")
	return nil
}

// ExtractHost fetches the host's root page and mines all of its in-scope
// scripts. Results are append-only and not deduplicated across scripts.
func (m *Miner) ExtractHost(ctx context.Context, pageRawURL, target string) ([]models.JSEndpoint, error) {
	if err := m.cfg.Pacer.Wait(ctx); err != nil {
		return nil, err
	}

	pageURL, err := url.Parse(pageRawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url: %w", err)
	}

	html, status, err := m.fetch(ctx, pageRawURL)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("page returned status %d", status)
	}

	var out []models.JSEndpoint
	for _, scriptRef := range ScriptSources(html) {
		scriptURL, err := resolve(pageURL, scriptRef)
		if err != nil {
			m.log.Warn().Str("script", scriptRef).Err(err).Msg("unresolvable script src")
			continue
		}
		// Out-of-scope scripts (CDNs, third parties) are never fetched.
		if !pipeline.InScope(scriptURL.Host, target) {
			continue
		}

		if err := m.cfg.Pacer.Wait(ctx); err != nil {
			return out, err
		}
		body, status, err := m.fetch(ctx, scriptURL.String())
		if err != nil {
			m.log.Warn().Str("script", scriptURL.String()).Err(err).Msg("script fetch failed")
			continue
		}
		if status >= 400 {
			m.log.Warn().Str("script", scriptURL.String()).Int("status", status).Msg("script fetch rejected")
			continue
		}

		out = append(out, MineScript(pageURL, target, body)...)
	}
	return out, nil
}

// ScriptSources returns the raw src attribute of every script tag in html.
func ScriptSources(html string) []string {
	var out []string
	for _, match := range scriptSrcPattern.FindAllStringSubmatch(html, -1) {
		if match[1] != "" {
			out = append(out, match[1])
		}
	}
	return out
}

// MineScript extracts endpoint candidates from one script body.
// Every quoted string literal is classified against the ordered shape rules;
// accepted literals are resolved against the page URL when rooted, then
// scope-filtered, then parsed for query parameter names.
func MineScript(pageURL *url.URL, target, body string) []models.JSEndpoint {
	var out []models.JSEndpoint
	for _, match := range stringLiteralPattern.FindAllStringSubmatch(body, -1) {
		literal := match[1]
		if classify(literal) == "" {
			continue
		}

		candidate := literal
		if strings.HasPrefix(candidate, "/") {
			resolved, err := resolve(pageURL, candidate)
			if err != nil {
				continue
			}
			candidate = resolved.String()
		}

		if !pipeline.URLInScope(candidate, target) {
			continue
		}

		names := QueryParamNames(candidate)
		out = append(out, models.JSEndpoint{
			URL:        candidate,
			Parameters: len(names),
			ParamNames: names,
		})
	}
	return out
}

// QueryParamNames returns the unique query parameter names of raw in their
// order of first appearance. Unparseable URLs yield an empty list.
func QueryParamNames(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return []string{}
	}

	seen := make(map[string]struct{})
	names := []string{}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		name := pair
		if i := strings.Index(pair, "="); i >= 0 {
			name = pair[:i]
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// fetch GETs raw and returns its body (capped) and status code.
func (m *Miner) fetch(ctx context.Context, raw string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", m.cfg.UserAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

// resolve resolves ref against base the way a browser would.
func resolve(base *url.URL, ref string) (*url.URL, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(r), nil
}

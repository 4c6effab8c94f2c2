// Package wayback implements the historical-archive collection stage. It
// pages lazily through the Wayback Machine CDX snapshot API and filters the
// returned URLs to the target domain.
package wayback

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tulparsec/tulpar/internal/models"
	"github.com/tulparsec/tulpar/internal/pacer"
	"github.com/tulparsec/tulpar/internal/pipeline"
)

const stageName = "wayback"

// DefaultBaseURL is the public CDX endpoint.
const DefaultBaseURL = "https://web.archive.org/cdx/search/cdx"

// Config contains configuration for the archive collection stage.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Pacer     *pacer.Pacer
	// BaseURL overrides the CDX endpoint; tests point it at a local server.
	BaseURL string
}

// Collector queries the CDX API for a target domain.
type Collector struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewCollector builds a Collector.
func NewCollector(cfg Config, log zerolog.Logger) *Collector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Collector{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Run collects archive endpoints into state. A failure to reach or iterate
// the API at all is absorbed into a warning and yields an empty set — this
// stage never aborts the pipeline.
func (c *Collector) Run(ctx context.Context, state *models.ScanState) error {
	err := c.Snapshots(ctx, state.Target, func(snapshotURL string) error {
		if err := c.cfg.Pacer.Wait(ctx); err != nil {
			return err
		}
		if !pipeline.URLInScope(snapshotURL, state.Target) {
			return nil
		}
		if state.AddArchiveEndpoint(snapshotURL) {
			c.log.Info().Str("endpoint", snapshotURL).Msg("wayback endpoint")
		}
		return nil
	})
	if err != nil {
		state.Warn(stageName, fmt.Sprintf("archive collection failed: %v", err))
		c.log.Error().Err(err).Msg("wayback collection failed")
	}

	c.log.Info().Int("endpoints", len(state.ArchiveEndpoints())).Msg("wayback collection complete")
	return nil
}

// Snapshots pages through the CDX API for domain, invoking fn once per
// snapshot URL. Pagination is lazy: each page is streamed line-by-line and
// the next page is only requested after the previous one is fully consumed.
// Per-line anomalies are skipped; fn's error aborts iteration.
func (c *Collector) Snapshots(ctx context.Context, domain string, fn func(string) error) error {
	pages, err := c.pageCount(ctx, domain)
	if err != nil {
		return err
	}

	for page := 0; page < pages; page++ {
		if err := c.streamPage(ctx, domain, page, fn); err != nil {
			return err
		}
	}
	return nil
}

// pageCount asks the CDX API how many pages the query spans.
func (c *Collector) pageCount(ctx context.Context, domain string) (int, error) {
	q := c.query(domain)
	q.Set("showNumPages", "true")

	body, err := c.get(ctx, q)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 64))
	if err != nil {
		return 0, fmt.Errorf("reading page count: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing page count %q: %w", strings.TrimSpace(string(data)), err)
	}
	return n, nil
}

// streamPage fetches one result page and feeds each snapshot URL to fn.
func (c *Collector) streamPage(ctx context.Context, domain string, page int, fn func(string) error) error {
	q := c.query(domain)
	q.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, q)
	if err != nil {
		return err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		// A mid-page transport failure still keeps everything already seen.
		return fmt.Errorf("streaming page %d: %w", page, err)
	}
	return nil
}

// query builds the base CDX query for domain: original URLs only, one line
// per unique URL key, subdomains included.
func (c *Collector) query(domain string) url.Values {
	q := url.Values{}
	q.Set("url", "*."+domain+"/*")
	q.Set("output", "text")
	q.Set("fl", "original")
	q.Set("collapse", "urlkey")
	return q
}

// get issues the CDX request and returns the response body on a 2xx status.
func (c *Collector) get(ctx context.Context, q url.Values) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("cdx api returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Package vulnprobe implements the payload-based vulnerability probing
// stage. Every live host is tested with every payload of every class
// through every candidate parameter, serially and rate-limited, and
// responses are matched against class-specific indicators.
package vulnprobe

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

	"github.com/tulparsec/tulpar/internal/models"
	"github.com/tulparsec/tulpar/internal/pacer"
)

const stageName = "vulnprobe"

const maxBodyBytes = 2 << 20

// Config contains configuration for the probing stage.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Pacer     *pacer.Pacer
	// Params overrides the injected parameter names; empty means DefaultParams.
	Params []string
}

// Prober runs payload probes against live hosts.
type Prober struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewProber builds a Prober. The underlying client never follows
// redirects: the open-redirect matcher needs the 3xx response itself.
func NewProber(cfg Config, log zerolog.Logger) *Prober {
	if len(cfg.Params) == 0 {
		cfg.Params = DefaultParams
	}
	return &Prober{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		log: log,
	}
}

// Run probes every live host in state and records findings. Individual
// request failures are logged and skipped; the stage itself always
// succeeds.
func (p *Prober) Run(ctx context.Context, state *models.ScanState) error {
	hosts := state.LiveHosts()
	p.log.Info().Int("hosts", len(hosts)).Msg("starting vulnerability probes")

	for _, host := range hosts {
		for _, class := range Classes() {
			for _, payload := range Payloads(class) {
				for _, param := range p.cfg.Params {
					if err := ctx.Err(); err != nil {
						return err
					}
					p.probe(ctx, state, host.URL, class, payload, param)
				}
			}
		}
	}

	p.log.Info().Int("findings", len(state.Findings())).Msg("vulnerability probes complete")
	return nil
}

// probe issues a single payload request and records a finding on a match.
func (p *Prober) probe(ctx context.Context, state *models.ScanState, baseURL string, class models.VulnType, payload, param string) {
	testURL := BuildTestURL(baseURL, param, payload)

	if err := p.cfg.Pacer.Wait(ctx); err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, testURL, nil)
	if err != nil {
		p.log.Debug().Err(err).Str("url", testURL).Msg("building probe request")
		return
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug().Err(err).Str("url", testURL).Msg("probe request failed")
		return
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	if err != nil {
		p.log.Debug().Err(err).Str("url", testURL).Msg("reading probe response")
		return
	}

	if Match(class, resp.StatusCode, resp.Header.Get("Location"), string(body)) {
		finding := models.Finding{
			Type:     class,
			URL:      testURL,
			Payload:  payload,
			Severity: SeverityFor(class),
		}
		state.AddFinding(finding)
		p.log.Warn().
			Str("type", string(class)).
			Str("severity", string(finding.Severity)).
			Str("url", testURL).
			Msg("potential vulnerability")
	}
}

// BuildTestURL appends the payload as a raw query string on the base URL.
// Payloads are deliberately NOT percent-encoded — encoded traversal
// sequences like "..%2f" must reach the server byte-for-byte. Spaces alone
// are escaped so the request line stays parseable.
func BuildTestURL(baseURL, param, payload string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Sprintf("%s?%s=%s", baseURL, param, escapeSpaces(payload))
	}
	u.RawQuery = param + "=" + escapeSpaces(payload)
	return u.String()
}

func escapeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "%20")
}

// Package liveness implements the reachability stage: for every candidate
// subdomain, determine whether it answers over http or https, preferring the
// first scheme that succeeds and never trying the other once one has.
package liveness

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/tulparsec/tulpar/internal/models"
	"github.com/tulparsec/tulpar/internal/pacer"
	"github.com/tulparsec/tulpar/internal/screenshot"
)

const stageName = "liveness"

// schemes is the fixed probe order. http is tried before https and the
// first success wins.
var schemes = []string{"http", "https"}

// Config contains configuration for the liveness stage.
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	MaxConnections int
	Pacer          *pacer.Pacer
	// Capturer is the opaque screenshot hook fired per live host.
	// Nil disables capture.
	Capturer screenshot.Capturer
}

// Prober probes subdomains for reachability.
type Prober struct {
	cfg      Config
	client   *http.Client
	fallback *retryablehttp.Client
	log      zerolog.Logger
}

// NewProber builds a Prober with the bulk async-style client and the
// synchronous fallback client.
//
// The bulk client skips TLS verification and follows redirects; the fallback
// client additionally retries transport errors — it exists for hosts that
// reject the primary client's configuration.
func NewProber(cfg Config, log zerolog.Logger) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 50
	}

	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		MaxIdleConns:        cfg.MaxConnections,
		MaxIdleConnsPerHost: cfg.MaxConnections,
		MaxConnsPerHost:     cfg.MaxConnections,
	}

	fallback := retryablehttp.NewClient()
	fallback.RetryMax = 1
	fallback.Logger = nil
	fallback.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	return &Prober{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		fallback: fallback,
		log:      log,
	}
}

// Run probes every subdomain in state concurrently, bounded by the
// connection ceiling, and records confirmed live hosts. Per-host failures
// are logged and absorbed; the stage itself never fails.
func (p *Prober) Run(ctx context.Context, state *models.ScanState) error {
	subs := state.Subdomains()
	if len(subs) == 0 {
		p.log.Info().Msg("no subdomains to probe")
		return nil
	}

	workers := pool.New().WithMaxGoroutines(p.cfg.MaxConnections)
	for _, sub := range subs {
		sub := sub
		workers.Go(func() {
			if err := p.cfg.Pacer.Wait(ctx); err != nil {
				return
			}
			host := p.Probe(ctx, sub)
			if host == nil {
				return
			}
			if !state.AddLiveHost(*host) {
				return
			}
			p.log.Info().
				Str("url", host.URL).
				Int("status", host.StatusCode).
				Bool("fallback", host.ViaFallback).
				Msg("live host")
			p.captureScreenshot(ctx, state, host.URL)
		})
	}
	workers.Wait()

	p.log.Info().Int("live", len(state.LiveHosts())).Msg("liveness probing complete")
	return nil
}

// Probe checks one subdomain. It tries http then https with the bulk
// client; if both fail it retries both schemes with the fallback client.
// Returns nil when all four attempts fail.
func (p *Prober) Probe(ctx context.Context, subdomain string) *models.LiveHost {
	for _, scheme := range schemes {
		target := fmt.Sprintf("%s://%s", scheme, subdomain)
		status, err := p.get(ctx, target)
		if err != nil {
			p.log.Warn().Str("url", target).Err(err).Msg("liveness check failed")
			continue
		}
		if status < 400 {
			return &models.LiveHost{
				URL:        target,
				Scheme:     scheme,
				Host:       subdomain,
				StatusCode: status,
			}
		}
		p.log.Warn().Str("url", target).Int("status", status).Msg("liveness check rejected")
	}

	// Secondary pass: synchronous fallback client, HEAD with redirects.
	for _, scheme := range schemes {
		target := fmt.Sprintf("%s://%s", scheme, subdomain)
		status, err := p.head(ctx, target)
		if err != nil {
			p.log.Warn().Str("url", target).Err(err).Msg("fallback liveness check failed")
			continue
		}
		if status < 400 {
			return &models.LiveHost{
				URL:         target,
				Scheme:      scheme,
				Host:        subdomain,
				StatusCode:  status,
				ViaFallback: true,
			}
		}
		p.log.Warn().Str("url", target).Int("status", status).Msg("fallback liveness check rejected")
	}

	return nil
}

// get issues a GET with the bulk client and returns the response status.
func (p *Prober) get(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 32*1024))
	return resp.StatusCode, nil
}

// head issues a HEAD with the fallback client and returns the response status.
func (p *Prober) head(ctx context.Context, target string) (int, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.fallback.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// captureScreenshot fires the opaque capture hook. Failure is logged only —
// the host stays live either way.
func (p *Prober) captureScreenshot(ctx context.Context, state *models.ScanState, liveURL string) {
	if p.cfg.Capturer == nil {
		return
	}
	name, err := p.cfg.Capturer.Capture(ctx, liveURL)
	if err != nil {
		state.Warn(stageName, fmt.Sprintf("screenshot failed for %s: %v", liveURL, err))
		p.log.Warn().Str("url", liveURL).Err(err).Msg("screenshot capture failed")
		return
	}
	state.AddScreenshot(liveURL, name)
	p.log.Info().Str("url", liveURL).Str("file", name).Msg("screenshot captured")
}

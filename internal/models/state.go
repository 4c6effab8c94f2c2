package models

import (
	"sort"
	"sync"
	"time"
)

// StageWarning records a recoverable failure absorbed by a stage.
// Stages never propagate per-item errors — they land here so the run
// summary can report what was recovered versus silently lost.
type StageWarning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ScanState is the single mutable accumulator for one pipeline run.
// The orchestrator owns it and passes it by reference into every stage.
//
// Stages append concurrently from many in-flight workers, so every
// collection is guarded by the mutex — append helpers below are the only
// sanctioned write path.
type ScanState struct {
	Target    string
	OutputDir string
	StartedAt time.Time

	mu               sync.Mutex
	subdomains       map[string]struct{}
	liveHosts        []LiveHost
	liveSeen         map[string]struct{}
	jsEndpoints      []JSEndpoint
	archiveEndpoints map[string]struct{}
	findings         []Finding
	screenshots      map[string]string
	warnings         []StageWarning
}

// NewScanState creates an empty scan state for target.
func NewScanState(target, outputDir string) *ScanState {
	return &ScanState{
		Target:           target,
		OutputDir:        outputDir,
		StartedAt:        time.Now(),
		subdomains:       make(map[string]struct{}),
		liveSeen:         make(map[string]struct{}),
		archiveEndpoints: make(map[string]struct{}),
		screenshots:      make(map[string]string),
	}
}

// AddSubdomain inserts a hostname into the subdomain set.
// Returns true when the hostname was not already present.
func (s *ScanState) AddSubdomain(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subdomains[name]; ok {
		return false
	}
	s.subdomains[name] = struct{}{}
	return true
}

// Subdomains returns the subdomain set as a sorted slice.
func (s *ScanState) Subdomains() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.subdomains))
	for sub := range s.subdomains {
		out = append(out, sub)
	}
	sort.Strings(out)
	return out
}

// AddLiveHost records a confirmed-reachable host. The first scheme to
// succeed for a given hostname wins; later inserts for the same hostname
// are dropped and reported as false.
func (s *ScanState) AddLiveHost(h LiveHost) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveSeen[h.Host]; ok {
		return false
	}
	s.liveSeen[h.Host] = struct{}{}
	s.liveHosts = append(s.liveHosts, h)
	return true
}

// LiveHosts returns a copy of the live host list.
func (s *ScanState) LiveHosts() []LiveHost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LiveHost, len(s.liveHosts))
	copy(out, s.liveHosts)
	return out
}

// AddJSEndpoint appends a mined endpoint. The list is deliberately
// append-only: the same endpoint found in two scripts appears twice.
func (s *ScanState) AddJSEndpoint(e JSEndpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jsEndpoints = append(s.jsEndpoints, e)
}

// JSEndpoints returns a copy of the mined endpoint list.
func (s *ScanState) JSEndpoints() []JSEndpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JSEndpoint, len(s.jsEndpoints))
	copy(out, s.jsEndpoints)
	return out
}

// AddArchiveEndpoint inserts an archive URL into the endpoint set.
func (s *ScanState) AddArchiveEndpoint(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.archiveEndpoints[url]; ok {
		return false
	}
	s.archiveEndpoints[url] = struct{}{}
	return true
}

// ArchiveEndpoints returns the archive endpoint set as a sorted slice.
func (s *ScanState) ArchiveEndpoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.archiveEndpoints))
	for url := range s.archiveEndpoints {
		out = append(out, url)
	}
	sort.Strings(out)
	return out
}

// AddFinding appends a vulnerability finding (append-only, no dedup).
func (s *ScanState) AddFinding(f Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, f)
}

// Findings returns a copy of the finding list.
func (s *ScanState) Findings() []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

// AddScreenshot records a captured screenshot file for a live URL.
func (s *ScanState) AddScreenshot(url, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenshots[url] = filename
}

// Screenshots returns a copy of the url -> filename map.
func (s *ScanState) Screenshots() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.screenshots))
	for k, v := range s.screenshots {
		out[k] = v
	}
	return out
}

// Warn records a recoverable stage failure.
func (s *ScanState) Warn(stage, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, StageWarning{Stage: stage, Message: message})
}

// Warnings returns a copy of all recorded stage warnings.
func (s *ScanState) Warnings() []StageWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StageWarning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Report is the terminal immutable snapshot of a run, serialized exactly
// once after all stages complete.
type Report struct {
	Domain           string            `json:"domain"`
	GeneratedAt      time.Time         `json:"generated_at"`
	Subdomains       []string          `json:"subdomains"`
	LiveSubdomains   []string          `json:"live_subdomains"`
	WaybackEndpoints []string          `json:"wayback_endpoints"`
	JSEndpoints      []JSEndpoint      `json:"js_endpoints"`
	Vulnerabilities  []Finding         `json:"vulnerabilities"`
	Screenshots      map[string]string `json:"screenshots"`
}

// Snapshot materializes the current state into a Report.
func (s *ScanState) Snapshot(now time.Time) *Report {
	liveURLs := make([]string, 0)
	for _, h := range s.LiveHosts() {
		liveURLs = append(liveURLs, h.URL)
	}
	r := &Report{
		Domain:           s.Target,
		GeneratedAt:      now,
		Subdomains:       s.Subdomains(),
		LiveSubdomains:   liveURLs,
		WaybackEndpoints: s.ArchiveEndpoints(),
		JSEndpoints:      s.JSEndpoints(),
		Vulnerabilities:  s.Findings(),
		Screenshots:      s.Screenshots(),
	}
	if r.Subdomains == nil {
		r.Subdomains = []string{}
	}
	if r.WaybackEndpoints == nil {
		r.WaybackEndpoints = []string{}
	}
	if r.JSEndpoints == nil {
		r.JSEndpoints = []JSEndpoint{}
	}
	if r.Vulnerabilities == nil {
		r.Vulnerabilities = []Finding{}
	}
	return r
}

package models

// ScanStatus represents the current state of a scan
type ScanStatus string

const (
	StatusPending  ScanStatus = "pending"
	StatusRunning  ScanStatus = "running"
	StatusComplete ScanStatus = "complete"
	StatusFailed   ScanStatus = "failed"
)

// Severity represents the severity level of a vulnerability finding
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// VulnType identifies the class of a payload-based vulnerability probe
type VulnType string

const (
	VulnOpenRedirect  VulnType = "openredirect"
	VulnPathTraversal VulnType = "pathtraversal"
	VulnXSS           VulnType = "xss"
	VulnSSTI          VulnType = "ssti"
)

// LiveHost is a subdomain confirmed reachable over one scheme.
// At most one LiveHost exists per subdomain — the first scheme that
// answers with a non-error status wins and the other is never tried.
type LiveHost struct {
	URL         string `json:"url"`    // "{scheme}://{host}"
	Scheme      string `json:"scheme"` // "http" or "https"
	Host        string `json:"host"`
	StatusCode  int    `json:"status_code"`
	ViaFallback bool   `json:"via_fallback,omitempty"`
}

// JSEndpoint is a URL mined from a JavaScript source file, with the
// ordered list of unique query parameter names it carries.
type JSEndpoint struct {
	URL        string   `json:"url"`
	Parameters int      `json:"parameters"`
	ParamNames []string `json:"param_names"`
}

// Finding records a match between a probe payload and a
// vulnerability-indicative response pattern.
type Finding struct {
	Type     VulnType `json:"type"`
	URL      string   `json:"url"`
	Payload  string   `json:"payload"`
	Severity Severity `json:"severity"`
}

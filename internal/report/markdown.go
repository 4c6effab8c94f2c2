package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/tulparsec/tulpar/internal/models"
)

// severityOrder defines the display order for finding sections (most severe first).
var severityOrder = []models.Severity{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityLow,
	models.SeverityInfo,
}

// WriteMarkdown generates a markdown summary of the run and writes it to
// the specified output path.
func WriteMarkdown(r *models.Report, outputPath string) error {
	var b strings.Builder

	// Header
	b.WriteString("# Recon Report\n\n")
	b.WriteString(fmt.Sprintf("**Target:** %s\n", r.Domain))
	b.WriteString(fmt.Sprintf("**Date:** %s\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf(
		"**Subdomains:** %d | **Live:** %d | **JS endpoints:** %d | **Archive URLs:** %d | **Findings:** %d\n\n",
		len(r.Subdomains), len(r.LiveSubdomains), len(r.JSEndpoints),
		len(r.WaybackEndpoints), len(r.Vulnerabilities)))

	// Live hosts table
	b.WriteString("## Live Hosts\n\n")
	if len(r.LiveSubdomains) > 0 {
		b.WriteString("| URL | Screenshot |\n")
		b.WriteString("|-----|------------|\n")
		for _, u := range r.LiveSubdomains {
			shot := "-"
			if f, ok := r.Screenshots[u]; ok {
				shot = f
			}
			b.WriteString(fmt.Sprintf("| %s | %s |\n", u, shot))
		}
	} else {
		b.WriteString("No live hosts discovered.\n")
	}
	b.WriteString("\n")

	// JS-mined endpoints table
	b.WriteString("## JavaScript Endpoints\n\n")
	if len(r.JSEndpoints) > 0 {
		b.WriteString("| URL | Params | Param Names |\n")
		b.WriteString("|-----|--------|-------------|\n")
		for _, e := range r.JSEndpoints {
			names := "-"
			if len(e.ParamNames) > 0 {
				names = strings.Join(e.ParamNames, ", ")
			}
			b.WriteString(fmt.Sprintf("| %s | %d | %s |\n", e.URL, e.Parameters, names))
		}
	} else {
		b.WriteString("No endpoints mined from JavaScript.\n")
	}
	b.WriteString("\n")

	// One findings section per severity in priority order
	bySeverity := findingsBySeverity(r.Vulnerabilities)
	for _, sev := range severityOrder {
		findings := bySeverity[sev]
		if len(findings) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("## %s Findings\n\n", titleCase(string(sev))))
		b.WriteString("| Type | URL | Payload |\n")
		b.WriteString("|------|-----|--------|\n")
		for _, f := range findings {
			b.WriteString(fmt.Sprintf("| %s | %s | `%s` |\n", f.Type, f.URL, f.Payload))
		}
		b.WriteString("\n")
	}

	// Summary section
	b.WriteString("## Summary\n\n")
	b.WriteString(fmt.Sprintf("- **Subdomains:** %d\n", len(r.Subdomains)))
	b.WriteString(fmt.Sprintf("- **Live hosts:** %d\n", len(r.LiveSubdomains)))
	b.WriteString(fmt.Sprintf("- **JS endpoints:** %d\n", len(r.JSEndpoints)))
	b.WriteString(fmt.Sprintf("- **Archive URLs:** %d\n", len(r.WaybackEndpoints)))
	b.WriteString(fmt.Sprintf("- **Findings:** %d\n", len(r.Vulnerabilities)))
	b.WriteString(fmt.Sprintf("- **Screenshots:** %d\n", len(r.Screenshots)))

	if err := os.WriteFile(outputPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing summary to %s: %w", outputPath, err)
	}
	return nil
}

// findingsBySeverity partitions a finding slice into a map keyed by severity.
func findingsBySeverity(findings []models.Finding) map[models.Severity][]models.Finding {
	groups := make(map[models.Severity][]models.Finding)
	for _, f := range findings {
		groups[f.Severity] = append(groups[f.Severity], f)
	}
	return groups
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

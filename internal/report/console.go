package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/tulparsec/tulpar/internal/models"
)

const separator = "────────────────────────────────────────────────────────────────────────"

// severityColors maps finding severities to their console color.
var severityColors = map[models.Severity]*color.Color{
	models.SeverityCritical: color.New(color.FgRed, color.Bold),
	models.SeverityHigh:     color.New(color.FgRed),
	models.SeverityMedium:   color.New(color.FgYellow),
	models.SeverityLow:      color.New(color.FgCyan),
	models.SeverityInfo:     color.New(color.FgWhite),
}

// PrintConsole renders the full result set as formatted tables on stdout.
func PrintConsole(r *models.Report, warnings []models.StageWarning) {
	printSubdomainTable(r)
	printEndpointTable(r)
	printFindings(r)
	printWarnings(warnings)
	printSummary(r)
}

// printSubdomainTable lists every discovered subdomain with its liveness.
func printSubdomainTable(r *models.Report) {
	liveByHost := make(map[string]string, len(r.LiveSubdomains))
	for _, u := range r.LiveSubdomains {
		host := u
		if i := strings.Index(u, "://"); i >= 0 {
			host = u[i+3:]
		}
		liveByHost[host] = u
	}

	fmt.Printf("\nSubdomains for %s\n", r.Domain)
	fmt.Println(separator)
	fmt.Printf("  %-48s  %s\n", "Subdomain", "Live URL")
	fmt.Println(separator)
	for _, sub := range r.Subdomains {
		live := "-"
		if u, ok := liveByHost[sub]; ok {
			live = u
		}
		fmt.Printf("  %-48s  %s\n", sub, live)
	}
	fmt.Println(separator)
	fmt.Printf("Total: %d subdomain(s), %d live\n", len(r.Subdomains), len(r.LiveSubdomains))
}

// printEndpointTable combines archive URLs and JS-mined endpoints into one
// table with a source column.
func printEndpointTable(r *models.Report) {
	if len(r.WaybackEndpoints) == 0 && len(r.JSEndpoints) == 0 {
		return
	}

	fmt.Printf("\nEndpoints\n")
	fmt.Println(separator)
	fmt.Printf("  %-10s  %-6s  %s\n", "Source", "Params", "URL")
	fmt.Println(separator)
	for _, e := range r.JSEndpoints {
		fmt.Printf("  %-10s  %-6d  %s\n", "javascript", e.Parameters, e.URL)
	}
	for _, u := range r.WaybackEndpoints {
		fmt.Printf("  %-10s  %-6s  %s\n", "wayback", "-", u)
	}
	fmt.Println(separator)
	fmt.Printf("Total: %d javascript, %d wayback\n", len(r.JSEndpoints), len(r.WaybackEndpoints))
}

// printFindings lists vulnerability findings with severity coloring.
func printFindings(r *models.Report) {
	if len(r.Vulnerabilities) == 0 {
		return
	}

	fmt.Printf("\nPotential Vulnerabilities\n")
	fmt.Println(separator)
	for _, f := range r.Vulnerabilities {
		c, ok := severityColors[f.Severity]
		if !ok {
			c = color.New(color.FgWhite)
		}
		c.Printf("  [%s] %s\n", strings.ToUpper(string(f.Severity)), f.Type)
		fmt.Printf("        URL:     %s\n", f.URL)
		fmt.Printf("        Payload: %s\n", f.Payload)
	}
	fmt.Println(separator)
}

// printWarnings lists recoverable failures absorbed during the run.
func printWarnings(warnings []models.StageWarning) {
	if len(warnings) == 0 {
		return
	}

	yellow := color.New(color.FgYellow)
	fmt.Printf("\nWarnings\n")
	fmt.Println(separator)
	for _, w := range warnings {
		yellow.Printf("  [!] %-12s %s\n", w.Stage+":", w.Message)
	}
	fmt.Println(separator)
}

// printSummary prints the final count line.
func printSummary(r *models.Report) {
	fmt.Println()
	fmt.Printf("[+] Results for %s:\n", r.Domain)
	fmt.Printf("    Subdomains:       %d\n", len(r.Subdomains))
	fmt.Printf("    Live hosts:       %d\n", len(r.LiveSubdomains))
	fmt.Printf("    JS endpoints:     %d\n", len(r.JSEndpoints))
	fmt.Printf("    Archive URLs:     %d\n", len(r.WaybackEndpoints))
	fmt.Printf("    Vulnerabilities:  %d\n", len(r.Vulnerabilities))
	fmt.Printf("    Screenshots:      %d\n", len(r.Screenshots))
}

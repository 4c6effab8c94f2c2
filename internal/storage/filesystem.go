package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// reportTimestampLayout matches the timestamp embedded in report filenames.
const reportTimestampLayout = "20060102_150405"

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]+`)

// SanitizeTarget replaces characters unsafe for filesystem paths.
// Allows alphanumeric, dots, and hyphens; everything else becomes underscore.
func SanitizeTarget(target string) string {
	return unsafePathChars.ReplaceAllString(target, "_")
}

// ReportPath generates the path for a run's JSON report.
// Format: {outputDir}/tulpar_output_{domain}_{YYYYMMDD}_{HHMMSS}.json
func ReportPath(outputDir, domain string, startedAt time.Time) string {
	name := fmt.Sprintf("tulpar_output_%s_%s.json",
		SanitizeTarget(domain), startedAt.Format(reportTimestampLayout))
	return filepath.Join(outputDir, name)
}

// SummaryPath generates the path for a run's markdown summary.
func SummaryPath(outputDir, domain string, startedAt time.Time) string {
	name := fmt.Sprintf("tulpar_summary_%s_%s.md",
		SanitizeTarget(domain), startedAt.Format(reportTimestampLayout))
	return filepath.Join(outputDir, name)
}

// SubfinderOutputPath generates the path the enumeration tool writes its
// full result file to.
func SubfinderOutputPath(outputDir, domain string) string {
	return filepath.Join(outputDir, fmt.Sprintf("subfinder_%s.txt", SanitizeTarget(domain)))
}

// EnsureDir creates a directory and all parent directories if they don't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

package vulnprobe

import "github.com/tulparsec/tulpar/internal/models"

// payloads maps each vulnerability class to its injection strings. Order
// within each list is the probe order.
var payloads = map[models.VulnType][]string{
	models.VulnOpenRedirect: {
		"https://evil.com",
		"//evil.com",
		"http://evil.com",
		"?redirect=https://evil.com",
		"?url=//evil.com",
	},
	models.VulnPathTraversal: {
		"../../../../etc/passwd",
		"..%2f..%2f..%2fetc%2fpasswd",
		"../../windows/win.ini",
		"%2e%2e%2f%2e%2e%2fwindows%2fwin.ini",
	},
	models.VulnXSS: {
		"<script>alert(1)</script>",
		"\"><img src=x onerror=alert(1)>",
		"javascript:alert(1)",
		"'-alert(1)-'",
	},
	models.VulnSSTI: {
		"{{7*7}}",
		"${7*7}",
		"<%= 7*7 %>",
		"{{ '7' * 7 }}",
	},
}

// DefaultParams is the built-in list of query parameter names to inject
// payloads through when the config does not supply its own.
var DefaultParams = []string{
	"q", "search", "id", "page", "redirect", "url", "path", "file", "template",
}

var severityByType = map[models.VulnType]models.Severity{
	models.VulnOpenRedirect:  models.SeverityMedium,
	models.VulnPathTraversal: models.SeverityHigh,
	models.VulnXSS:           models.SeverityHigh,
	models.VulnSSTI:          models.SeverityCritical,
}

// Classes returns the vulnerability classes in probe order.
func Classes() []models.VulnType {
	return []models.VulnType{
		models.VulnOpenRedirect,
		models.VulnPathTraversal,
		models.VulnXSS,
		models.VulnSSTI,
	}
}

// Payloads returns the payload list for a class.
func Payloads(t models.VulnType) []string {
	return payloads[t]
}

// SeverityFor returns the severity assigned to findings of a class.
func SeverityFor(t models.VulnType) models.Severity {
	return severityByType[t]
}

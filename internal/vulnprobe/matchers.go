package vulnprobe

import (
	"regexp"
	"strings"

	"github.com/tulparsec/tulpar/internal/models"
)

var evilHostRe = regexp.MustCompile(`https?://(www\.)?evil\.com`)

// Match reports whether a probe response indicates a vulnerability of the
// given class. Each class evaluates a different slice of the response:
// open redirect looks at the status and Location header, the rest look at
// the body.
func Match(t models.VulnType, statusCode int, location, body string) bool {
	switch t {
	case models.VulnOpenRedirect:
		if statusCode != 301 && statusCode != 302 {
			return false
		}
		return evilHostRe.MatchString(location)
	case models.VulnPathTraversal:
		return strings.Contains(body, "root:") || strings.Contains(body, "[extensions]")
	case models.VulnXSS:
		lower := strings.ToLower(body)
		return strings.Contains(lower, "alert(1)") || strings.Contains(lower, "onerror")
	case models.VulnSSTI:
		return strings.Contains(body, "49") || strings.Contains(body, "7777777")
	}
	return false
}

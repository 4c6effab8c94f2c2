package pipeline

import (
	"net/url"
	"strings"
)

// InScope reports whether hostname belongs to the target domain.
// Membership is a case-insensitive suffix match: "api.example.com" and
// "example.com" are in scope for target "example.com". Every discovered
// hostname and URL must pass this check before entering the scan state.
func InScope(hostname, target string) bool {
	if hostname == "" || target == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(hostname), strings.ToLower(target))
}

// URLInScope parses raw and reports whether its authority is in scope for
// target. The full authority is matched, so a host with an explicit port
// ("example.com:8080") is out of scope. Unparseable URLs and URLs without
// a host are out of scope.
func URLInScope(raw, target string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return InScope(u.Host, target)
}

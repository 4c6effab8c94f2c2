package jsminer

import "regexp"

// scriptSrcPattern finds script-tag source attributes in raw HTML. A regex
// rather than a DOM parse keeps the scan tolerant of malformed markup.
var scriptSrcPattern = regexp.MustCompile(`(?i)<script[^>]+src=["'](.*?)["']`)

// stringLiteralPattern finds single- or double-quoted string literals in
// JavaScript source. Each literal body is then classified below.
var stringLiteralPattern = regexp.MustCompile(`['"]([^'"]+?)['"]`)

// classifier is one endpoint-shape rule applied to a string literal.
type classifier struct {
	name string
	re   *regexp.Regexp
}

// classifiers is the ordered priority list of endpoint shapes. A literal is
// accepted by the FIRST rule that matches it; later rules are not consulted.
// The order is part of the extraction contract — absolute URLs outrank
// rooted paths, which outrank api/graphql prefixes, and the loose
// query-string and two-segment-path shapes come last.
var classifiers = []classifier{
	{"absolute_url", regexp.MustCompile(`^https?://.+`)},
	{"absolute_path", regexp.MustCompile(`^/.+`)},
	{"api_path", regexp.MustCompile(`^api/.+`)},
	{"graphql_path", regexp.MustCompile(`^graphql/.+`)},
	{"websocket_url", regexp.MustCompile(`^ws://.+`)},
	{"query_string", regexp.MustCompile(`^[^?]+\?.+`)},
	{"segmented_path", regexp.MustCompile(`^.+?/[a-zA-Z0-9_-]+/[0-9a-zA-Z_-]+$`)},
}

// classify returns the name of the first classifier matching literal,
// or "" when no rule matches.
func classify(literal string) string {
	for _, c := range classifiers {
		if c.re.MatchString(literal) {
			return c.name
		}
	}
	return ""
}

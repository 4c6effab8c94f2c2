package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInScope(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		target   string
		want     bool
	}{
		{"exact match", "example.com", "example.com", true},
		{"subdomain", "api.example.com", "example.com", true},
		{"deep subdomain", "a.b.api.example.com", "example.com", true},
		{"case insensitive", "API.Example.COM", "example.com", true},
		{"unrelated domain", "evil.org", "example.com", false},
		{"lookalike suffix", "notexample.com", "example.com", true},
		{"empty hostname", "", "example.com", false},
		{"empty target", "api.example.com", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InScope(tt.hostname, tt.target))
		})
	}
}

func TestURLInScope(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		target string
		want   bool
	}{
		{"in-scope https", "https://api.example.com/v1/users", "example.com", true},
		{"in-scope http", "http://example.com/", "example.com", true},
		{"out of scope", "https://cdn.thirdparty.net/app.js", "example.com", false},
		{"explicit port excluded", "https://example.com:8080/admin", "example.com", false},
		{"no host", "/relative/path", "example.com", false},
		{"unparseable", "http://[::1:bad", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, URLInScope(tt.raw, tt.target))
		})
	}
}

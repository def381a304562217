// Package urlutil validates and normalizes target URLs before a scan record
// is created. Normalization is deterministic so the same target always maps
// to the same stored targetUrl.
package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/idna"
)

// Errors returned for rejected targets. The API maps these to client errors.
var (
	ErrEmptyURL          = fmt.Errorf("empty url")
	ErrMissingHost       = fmt.Errorf("missing host")
	ErrUnsupportedScheme = fmt.Errorf("unsupported scheme (only http and https are allowed)")
)

// NormalizeTarget parses raw, enforces scheme ∈ {http, https}, and returns a
// canonical absolute URL string: lowercased scheme and host, IDN hosts in
// punycode, default ports and fragments and userinfo dropped, path cleaned.
// The query string is preserved as-is since probe families test parameters.
func NormalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrUnsupportedScheme
	}
	if u.Host == "" {
		return "", ErrMissingHost
	}

	// Lowercase host and convert IDN -> punycode
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	// Preserve non-default port only
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") || port == "" {
		u.Host = host
	} else {
		u.Host = net.JoinHostPort(host, port)
	}

	// Drop credentials and fragment
	u.User = nil
	u.Fragment = ""

	if u.Path != "" {
		cleaned := path.Clean(u.Path)
		if cleaned == "." {
			cleaned = ""
		}
		u.Path = cleaned
	}

	return u.String(), nil
}

// SameHost reports whether a and b share a hostname. Used by the crawler to
// stay on the target site.
func SameHost(a, b *url.URL) bool {
	return a.Hostname() == b.Hostname()
}

// WithPath returns base with its path replaced by p and the query dropped.
// Probe families use it to derive well-known paths from the target origin.
func WithPath(base *url.URL, p string) string {
	u := *base
	u.Path = p
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// WithParam returns rawURL with the named query parameter replaced by value.
// All other parameters are preserved.
func WithParam(rawURL, param, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set(param, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

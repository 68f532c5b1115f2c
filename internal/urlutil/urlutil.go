// Package urlutil provides the URL canonicalisation and scoping rules shared
// by the crawler frontier and the link extractor.
package urlutil

import (
	"net/url"
	"strings"
)

// Normalize parses a raw URL string and returns its canonical form.
func Normalize(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return NormalizeURL(parsed), nil
}

// NormalizeURL canonicalises a parsed URL: lowercase scheme and host, default
// port stripped, fragment dropped, trailing slash collapsed so that an empty
// path and "/" are the same page. The query is preserved. Idempotent.
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPort(scheme) {
		host += ":" + port
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	if path == "" {
		path = "/"
	}

	out := scheme + "://" + host + path
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out
}

// Resolve interprets href relative to base and returns the absolute result
// with its fragment removed.
func Resolve(base *url.URL, href string) (*url.URL, error) {
	target, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}
	target.Fragment = ""
	return target, nil
}

// IsValid reports whether the URL is an absolute http(s) URL with a host.
func IsValid(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}

// SameDomain reports whether two URLs belong to the same crawl scope. With
// includeSubdomains the comparison uses the registrable domain, approximated
// by the last two host labels; otherwise hosts must match exactly. Hosts are
// compared case-insensitively.
func SameDomain(a, b *url.URL, includeSubdomains bool) bool {
	if a == nil || b == nil {
		return false
	}
	ha := strings.ToLower(a.Hostname())
	hb := strings.ToLower(b.Hostname())
	if ha == "" || hb == "" {
		return false
	}
	if includeSubdomains {
		return registrableDomain(ha) == registrableDomain(hb)
	}
	return ha == hb
}

func registrableDomain(host string) string {
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}

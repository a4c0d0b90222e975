// Package urlutil provides URL validation, normalization and origin checks.
package urlutil

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned for URLs that cannot seed an audit.
var ErrInvalidURL = errors.New("invalid url")

// Validate checks a user-supplied URL and returns its normalized form.
// A missing scheme defaults to https. Only http/https are accepted, and
// the host must look like a real hostname (contain a dot) unless it is
// localhost or an IP literal.
func Validate(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", errors.New("url is required")
	}

	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" {
		u, err = url.Parse("https://" + value)
		if err != nil {
			return "", ErrInvalidURL
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("url must start with http:// or https://")
	}
	if u.Host == "" {
		return "", ErrInvalidURL
	}

	hostname := u.Hostname()
	if hostname != "localhost" && net.ParseIP(hostname) == nil && !strings.Contains(hostname, ".") {
		return "", errors.New("invalid url host")
	}

	return Normalize(u), nil
}

// Normalize renders a URL in canonical form: lowercase scheme and host,
// default ports stripped, fragment dropped, empty path rewritten to "/".
// Query strings are preserved as-is since they can be significant for
// page identity.
func Normalize(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	c.User = nil

	if c.Scheme == "http" {
		c.Host = strings.TrimSuffix(c.Host, ":80")
	} else if c.Scheme == "https" {
		c.Host = strings.TrimSuffix(c.Host, ":443")
	}

	if c.Path == "" {
		c.Path = "/"
	}

	return c.String()
}

// NormalizeString parses and normalizes a raw URL string.
func NormalizeString(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return Normalize(u), nil
}

// Resolve resolves a possibly-relative href against a base page URL and
// returns the normalized absolute URL. Non-navigational schemes (mailto,
// tel, javascript) and bare fragments resolve to "".
func Resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return Normalize(abs)
}

// SameOrigin reports whether two URLs share scheme and host.
func SameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) && strings.EqualFold(ua.Host, ub.Host)
}

// Origin returns the scheme://host prefix of a URL.
func Origin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidURL
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// Host extracts the host (without port) from a URL string.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// IsHTTP reports whether a URL string uses the http or https scheme.
func IsHTTP(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

// LooksLikeHTML guesses from the path extension whether a URL is likely to
// serve an HTML document. URLs without a recognized binary/asset extension
// are assumed to be HTML until a response says otherwise.
func LooksLikeHTML(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx < strings.LastIndex(path, "/") {
		return true
	}
	switch path[idx:] {
	case ".html", ".htm", ".xhtml", ".php", ".asp", ".aspx", ".jsp":
		return true
	case ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
		".zip", ".rar", ".tar", ".gz", ".7z",
		".mp3", ".mp4", ".avi", ".mov", ".wmv", ".webm",
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".ico", ".svg", ".webp", ".avif",
		".css", ".js", ".mjs", ".json", ".xml", ".txt",
		".woff", ".woff2", ".ttf", ".eot":
		return false
	}
	return true
}

package util

import (
	"net/url"
	"strings"
)

// IsValidAbsoluteURL reports whether raw parses as an absolute http(s) URL.
func IsValidAbsoluteURL(raw string) bool {
	if strings.ContainsAny(raw, "\r\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// OriginOf reduces an absolute URL to its scheme://host[:port] origin.
// Returns an empty string for URLs that do not parse as absolute http(s).
func OriginOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// OriginsOf extracts the unique origins of the given URLs, preserving first
// occurrence order and silently skipping entries that do not parse.
func OriginsOf(uris []string) []string {
	seen := make(map[string]bool, len(uris))
	var origins []string
	for _, uri := range uris {
		origin := OriginOf(uri)
		if origin == "" || seen[origin] {
			continue
		}
		seen[origin] = true
		origins = append(origins, origin)
	}
	return origins
}

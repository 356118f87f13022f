// Package mediaurl normalizes the externally hosted media URLs attached to
// blogs. Uploading is handled elsewhere; blogs only reference absolute
// http(s) locations.
package mediaurl

import (
	"net/url"
	"strings"
)

const MaxLength = 2048

// Normalize trims raw and returns it with a lowercased scheme and host. It
// reports false for anything that is not an absolute http or https URL.
func Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxLength {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" || u.User != nil {
		return "", false
	}

	u.Host = strings.ToLower(u.Host)
	return u.String(), true
}

package api

import (
	"net/url"
	"strconv"
	"strings"

	"blogify/internal/constants"
	"blogify/internal/models"
)

// parsePositiveInt returns fallback for missing, malformed or non-positive
// values.
func parsePositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func pageParams(q url.Values) (page, limit int) {
	page = parsePositiveInt(q.Get("page"), constants.DefaultPage)
	limit = parsePositiveInt(q.Get("limit"), constants.DefaultPageLimit)
	if limit > constants.MaxPageLimit {
		limit = constants.MaxPageLimit
	}
	return models.ClampPage(page, limit), limit
}

// optionalBool parses "true"/"false" style values. Anything else, including
// absence, yields nil.
func optionalBool(raw string) *bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &v
}

package blog

import (
	"fmt"
	"strings"

	"blogify/internal/apperr"
	"blogify/internal/mediaurl"
	"blogify/internal/models"
)

const maxTerms = 10

type MediaInput struct {
	URL string `json:"url" validate:"required,max=2048"`
	Alt string `json:"alt" validate:"max=200"`
}

type CreateInput struct {
	Title       string       `json:"title" validate:"required,min=3,max=200"`
	Description string       `json:"description" validate:"required,min=10"`
	Media       []MediaInput `json:"media" validate:"omitempty,max=20,dive"`
	Tags        []string     `json:"tags" validate:"omitempty,max=20,dive,max=30"`
	IsPublished *bool        `json:"isPublished"`
}

// UpdateInput is a partial patch: nil fields are left untouched. An empty,
// non-nil Media or Tags slice clears the list.
type UpdateInput struct {
	Title       *string      `json:"title" validate:"omitnil,min=3,max=200"`
	Description *string      `json:"description" validate:"omitnil,min=10"`
	Media       []MediaInput `json:"media" validate:"omitempty,max=20,dive"`
	Tags        []string     `json:"tags" validate:"omitempty,max=20,dive,max=30"`
	IsPublished *bool        `json:"isPublished"`
}

// NormalizeTags trims and lowercases tags, dropping empties and duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SearchTerms splits free text into distinct lowercase terms.
func SearchTerms(search string) []string {
	fields := strings.Fields(strings.ToLower(search))
	terms := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
		if len(terms) == maxTerms {
			break
		}
	}
	return terms
}

func normalizeMedia(items []MediaInput) ([]models.Media, error) {
	media := make([]models.Media, 0, len(items))
	var fields []apperr.FieldError
	for i, item := range items {
		u, ok := mediaurl.Normalize(item.URL)
		if !ok {
			fields = append(fields, apperr.FieldError{
				Field:   fmt.Sprintf("media[%d].url", i),
				Message: "url must be an absolute http or https URL",
			})
			continue
		}
		media = append(media, models.Media{URL: u, Alt: strings.TrimSpace(item.Alt)})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields...)
	}
	return media, nil
}

package blog

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans user supplied rich text. Policies are safe for concurrent
// use once built.
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
	gaps  *strings.Replacer
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		rich:  bluemonday.UGCPolicy(),
		plain: bluemonday.StrictPolicy(),
		gaps:  strings.NewReplacer("<", " <"),
	}
}

// HTML strips scripts, event handlers and other unsafe markup.
func (s *Sanitizer) HTML(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// PlainText returns the visible text of an HTML fragment with whitespace
// collapsed. Adjacent block elements stay separate words.
func (s *Sanitizer) PlainText(fragment string) string {
	text := html.UnescapeString(s.plain.Sanitize(s.gaps.Replace(fragment)))
	return strings.Join(strings.Fields(text), " ")
}

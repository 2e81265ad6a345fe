// Package htmlsanitize strips markup from user-supplied text.
//
// Feedback messages, alert notes and profile fields are plain text. They
// are shown by clients that may render HTML, so every tag is removed
// before storage using bluemonday's strict policy.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictOnce sync.Once
	strict     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// PlainText removes all HTML elements (and the bodies of script/style
// elements) and returns trimmed, unescaped text.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	out := strictPolicy().Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(out))
}

// IsPlainText reports whether s contains no HTML tags.
func IsPlainText(s string) bool {
	if s == "" {
		return true
	}
	return html.UnescapeString(strictPolicy().Sanitize(s)) == s
}

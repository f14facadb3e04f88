// Package htmlsanitize cleans user-provided text with bluemonday.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcOnce   sync.Once
	ugc       *bluemonday.Policy
	plainOnce sync.Once
	plain     *bluemonday.Policy
)

func ugcPolicy() *bluemonday.Policy {
	ugcOnce.Do(func() {
		ugc = bluemonday.UGCPolicy()
	})
	return ugc
}

func plainPolicy() *bluemonday.Policy {
	plainOnce.Do(func() {
		plain = bluemonday.StrictPolicy()
	})
	return plain
}

// Sanitize keeps safe formatting markup (paragraphs, emphasis, links, tables)
// and strips scripts, event handlers, and javascript: URLs. Used for project
// and listing descriptions.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugcPolicy().Sanitize(s)
}

// PlainText strips all markup and returns trimmed, unescaped text. Used for
// chat messages, complaint descriptions, and request notes, which clients
// render as text.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainPolicy().Sanitize(s)))
}

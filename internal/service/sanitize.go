package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainTextPolicy = bluemonday.StrictPolicy()
	richTextPolicy  = newRichTextPolicy()
)

func newRichTextPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")
	return policy
}

// sanitizePlain strips all markup from short labels such as names and titles.
func sanitizePlain(value string) string {
	return strings.TrimSpace(html.UnescapeString(plainTextPolicy.Sanitize(value)))
}

// sanitizeRich keeps a safe subset of HTML for descriptions and feedback.
func sanitizeRich(value string) string {
	return strings.TrimSpace(richTextPolicy.Sanitize(value))
}

package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML tags and attributes.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy keeps basic formatting (paragraphs, emphasis, links, lists).
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML and surrounding whitespace. The result stays
// entity-escaped, so it is safe to drop into markup.
// Use for names, role titles, update titles and media captions.
func Text(input string) string {
	return strings.TrimSpace(StrictPolicy.Sanitize(input))
}

// HTML keeps safe formatting tags. Use for biographies and update content.
func HTML(input string) string {
	return UGCPolicy.Sanitize(input)
}

// OptionalText applies Text to a nullable field. Blank results become nil.
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := Text(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// OptionalHTML applies HTML to a nullable field. Blank results become nil.
func OptionalHTML(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := HTML(*input)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}
	return &cleaned
}

package validation

import (
	"net/url"
	"strings"
)

// ValidateLink accepts absolute http(s) URLs and site-relative paths such as
// /uploads/x.jpg. Empty values pass; callers decide whether a link is required.
func ValidateLink(value, field string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//") {
		if _, err := url.Parse(value); err != nil {
			return New(field, "Invalid link")
		}
		return nil
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return New(field, "Invalid link")
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return New(field, "Link must use http or https")
	}
	if parsed.Host == "" {
		return New(field, "Link must include a host")
	}
	return nil
}

package utils

import "github.com/microcosm-cc/bluemonday"

var (
	sanitizer      = bluemonday.UGCPolicy()
	plainSanitizer = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// SanitizePlain strips all markup, for single-line fields such as titles and names.
func SanitizePlain(input string) string {
	return plainSanitizer.Sanitize(input)
}

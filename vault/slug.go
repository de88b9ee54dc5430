package vault

import "strings"

// Slugify normalizes a user-chosen name for use in lookups and URLs:
// lowercase, runs of non-alphanumeric characters collapsed to a single
// hyphen, leading/trailing hyphens trimmed.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// MaskSecret renders a secret for display: first and last four characters
// with the middle elided. Short secrets are fully masked.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

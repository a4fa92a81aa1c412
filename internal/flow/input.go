package flow

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// DefaultIntentPattern spots scheduling intent in free text, in English and Spanish.
	DefaultIntentPattern = regexp.MustCompile(`(?i)\b(schedul\w*|book\w*|meetings?|appointments?|consult\w*|availab\w*|times?|agend\w*|citas?|reuni\w*|horarios?)\b`)
)

// IsEmail reports whether s has a basic local@domain.tld shape.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsSkip reports whether s is the skip keyword, ignoring case and surrounding space.
func IsSkip(s, keyword string) bool {
	if keyword == "" {
		keyword = "skip"
	}
	return strings.EqualFold(strings.TrimSpace(s), keyword)
}

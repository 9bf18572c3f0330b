package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length caps for log fields. Tab titles and URLs come straight from
// untrusted pages, so anything logged from them is filtered first.
const (
	MaxPathLength          = 500
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
)

// SanitizePath prepares a URL path for logging: control characters
// stripped, truncated to MaxPathLength, valid UTF-8.
func SanitizePath(path string) string {
	if path == "" {
		return ""
	}
	path = filterRunes(path)
	if len(path) > MaxPathLength {
		path = path[:MaxPathLength] + "..."
	}
	return path
}

// SanitizeString prepares an arbitrary string for logging, truncated
// to maxLength (MaxGeneralStringLength when non-positive).
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = filterRunes(s)
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

// filterRunes drops invalid UTF-8 and control characters, keeping
// printable runes plus space, tab, newline and CR.
func filterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// SanitizeError renders err for logging under MaxErrorMessageLength.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

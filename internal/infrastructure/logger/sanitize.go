package logger

import (
	"fmt"
	"strings"
)

// SanitizeForLog escapes control characters so that stream URLs and upload
// filenames cannot inject fake log entries or ANSI sequences. Unicode text
// (accented chars, CJK, emoji) passes through untouched.
func SanitizeForLog(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\n':
			result.WriteString("\\n")
		case '\r':
			result.WriteString("\\r")
		case '\t':
			result.WriteString("\\t")
		case '\x00':
			result.WriteString("\\x00")
		default:
			if r < 32 || r == 127 || r == '\x1b' {
				result.WriteString(fmt.Sprintf("\\x%02x", r))
			} else {
				result.WriteRune(r)
			}
		}
	}
	return result.String()
}

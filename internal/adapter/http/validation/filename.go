// Package validation sanitizes client-supplied names before they touch the
// filesystem or response headers.
package validation

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxFilenameLength matches the common filesystem limit.
const maxFilenameLength = 255

// dangerousChars are replaced with underscore: path separators, header
// injection vectors and the Windows drive separator.
var dangerousChars = map[rune]bool{
	'"':  true,
	'\\': true,
	'/':  true,
	':':  true,
	'\n': true,
	'\r': true,
}

// SanitizeFilename makes a client-supplied filename safe for use as a path
// component. Unicode is preserved; control and dangerous characters become
// underscores; the result is truncated to 255 bytes keeping the extension.
// Empty or fully-replaced input comes back as "file".
func SanitizeFilename(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if r < 32 || r == 127 || dangerousChars[r] {
			sb.WriteRune('_')
		} else {
			sb.WriteRune(r)
		}
	}

	result := strings.TrimSpace(sb.String())
	if result == "" || strings.Trim(result, "_") == "" {
		return "file"
	}
	if len(result) > maxFilenameLength {
		result = truncatePreservingExtension(result)
	}
	return result
}

func truncatePreservingExtension(name string) string {
	ext := filepath.Ext(name)
	if len(ext) == 0 || len(ext) >= maxFilenameLength {
		return truncateToBytes(name, maxFilenameLength)
	}
	base := name[:len(name)-len(ext)]
	return truncateToBytes(base, maxFilenameLength-len(ext)) + ext
}

// truncateToBytes cuts s at a UTF-8 boundary at or before maxBytes.
func truncateToBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

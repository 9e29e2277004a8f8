package logutil

import "unicode/utf8"

// TruncateForLog truncates a string to maxLen characters for safe logging.
// If the string is longer than maxLen, it appends "..." to indicate truncation.
// Multi-byte characters are never split.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

package parser

import (
	"regexp"
	"strings"
	"unicode"

	"deskbridge/internal/domain/form"
)

const maxLabelLen = 80

var (
	boldMarkers   = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicMarkers = regexp.MustCompile(`(^|\s)_([^_\n]+)_`)
	labelValue    = regexp.MustCompile(`^\s*([^:]+?)\s*:\s*(.+?)\s*$`)
)

// parseText reads "Label: value" lines from a plain-text message.
func parseText(text string, rec *form.Record) {
	for _, line := range strings.Split(text, "\n") {
		line = boldMarkers.ReplaceAllString(line, "$1")
		line = italicMarkers.ReplaceAllString(line, "${1}${2}")

		m := labelValue.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label, value := m[1], m[2]
		if !plausibleLabel(label) || strings.HasPrefix(value, "//") {
			continue
		}
		rec.Add(label, value)
	}
}

func plausibleLabel(label string) bool {
	if len(label) > maxLabelLen || strings.ContainsAny(label, "<>") {
		return false
	}
	for _, r := range label {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

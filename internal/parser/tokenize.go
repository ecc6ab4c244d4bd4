package parser

import "strings"

// Tokenize splits raw pasted text into trimmed, non-empty lines, keeping
// their original order.
func Tokenize(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

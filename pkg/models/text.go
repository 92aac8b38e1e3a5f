package models

import "unicode/utf8"

// TruncateChars shortens s to at most max characters, marking any cut with
// an ellipsis. Truncation is rune-aware so multibyte text is never split
// mid-character.
func TruncateChars(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return ""
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

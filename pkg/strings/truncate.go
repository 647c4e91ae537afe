// Package strings holds text helpers shared by the pijaz command output.
package strings

import (
	"strings"
)

// DefaultCellMaxLen is the widest value shown in a table cell.
const DefaultCellMaxLen = 100

// MinTruncateLen is the smallest limit Truncate honours: one rune plus "...".
const MinTruncateLen = 4

// Truncate flattens s to a single line and shortens it to at most maxLen
// runes, marking the cut with "...". Runs of whitespace, including newlines
// from multi-line values such as XML, collapse to one space.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

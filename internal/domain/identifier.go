package domain

import (
	"strconv"
	"strings"
)

// IndexFromIdentifier interprets identifier as a 1-based position into a
// collection of size n. It returns the 0-based index and true only when the
// identifier is an integer within range.
func IndexFromIdentifier(identifier string, n int) (int, bool) {
	pos, err := strconv.Atoi(strings.TrimSpace(identifier))
	if err != nil {
		return 0, false
	}
	idx := pos - 1
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

// MatchesName compares two identifiers case-insensitively.
func MatchesName(identifier, value string) bool {
	return value != "" && strings.EqualFold(identifier, value)
}

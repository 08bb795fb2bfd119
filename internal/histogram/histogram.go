// Package histogram renders measurement counts as a PNG bar chart or as
// text bars for the terminal.
package histogram

import (
	"errors"
	"maps"
	"slices"
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("no counts to plot")

// sortedKeys returns the outcome keys in lexical order, which for equal-width
// bit-strings is numeric order.
func sortedKeys(counts map[string]int) []string {
	return slices.Sorted(maps.Keys(counts))
}

func total(counts map[string]int) int {
	var n int
	for _, v := range counts {
		n += v
	}
	return n
}

// Package transcript merges recognized speech into the answer draft.
package transcript

import "strings"

// Join concatenates segments with single spaces and collapses interior whitespace.
func Join(segments ...string) string {
	if len(segments) == 0 {
		return ""
	}
	return strings.Join(strings.Fields(strings.Join(segments, " ")), " ")
}

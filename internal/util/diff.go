package util

import (
	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff returns a unified diff of two strings. Headers are stable
// ("--- a/<path>", "+++ b/<path>") so output can be compared in tests and
// piped to patch tooling.
func UnifiedDiff(from, to, path string, context int) string {
	if from == to {
		return ""
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  context,
	})
	if err != nil {
		return ""
	}
	return text
}

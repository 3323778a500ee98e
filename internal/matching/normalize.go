package matching

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold returns the case-folded, trimmed form of s. A cases.Caser is stateful, so a fresh one is used per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// FoldSet case-folds values and drops blanks and duplicates, keeping first-seen order.
func FoldSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		f := fold(v)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// intersect returns the folded values of a that also occur in b, in a's order.
func intersect(a, b []string) []string {
	bs := make(map[string]struct{}, len(b))
	for _, v := range FoldSet(b) {
		bs[v] = struct{}{}
	}
	var out []string
	for _, v := range FoldSet(a) {
		if _, ok := bs[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

package project

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type names []Summary

func (n names) String(i int) string { return strings.ToLower(n[i].Name) }
func (n names) Len() int            { return len(n) }

// Filter narrows summaries by name: substring hits keep their order and
// come first, then fuzzy subsequence matches by score.
func Filter(summaries []Summary, query string) []Summary {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]Summary(nil), summaries...)
	}
	var out []Summary
	taken := make(map[int]bool)
	for i, s := range summaries {
		if strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
			taken[i] = true
		}
	}
	for _, m := range fuzzy.FindFrom(q, names(summaries)) {
		if !taken[m.Index] {
			out = append(out, summaries[m.Index])
		}
	}
	return out
}

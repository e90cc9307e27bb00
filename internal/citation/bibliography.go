package citation

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// BibliographyHeading opens the section inserted by BibliographySection.
const BibliographyHeading = "## Bibliography"

// BibliographySection renders every source as a bibliography entry under a
// heading, ordered by surname and separated by blank lines.
func BibliographySection(sources []Source) string {
	sorted := append([]Source(nil), sources...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Surname() < sorted[j].Surname()
	})
	lines := []string{BibliographyHeading, ""}
	for _, src := range sorted {
		lines = append(lines, src.Bibliography(), "")
	}
	return strings.Join(lines, "\n")
}

type haystack []Source

func (h haystack) String(i int) string {
	return strings.ToLower(h[i].Author + " " + h[i].Title + " " + h[i].Year)
}

func (h haystack) Len() int { return len(h) }

// Filter narrows sources to those matching query. Substring hits on
// author, title and year come first in their original order, followed by
// fuzzy subsequence matches ranked by score.
func Filter(sources []Source, query string) []Source {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]Source(nil), sources...)
	}
	hay := haystack(sources)
	var out []Source
	taken := make(map[int]bool)
	for i := range hay {
		if strings.Contains(hay.String(i), query) {
			out = append(out, sources[i])
			taken[i] = true
		}
	}
	for _, match := range fuzzy.FindFrom(query, hay) {
		if !taken[match.Index] {
			out = append(out, sources[match.Index])
		}
	}
	return out
}

package citation

import (
	"regexp"
	"strings"
)

var (
	bibEntryStart = regexp.MustCompile(`@(\w+)\s*\{([^,]*),\s*`)
	bibField      = regexp.MustCompile(`(?s)(\w+)\s*=\s*[{"](.*?)[}"]`)
)

var bibTypes = map[string]SourceType{
	"book":          TypeBook,
	"inbook":        TypeBookSection,
	"incollection":  TypeBookSection,
	"article":       TypeArticle,
	"inproceedings": TypeArticle,
	"conference":    TypeArticle,
	"misc":          TypeWebsite,
	"online":        TypeWebsite,
	"electronic":    TypeWebsite,
}

// ParseBibTeX extracts sources from BibTeX text. Entries without both an
// author and a title are skipped; unknown entry types become books.
func ParseBibTeX(text string) []Source {
	starts := bibEntryStart.FindAllStringSubmatchIndex(text, -1)
	var sources []Source
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		body := strings.TrimRightFunc(text[loc[1]:end], isSpace)
		if !strings.HasSuffix(body, "}") {
			continue
		}
		body = strings.TrimSuffix(body, "}")

		fields := map[string]string{}
		for _, m := range bibField.FindAllStringSubmatch(body, -1) {
			fields[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
		}
		author, title := fields["author"], fields["title"]
		if author == "" && title == "" {
			continue
		}

		kind, ok := bibTypes[strings.ToLower(text[loc[2]:loc[3]])]
		if !ok {
			kind = TypeBook
		}
		sources = append(sources, Source{
			ID:         NewID(),
			Type:       kind,
			Author:     author,
			Title:      title,
			Year:       fields["year"],
			Publisher:  fields["publisher"],
			City:       fields["address"],
			Journal:    firstNonEmpty(fields["journal"], fields["journaltitle"]),
			Volume:     fields["volume"],
			Issue:      fields["number"],
			Pages:      fields["pages"],
			BookTitle:  fields["booktitle"],
			Editor:     fields["editor"],
			URL:        fields["url"],
			AccessDate: fields["urldate"],
			SiteName:   firstNonEmpty(fields["organization"], fields["howpublished"]),
		})
	}
	return sources
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

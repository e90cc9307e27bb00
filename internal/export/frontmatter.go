// Package export turns a project's markdown into md, docx or pdf files
// using pandoc and LibreOffice.
package export

import (
	"regexp"
	"strings"
)

// Frontmatter is the key/value preamble of a document.
type Frontmatter map[string]string

var frontmatterBlock = regexp.MustCompile(`(?s)^---\n(.*?)\n---`)

// ParseFrontmatter extracts the leading ----fenced block of text. Each
// line splits on its first colon; matching quotes around a value are
// dropped. Text without a block yields an empty map.
func ParseFrontmatter(text string) Frontmatter {
	fm := Frontmatter{}
	m := frontmatterBlock.FindStringSubmatch(text)
	if m == nil {
		return fm
	}
	for _, line := range strings.Split(m[1], "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		fm[key] = unquote(strings.TrimSpace(line[idx+1:]))
	}
	return fm
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == v[len(v)-1] && (v[0] == '"' || v[0] == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}

// Style returns the style key, which selects the filter layout.
func (fm Frontmatter) Style() string { return fm["style"] }

// Has reports whether key was present, even with an empty value.
func (fm Frontmatter) Has(key string) bool {
	_, ok := fm[key]
	return ok
}

// LastName resolves the surname used in running headers: the explicit
// lastname key, else the final word of author.
func (fm Frontmatter) LastName() string {
	if v := fm["lastname"]; v != "" {
		return v
	}
	words := strings.Fields(fm["author"])
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// SafeName derives a filesystem-safe export base name from a project name.
func SafeName(name string) string {
	safe := strings.TrimSpace(unsafeName.ReplaceAllString(name, ""))
	safe = strings.ReplaceAll(safe, " ", "_")
	if r := []rune(safe); len(r) > 50 {
		safe = string(r[:50])
	}
	if safe == "" {
		return "export"
	}
	return safe
}

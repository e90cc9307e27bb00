package export

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed filters/*.lua.tmpl
var filterFS embed.FS

var filterTemplates = template.Must(template.ParseFS(filterFS, "filters/*.lua.tmpl"))

type filterMeta struct {
	Title      string
	Author     string
	Course     string
	Instructor string
	Date       string
}

var luaEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")

// FilterScript renders the pandoc Lua filter for the document's style:
// "chicago" adds a cover page, "mla" adds the heading block and anything
// else only restyles the bibliography.
func FilterScript(fm Frontmatter) (string, error) {
	name := "basic.lua.tmpl"
	switch fm.Style() {
	case "chicago":
		name = "chicago.lua.tmpl"
	case "mla":
		name = "mla.lua.tmpl"
	}
	meta := filterMeta{
		Title:      luaEscaper.Replace(fm["title"]),
		Author:     luaEscaper.Replace(fm["author"]),
		Course:     luaEscaper.Replace(fm["course"]),
		Instructor: luaEscaper.Replace(fm["instructor"]),
		Date:       luaEscaper.Replace(fm["date"]),
	}
	var b strings.Builder
	if err := filterTemplates.ExecuteTemplate(&b, name, meta); err != nil {
		return "", err
	}
	return b.String(), nil
}

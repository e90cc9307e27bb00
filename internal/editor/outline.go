package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one markdown heading in document order.
type Heading struct {
	Level  int
	Text   string
	Offset int
}

var bibliographyTitles = map[string]bool{
	"bibliography": true,
	"references":   true,
	"works cited":  true,
}

// Outline parses text as markdown and returns its headings. Offset is the
// rune offset of the heading's line. A leading frontmatter block is
// ignored.
func Outline(src string) []Heading {
	source := []byte(maskFrontmatter(src))
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		offset := 0
		if lines := h.Lines(); lines.Len() > 0 {
			start := lines.At(0).Start
			for start > 0 && source[start-1] != '\n' {
				start--
			}
			offset = utf8.RuneCountInString(src[:start])
		}
		out = append(out, Heading{Level: h.Level, Text: inlineText(h, source), Offset: offset})
		return ast.WalkSkipChildren, nil
	})
	return out
}

// HasBibliography reports whether the document already has a
// Bibliography, References or Works Cited heading.
func HasBibliography(src string) bool {
	for _, h := range Outline(src) {
		if bibliographyTitles[strings.ToLower(strings.TrimSpace(h.Text))] {
			return true
		}
	}
	return false
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// maskFrontmatter blanks the frontmatter block so the parser does not read
// its fences as thematic breaks. Byte positions are preserved.
func maskFrontmatter(src string) string {
	loc := frontmatterBlock.FindStringIndex(src)
	if loc == nil {
		return src
	}
	masked := []byte(src)
	for i := loc[0]; i < loc[1]; i++ {
		if masked[i] != '\n' {
			masked[i] = ' '
		}
	}
	return string(masked)
}

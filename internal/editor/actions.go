package editor

import (
	"regexp"
	"strings"
)

// Selector is implemented by documents that track a selected range.
type Selector interface {
	Selection() (start, end int, ok bool)
}

// FrontmatterProps are the keys InsertFrontmatter guarantees, in order.
var FrontmatterProps = []string{"title", "author", "instructor", "date", "spacing", "style"}

var frontmatterBlock = regexp.MustCompile(`(?s)^---\n(.*?)\n---`)

// InsertText inserts s at the cursor and moves the cursor past it. A
// selection is replaced.
func InsertText(doc Document, s string) {
	runes := []rune(doc.Text())
	start, end := selectionOrCursor(doc, len(runes))
	ins := []rune(s)
	out := make([]rune, 0, len(runes)-(end-start)+len(ins))
	out = append(out, runes[:start]...)
	out = append(out, ins...)
	out = append(out, runes[end:]...)
	doc.SetText(string(out))
	doc.SetCursor(start + len(ins))
	doc.RequestRedraw()
}

// Backspace removes the selection or the rune before the cursor.
func Backspace(doc Document) {
	runes := []rune(doc.Text())
	start, end := selectionOrCursor(doc, len(runes))
	if start == end {
		if start == 0 {
			return
		}
		start--
	}
	deleteRange(doc, runes, start, end)
}

// Delete removes the selection or the rune under the cursor.
func Delete(doc Document) {
	runes := []rune(doc.Text())
	start, end := selectionOrCursor(doc, len(runes))
	if start == end {
		if end >= len(runes) {
			return
		}
		end++
	}
	deleteRange(doc, runes, start, end)
}

func deleteRange(doc Document, runes []rune, start, end int) {
	out := append(append([]rune{}, runes[:start]...), runes[end:]...)
	doc.SetText(string(out))
	doc.SetCursor(start)
	doc.RequestRedraw()
}

func MoveLeft(doc Document) {
	if c := doc.Cursor(); c > 0 {
		doc.SetCursor(c - 1)
		doc.RequestRedraw()
	}
}

func MoveRight(doc Document) {
	if c := doc.Cursor(); c < len([]rune(doc.Text())) {
		doc.SetCursor(c + 1)
		doc.RequestRedraw()
	}
}

// LineStart moves the cursor to the start of its logical line.
func LineStart(doc Document) {
	lines := splitLines(doc.Text())
	row, _ := position(lines, doc.Cursor())
	doc.SetCursor(offsetOf(lines, row, 0))
	doc.RequestRedraw()
}

// LineEnd moves the cursor to the end of its logical line.
func LineEnd(doc Document) {
	lines := splitLines(doc.Text())
	row, _ := position(lines, doc.Cursor())
	doc.SetCursor(offsetOf(lines, row, len(lines[row])))
	doc.RequestRedraw()
}

// Bold wraps the selection in ** or inserts an empty pair with the cursor
// between the markers.
func Bold(doc Document) { wrapMarker(doc, "**") }

// Italic wraps the selection in * or inserts an empty pair.
func Italic(doc Document) { wrapMarker(doc, "*") }

func wrapMarker(doc Document, marker string) {
	runes := []rune(doc.Text())
	start, end := selectionOrCursor(doc, len(runes))
	if start == end {
		InsertText(doc, marker+marker)
		doc.SetCursor(start + len(marker))
		return
	}
	inner := string(runes[start:end])
	InsertText(doc, marker+inner+marker)
}

// Footnote inserts an inline footnote marker with the cursor inside it.
func Footnote(doc Document) {
	start, _ := selectionOrCursor(doc, len([]rune(doc.Text())))
	InsertText(doc, "^[]")
	doc.SetCursor(start + 2)
}

// InsertFrontmatter makes sure the document opens with a frontmatter block
// holding every key in FrontmatterProps. It returns false when nothing was
// missing.
func InsertFrontmatter(doc Document) bool {
	text := doc.Text()
	cursor := doc.Cursor()
	loc := frontmatterBlock.FindStringSubmatchIndex(text)
	if loc == nil {
		var b strings.Builder
		b.WriteString("---\n")
		for _, prop := range FrontmatterProps {
			b.WriteString(prop + ": \n")
		}
		b.WriteString("---\n")
		block := b.String()
		doc.SetText(block + text)
		doc.SetCursor(cursor + len([]rune(block)))
		doc.RequestRedraw()
		return true
	}

	body := text[loc[2]:loc[3]]
	present := map[string]bool{}
	for _, line := range strings.Split(body, "\n") {
		if key, _, ok := strings.Cut(line, ":"); ok {
			present[strings.TrimSpace(key)] = true
		}
	}
	var missing strings.Builder
	for _, prop := range FrontmatterProps {
		if !present[prop] {
			missing.WriteString("\n" + prop + ": ")
		}
	}
	if missing.Len() == 0 {
		return false
	}
	insertAt := loc[3]
	added := missing.String()
	doc.SetText(text[:insertAt] + added + text[insertAt:])
	if cursor >= len([]rune(text[:insertAt])) {
		cursor += len([]rune(added))
	}
	doc.SetCursor(cursor)
	doc.RequestRedraw()
	return true
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func selectionOrCursor(doc Document, length int) (int, int) {
	if sel, ok := doc.(Selector); ok {
		if start, end, ok := sel.Selection(); ok {
			return clamp(start, 0, length), clamp(end, 0, length)
		}
	}
	c := clamp(doc.Cursor(), 0, length)
	return c, c
}

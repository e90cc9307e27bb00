package editor

import "strings"

// Navigator moves the cursor of a Document by visual rows instead of
// logical lines, using the wrap layout at Width.
type Navigator struct {
	Width int
}

// MoveUp moves the cursor one visual row up, keeping its offset from the
// row start. It reports whether the cursor moved.
func (n Navigator) MoveUp(doc Document) bool {
	lines := splitLines(doc.Text())
	row, col := position(lines, doc.Cursor())
	layout := WrapBoundaries(string(lines[row]), n.Width)
	sub := layout.RowOf(col)
	visual := col - layout.Starts[sub]

	switch {
	case sub > 0:
		col = targetColumn(layout, sub-1, visual)
	case row > 0:
		row--
		layout = WrapBoundaries(string(lines[row]), n.Width)
		col = targetColumn(layout, layout.Rows()-1, visual)
	default:
		return false
	}
	doc.SetCursor(offsetOf(lines, row, col))
	doc.RequestRedraw()
	return true
}

// MoveDown moves the cursor one visual row down, keeping its offset from
// the row start. It reports whether the cursor moved.
func (n Navigator) MoveDown(doc Document) bool {
	lines := splitLines(doc.Text())
	row, col := position(lines, doc.Cursor())
	layout := WrapBoundaries(string(lines[row]), n.Width)
	sub := layout.RowOf(col)
	visual := col - layout.Starts[sub]

	switch {
	case sub+1 < layout.Rows():
		col = targetColumn(layout, sub+1, visual)
	case row+1 < len(lines):
		row++
		layout = WrapBoundaries(string(lines[row]), n.Width)
		col = targetColumn(layout, 0, visual)
	default:
		return false
	}
	doc.SetCursor(offsetOf(lines, row, col))
	doc.RequestRedraw()
	return true
}

func targetColumn(layout Layout, sub, visual int) int {
	col := layout.Starts[sub] + visual
	if limit := layout.MaxColumn(sub); col > limit {
		col = limit
	}
	return col
}

// Position converts a rune offset into a (line, column) pair.
func Position(text string, offset int) (line, column int) {
	return position(splitLines(text), offset)
}

func splitLines(text string) [][]rune {
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	return lines
}

func position(lines [][]rune, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	for i, line := range lines {
		if offset <= len(line) {
			return i, offset
		}
		offset -= len(line) + 1
	}
	last := len(lines) - 1
	return last, len(lines[last])
}

func offsetOf(lines [][]rune, row, col int) int {
	offset := 0
	for i := 0; i < row; i++ {
		offset += len(lines[i]) + 1
	}
	return offset + clamp(col, 0, len(lines[row]))
}

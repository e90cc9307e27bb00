package editor

// VisualRow is one display row of a wrapped document.
type VisualRow struct {
	Text   string // padded for display
	Line   int
	Offset int // rune offset of the row start in the document
}

// VisualRows wraps every logical line of text at width and reports the
// display row and rune column that hold cursor.
func VisualRows(text string, width, cursor int) (rows []VisualRow, cursorRow, cursorCol int) {
	lines := splitLines(text)
	line, col := position(lines, cursor)
	offset := 0
	for i, runes := range lines {
		s := string(runes)
		layout := WrapBoundaries(s, width)
		padded := layout.PaddedRows(s)
		if i == line {
			sub := layout.RowOf(col)
			cursorRow = len(rows) + sub
			cursorCol = col - layout.Starts[sub]
		}
		for r, row := range padded {
			rows = append(rows, VisualRow{Text: row, Line: i, Offset: offset + layout.Starts[r]})
		}
		offset += len(runes) + 1
	}
	return rows, cursorRow, cursorCol
}

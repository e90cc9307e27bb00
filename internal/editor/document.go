// Package editor holds the toolkit-independent editing core: word-wrap
// geometry, visual cursor movement, find/replace and markdown actions.
package editor

// Document is the narrow surface the editing core needs from a text
// widget. Offsets are rune offsets into Text.
type Document interface {
	Text() string
	SetText(text string)
	Cursor() int
	SetCursor(offset int)
	RequestRedraw()
}

// Buffer is an in-memory Document with an optional selection anchor.
type Buffer struct {
	runes  []rune
	cursor int
	anchor int
	redraw int
}

// NewBuffer returns a buffer holding text with the cursor at offset 0.
func NewBuffer(text string) *Buffer {
	return &Buffer{runes: []rune(text), anchor: -1}
}

func (b *Buffer) Text() string { return string(b.runes) }

func (b *Buffer) SetText(text string) {
	b.runes = []rune(text)
	b.cursor = clamp(b.cursor, 0, len(b.runes))
	b.anchor = -1
	b.redraw++
}

func (b *Buffer) Cursor() int { return b.cursor }

func (b *Buffer) SetCursor(offset int) {
	b.cursor = clamp(offset, 0, len(b.runes))
}

func (b *Buffer) RequestRedraw() { b.redraw++ }

// Redraws reports how many redraws were requested since creation.
func (b *Buffer) Redraws() int { return b.redraw }

// Len returns the text length in runes.
func (b *Buffer) Len() int { return len(b.runes) }

// StartSelection anchors a selection at the current cursor.
func (b *Buffer) StartSelection() { b.anchor = b.cursor }

// ClearSelection drops the selection anchor.
func (b *Buffer) ClearSelection() { b.anchor = -1 }

// Selection returns the selected range. ok is false when nothing is
// selected.
func (b *Buffer) Selection() (start, end int, ok bool) {
	if b.anchor < 0 || b.anchor == b.cursor {
		return 0, 0, false
	}
	start, end = b.anchor, b.cursor
	if start > end {
		start, end = end, start
	}
	return clamp(start, 0, len(b.runes)), clamp(end, 0, len(b.runes)), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

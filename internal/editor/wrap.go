package editor

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Padding is a run of filler spaces drawn after the rune at Offset so a
// wrapped row reaches the right edge. It never affects cursor offsets.
type Padding struct {
	Offset int
	Count  int
}

// Layout describes how one logical line splits into visual rows.
// Starts[0] is always 0 and entries are strictly increasing.
type Layout struct {
	Starts  []int
	Padding []Padding
	length  int
}

// Rows returns the number of visual rows.
func (l Layout) Rows() int { return len(l.Starts) }

// Row returns the [start, end) rune range of visual row i.
func (l Layout) Row(i int) (start, end int) {
	start = l.Starts[i]
	end = l.length
	if i+1 < len(l.Starts) {
		end = l.Starts[i+1]
	}
	return start, end
}

// RowOf returns the index of the row containing column: the greatest i
// with Starts[i] <= column.
func (l Layout) RowOf(column int) int {
	row := 0
	for i, start := range l.Starts {
		if start > column {
			break
		}
		row = i
	}
	return row
}

// MaxColumn is the furthest cursor column that still belongs to row i.
// Non-final rows stop one short of the next row's start.
func (l Layout) MaxColumn(i int) int {
	_, end := l.Row(i)
	if i+1 < len(l.Starts) {
		return end - 1
	}
	return end
}

// WrapBoundaries computes the greedy word-wrap layout of line at width
// display columns.
func WrapBoundaries(line string, width int) Layout {
	runes := []rune(line)
	layout := Layout{Starts: []int{0}, length: len(runes)}
	if width <= 0 || len(runes) <= width {
		return layout
	}

	x := 0
	space, spaceX := -1, 0
	for i, r := range runes {
		w := runeWidth(r)
		if x+w > width {
			if space >= 0 {
				layout.Starts = append(layout.Starts, space+1)
				if fill := width - spaceX - 1; fill > 0 {
					layout.Padding = append(layout.Padding, Padding{Offset: space, Count: fill})
				}
				x -= spaceX + 1
				space = -1
			}
			if x+w > width && r == ' ' {
				// The space hangs off the row it ends.
				if i+1 < len(runes) {
					layout.Starts = append(layout.Starts, i+1)
				}
				x = 0
				space = -1
				continue
			}
			if x+w > width && layout.Starts[len(layout.Starts)-1] < i {
				layout.Starts = append(layout.Starts, i)
				x = 0
				space = -1
			}
		}
		if r == ' ' {
			space, spaceX = i, x
		}
		x += w
	}
	return layout
}

// Segments returns the text of each visual row without padding.
func (l Layout) Segments(line string) []string {
	runes := []rune(line)
	out := make([]string, l.Rows())
	for i := range out {
		start, end := l.Row(i)
		out[i] = string(runes[start:end])
	}
	return out
}

// PaddedRows returns each visual row with its filler spaces applied.
func (l Layout) PaddedRows(line string) []string {
	segments := l.Segments(line)
	pads := make(map[int]int, len(l.Padding))
	for _, p := range l.Padding {
		pads[p.Offset] = p.Count
	}
	for i := range segments {
		start, end := l.Row(i)
		if end > start {
			if count, ok := pads[end-1]; ok {
				segments[i] += strings.Repeat(" ", count)
			}
		}
	}
	return segments
}

func runeWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		if r < 0x20 {
			return 1
		}
		return 0
	}
	return w
}

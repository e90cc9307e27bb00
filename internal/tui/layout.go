package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

type pageLayout struct {
	windowWidth  int
	windowHeight int
	editorWidth  int
	editorHeight int
	listHeight   int
	wrapOverride int
}

func newPageLayout(wrapWidth int) pageLayout {
	l := pageLayout{wrapOverride: wrapWidth}
	l.Update(80, 24)
	return l
}

// Update recomputes the content area for a window of width x height.
// Header, notice line and status bar take three rows.
func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height

	inner := width - editorHorizontalPadding
	if inner < minEditorWidth {
		inner = minEditorWidth
	}
	if l.wrapOverride > 0 && l.wrapOverride < inner {
		inner = l.wrapOverride
	}
	l.editorWidth = inner

	const chrome = 3
	usable := height - chrome
	if usable < 5 {
		usable = 5
	}
	l.editorHeight = usable
	l.listHeight = usable - 2
	if l.listHeight < 3 {
		l.listHeight = 3
	}
}

// findHeight is the editor height while the two-line find bar is open.
func (l pageLayout) findHeight() int {
	if h := l.editorHeight - 3; h > 1 {
		return h
	}
	return 1
}

func (l pageLayout) wrap(s string) string {
	width := l.windowWidth - 4
	if width < minEditorWidth {
		width = minEditorWidth
	}
	return wordwrap.String(s, width)
}

// fit truncates s to the window width, counting display cells.
func (l pageLayout) fit(s string) string {
	if l.windowWidth <= 0 {
		return s
	}
	return runewidth.Truncate(s, l.windowWidth, "…")
}

// window returns the [start, end) slice of n items that keeps cursor
// visible in height rows.
func window(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

func joinNonEmpty(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

func moveIndex(idx, delta, n int) int {
	if n == 0 {
		return 0
	}
	idx += delta
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

package tui

import "testing"

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name         string
		wrap         int
		width        int
		height       int
		editorWidth  int
		editorHeight int
		listHeight   int
	}{
		{name: "standard", width: 80, height: 24, editorWidth: 78, editorHeight: 21, listHeight: 19},
		{name: "wrap override", wrap: 72, width: 200, height: 40, editorWidth: 72, editorHeight: 37, listHeight: 35},
		{name: "wrap wider than window", wrap: 120, width: 60, height: 24, editorWidth: 58, editorHeight: 21, listHeight: 19},
		{name: "tiny", width: 10, height: 4, editorWidth: minEditorWidth, editorHeight: 5, listHeight: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout(tc.wrap)
			layout.Update(tc.width, tc.height)
			if layout.editorWidth != tc.editorWidth {
				t.Fatalf("editor width mismatch: got %d want %d", layout.editorWidth, tc.editorWidth)
			}
			if layout.editorHeight != tc.editorHeight {
				t.Fatalf("editor height mismatch: got %d want %d", layout.editorHeight, tc.editorHeight)
			}
			if layout.listHeight != tc.listHeight {
				t.Fatalf("list height mismatch: got %d want %d", layout.listHeight, tc.listHeight)
			}
		})
	}
}

func TestWindowKeepsCursorVisible(t *testing.T) {
	cases := []struct {
		n, cursor, height int
		start, end        int
	}{
		{n: 5, cursor: 4, height: 10, start: 0, end: 5},
		{n: 20, cursor: 0, height: 5, start: 0, end: 5},
		{n: 20, cursor: 10, height: 5, start: 8, end: 13},
		{n: 20, cursor: 19, height: 5, start: 15, end: 20},
	}
	for _, tc := range cases {
		start, end := window(tc.n, tc.cursor, tc.height)
		if start != tc.start || end != tc.end {
			t.Fatalf("window(%d, %d, %d) = [%d, %d), want [%d, %d)", tc.n, tc.cursor, tc.height, start, end, tc.start, tc.end)
		}
	}
}

func TestMoveIndexClamps(t *testing.T) {
	if got := moveIndex(0, -1, 3); got != 0 {
		t.Fatalf("got %d", got)
	}
	if got := moveIndex(2, 1, 3); got != 2 {
		t.Fatalf("got %d", got)
	}
	if got := moveIndex(5, 0, 0); got != 0 {
		t.Fatalf("got %d", got)
	}
}

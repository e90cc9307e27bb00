package editor

import (
	"regexp"
	"unicode"
)

// Finder runs case-insensitive find/replace over a Document. Offsets are
// rune offsets into the document text.
type Finder struct {
	doc         Document
	query       string
	replacement string
	matches     []int
	index       int
}

// NewFinder binds a finder to doc with no active query.
func NewFinder(doc Document) *Finder {
	return &Finder{doc: doc, index: -1}
}

func (f *Finder) Query() string       { return f.query }
func (f *Finder) Replacement() string { return f.replacement }

// Matches returns the ascending match offsets.
func (f *Finder) Matches() []int { return append([]int(nil), f.matches...) }

// Index returns the current match index, or -1 when there is none.
func (f *Finder) Index() int { return f.index }

// SetReplacement sets the text used by ReplaceCurrent and ReplaceAll.
func (f *Finder) SetReplacement(r string) { f.replacement = r }

// SetQuery rebuilds the match list, selects the first match at or after
// the cursor, wrapping to the first match, and moves the cursor onto it.
func (f *Finder) SetQuery(q string) {
	f.query = q
	f.rebuild()
	f.index = -1
	if len(f.matches) == 0 {
		return
	}
	f.index = 0
	cursor := f.doc.Cursor()
	for i, m := range f.matches {
		if m >= cursor {
			f.index = i
			break
		}
	}
	f.doc.SetCursor(f.matches[f.index])
	f.doc.RequestRedraw()
}

// Refresh recomputes matches after the text changed outside the finder,
// keeping the index within range.
func (f *Finder) Refresh() {
	f.rebuild()
	f.index = clampIndex(f.index, len(f.matches))
}

// Next advances to the following match, wrapping at the end.
func (f *Finder) Next() bool { return f.step(1) }

// Previous moves to the preceding match, wrapping at the start.
func (f *Finder) Previous() bool { return f.step(-1) }

func (f *Finder) step(delta int) bool {
	count := len(f.matches)
	if count == 0 {
		return false
	}
	f.index = ((f.index+delta)%count + count) % count
	f.doc.SetCursor(f.matches[f.index])
	f.doc.RequestRedraw()
	return true
}

// ReplaceCurrent swaps the current match for the replacement and leaves
// the cursor just after the inserted text.
func (f *Finder) ReplaceCurrent() bool {
	if f.index < 0 || f.index >= len(f.matches) {
		return false
	}
	runes := []rune(f.doc.Text())
	start := f.matches[f.index]
	end := start + len([]rune(f.query))
	repl := []rune(f.replacement)

	out := make([]rune, 0, len(runes)-(end-start)+len(repl))
	out = append(out, runes[:start]...)
	out = append(out, repl...)
	out = append(out, runes[end:]...)
	f.doc.SetText(string(out))
	f.doc.SetCursor(start + len(repl))

	old := f.index
	f.rebuild()
	f.index = clampIndex(old, len(f.matches))
	f.doc.RequestRedraw()
	return true
}

// ReplaceAll substitutes every case-insensitive occurrence of the query in
// a single pass and returns the number of replacements.
func (f *Finder) ReplaceAll() int {
	if f.query == "" {
		return 0
	}
	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(f.query))
	text := f.doc.Text()
	count := len(pattern.FindAllStringIndex(text, -1))
	if count > 0 {
		cursor := f.doc.Cursor()
		f.doc.SetText(pattern.ReplaceAllLiteralString(text, f.replacement))
		f.doc.SetCursor(cursor)
		f.doc.RequestRedraw()
	}
	f.rebuild()
	f.index = -1
	return count
}

func (f *Finder) rebuild() {
	f.matches = FindAll(f.doc.Text(), f.query)
}

// FindAll returns every rune offset where query occurs in text, ignoring
// case. Matches may overlap.
func FindAll(text, query string) []int {
	if query == "" {
		return nil
	}
	hay := foldRunes(text)
	needle := foldRunes(query)
	var out []int
	for i := 0; i+len(needle) <= len(hay); i++ {
		if equalRunes(hay[i:i+len(needle)], needle) {
			out = append(out, i)
		}
	}
	return out
}

func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clampIndex(idx, count int) int {
	if count == 0 {
		return -1
	}
	if idx < 0 {
		return 0
	}
	if idx > count-1 {
		return count - 1
	}
	return idx
}

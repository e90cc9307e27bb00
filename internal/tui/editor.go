package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/manuscripts/internal/citation"
	"github.com/csheth/manuscripts/internal/editor"
	"github.com/csheth/manuscripts/internal/project"
)

type saveResultMsg struct {
	id       string
	modified time.Time
	closing  bool
	quiet    bool
	err      error
}

// snapshot copies the open project with the current buffer text, so a
// background save never shares state with the editor.
func (m *model) snapshot() project.Project {
	p := *m.project
	p.Content = m.buffer.Text()
	p.Sources = append([]citation.Source(nil), m.project.Sources...)
	return p
}

func saveProjectJob(store *project.Store, p project.Project, closing, quiet bool) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		err := store.Save(&p)
		return saveResultMsg{id: p.ID, modified: p.Modified, closing: closing, quiet: quiet, err: err}, err
	}
}

// save starts a background save of the open project and clears the dirty
// flag; a failed save sets it again.
func (m *model) save(closing, quiet bool) tea.Cmd {
	if m.project == nil || m.config.Store == nil {
		return nil
	}
	m.dirty = false
	return m.jobs.Start(jobKindSave, saveProjectJob(m.config.Store, m.snapshot(), closing, quiet))
}

func (m *model) autosave() tea.Cmd {
	if m.project == nil || !m.dirty || m.running[jobKindSave] > 0 {
		return nil
	}
	return m.save(false, true)
}

func (m *model) applySaved(msg saveResultMsg) tea.Cmd {
	if msg.err != nil {
		if m.project != nil && m.project.ID == msg.id {
			m.dirty = true
		}
		m.setError("Save failed: " + msg.err.Error())
		return nil
	}
	if m.project != nil && m.project.ID == msg.id {
		m.project.Modified = msg.modified
	}
	if msg.closing {
		return m.loadProjectsCmd()
	}
	if !msg.quiet {
		m.setInfo("Saved.")
	}
	return nil
}

// closeEditor saves and returns to the project list.
func (m *model) closeEditor() tea.Cmd {
	cmd := m.save(true, true)
	m.project = nil
	m.buffer = nil
	m.finder = nil
	m.dirty = false
	m.helpVisible = false
	m.stage = stageProjects
	m.setInfo("Saved and closed.")
	if cmd == nil {
		return m.loadProjectsCmd()
	}
	return cmd
}

func (m *model) navigator() editor.Navigator {
	return editor.Navigator{Width: m.layout.editorWidth}
}

func (m *model) edited() {
	m.dirty = true
	if m.buffer != nil {
		m.buffer.RequestRedraw()
	}
}

func (m *model) handleEditorKey(key tea.KeyMsg) tea.Cmd {
	doc := m.buffer
	switch key.Type {
	case tea.KeyCtrlS:
		return m.save(false, false)
	case tea.KeyEsc:
		if m.helpVisible {
			m.helpVisible = false
			return nil
		}
		return m.closeEditor()
	case tea.KeyCtrlF:
		return m.openFind()
	case tea.KeyCtrlB:
		editor.Bold(doc)
		m.edited()
	case tea.KeyCtrlT:
		editor.Italic(doc)
		m.edited()
	case tea.KeyCtrlN:
		editor.Footnote(doc)
		m.edited()
	case tea.KeyCtrlR:
		return m.openCite()
	case tea.KeyCtrlO:
		return m.openSources()
	case tea.KeyCtrlE:
		m.openExportFormat()
	case tea.KeyCtrlP:
		return m.openPalette()
	case tea.KeyCtrlG:
		m.openPreview()
	case tea.KeyCtrlH:
		m.helpVisible = !m.helpVisible
	case tea.KeyUp:
		doc.ClearSelection()
		m.navigator().MoveUp(doc)
	case tea.KeyDown:
		doc.ClearSelection()
		m.navigator().MoveDown(doc)
	case tea.KeyPgUp:
		doc.ClearSelection()
		for i := 0; i < m.layout.editorHeight && m.navigator().MoveUp(doc); i++ {
		}
	case tea.KeyPgDown:
		doc.ClearSelection()
		for i := 0; i < m.layout.editorHeight && m.navigator().MoveDown(doc); i++ {
		}
	case tea.KeyLeft:
		doc.ClearSelection()
		editor.MoveLeft(doc)
	case tea.KeyRight:
		doc.ClearSelection()
		editor.MoveRight(doc)
	case tea.KeyShiftLeft:
		m.extendSelection(editor.MoveLeft)
	case tea.KeyShiftRight:
		m.extendSelection(editor.MoveRight)
	case tea.KeyShiftUp:
		m.extendSelection(func(d editor.Document) { m.navigator().MoveUp(d) })
	case tea.KeyShiftDown:
		m.extendSelection(func(d editor.Document) { m.navigator().MoveDown(d) })
	case tea.KeyHome:
		doc.ClearSelection()
		editor.LineStart(doc)
	case tea.KeyEnd:
		doc.ClearSelection()
		editor.LineEnd(doc)
	case tea.KeyEnter:
		editor.InsertText(doc, "\n")
		m.edited()
	case tea.KeyTab:
		editor.InsertText(doc, tabSpaces)
		m.edited()
	case tea.KeyBackspace:
		editor.Backspace(doc)
		m.edited()
	case tea.KeyDelete:
		editor.Delete(doc)
		m.edited()
	case tea.KeySpace:
		editor.InsertText(doc, " ")
		m.edited()
	case tea.KeyRunes:
		editor.InsertText(doc, string(key.Runes))
		m.edited()
	}
	return nil
}

func (m *model) extendSelection(move func(editor.Document)) {
	if _, _, ok := m.buffer.Selection(); !ok {
		m.buffer.StartSelection()
	}
	move(m.buffer)
}

func (m *model) actionInsertFrontmatter() tea.Cmd {
	if !editor.InsertFrontmatter(m.buffer) {
		m.setError("All frontmatter properties already present.")
		return nil
	}
	m.edited()
	m.setInfo("Frontmatter inserted.")
	return nil
}

func (m *model) actionInsertBibliography() tea.Cmd {
	if len(m.project.Sources) == 0 {
		m.setError(noSourcesHint)
		return nil
	}
	editor.InsertText(m.buffer, citation.BibliographySection(m.project.Sources))
	m.edited()
	m.setInfo("Bibliography inserted.")
	return nil
}

// Find bar

func (m *model) openFind() tea.Cmd {
	m.stage = stageFind
	m.findFocus = 0
	m.replaceInput.Blur()
	if sel, ok := m.selectedText(); ok && !strings.Contains(sel, "\n") {
		m.findInput.SetValue(sel)
		start, _, _ := m.buffer.Selection()
		m.buffer.ClearSelection()
		m.buffer.SetCursor(start)
	}
	m.finder.SetQuery(m.findInput.Value())
	return m.findInput.Focus()
}

func (m *model) selectedText() (string, bool) {
	start, end, ok := m.buffer.Selection()
	if !ok {
		return "", false
	}
	return string([]rune(m.buffer.Text())[start:end]), true
}

func (m *model) handleFindKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc, tea.KeyCtrlF:
		m.findInput.Blur()
		m.replaceInput.Blur()
		m.stage = stageEditor
		return nil
	case tea.KeyEnter:
		if m.finder.Next() {
			m.buffer.ClearSelection()
		} else {
			m.setError("No matches.")
		}
		return nil
	case tea.KeyShiftTab:
		m.finder.Previous()
		return nil
	case tea.KeyTab:
		return m.toggleFindFocus()
	case tea.KeyCtrlR:
		m.finder.SetReplacement(m.replaceInput.Value())
		if m.finder.ReplaceCurrent() {
			m.edited()
		}
		return nil
	case tea.KeyCtrlA:
		m.finder.SetReplacement(m.replaceInput.Value())
		if n := m.finder.ReplaceAll(); n > 0 {
			m.edited()
			m.setInfo(fmt.Sprintf("Replaced %d occurrence(s).", n))
		} else {
			m.setError("No matches.")
		}
		return nil
	}

	var cmd tea.Cmd
	if m.findFocus == 0 {
		before := m.findInput.Value()
		m.findInput, cmd = m.findInput.Update(key)
		if m.findInput.Value() != before {
			m.buffer.ClearSelection()
			m.finder.SetQuery(m.findInput.Value())
		}
		return cmd
	}
	m.replaceInput, cmd = m.replaceInput.Update(key)
	m.finder.SetReplacement(m.replaceInput.Value())
	return cmd
}

func (m *model) toggleFindFocus() tea.Cmd {
	if m.findFocus == 0 {
		m.findFocus = 1
		m.findInput.Blur()
		return m.replaceInput.Focus()
	}
	m.findFocus = 0
	m.replaceInput.Blur()
	return m.findInput.Focus()
}

func (m *model) findStatus() string {
	q := m.finder.Query()
	if q == "" {
		return "Type to search. Enter next, Shift+Tab previous, Tab replace field, Ctrl+R replace, Ctrl+A replace all."
	}
	n := len(m.finder.Matches())
	if n == 0 {
		return fmt.Sprintf("No matches for %q.", q)
	}
	return fmt.Sprintf("Match %d of %d.", m.finder.Index()+1, n)
}

// Rendering

// editorRows renders the visible slice of the wrapped document with the
// cursor drawn in reverse video.
func (m *model) editorRows(height int) []string {
	rows, crow, ccol := editor.VisualRows(m.buffer.Text(), m.layout.editorWidth, m.buffer.Cursor())
	if crow < m.scroll {
		m.scroll = crow
	}
	if crow >= m.scroll+height {
		m.scroll = crow - height + 1
	}
	if m.scroll > len(rows)-1 {
		m.scroll = 0
	}

	out := make([]string, 0, height)
	for i := m.scroll; i < len(rows) && len(out) < height; i++ {
		text := strings.TrimRight(rows[i].Text, " ")
		if i == crow {
			text = drawCursor(rows[i].Text, ccol)
		}
		out = append(out, text)
	}
	return out
}

func drawCursor(row string, col int) string {
	runes := []rune(row)
	if col >= len(runes) {
		return strings.TrimRight(row, " ") + strings.Repeat(" ", col-len([]rune(strings.TrimRight(row, " ")))) + cursorStyle.Render(" ")
	}
	return string(runes[:col]) + cursorStyle.Render(string(runes[col])) + strings.TrimRight(string(runes[col+1:]), " ")
}

func (m *model) editorView() string {
	height := m.layout.editorHeight
	if m.stage == stageFind {
		height = m.layout.findHeight()
	}
	body := strings.Join(m.editorRows(height), "\n")
	if m.stage != stageFind {
		return body
	}
	bar := joinNonEmpty([]string{
		m.findInput.View(),
		m.replaceInput.View(),
		helperStyle.Render(m.layout.fit(m.findStatus())),
	})
	return body + "\n" + findBarStyle.Render(bar)
}

func (m *model) statusBar() string {
	name := m.project.Name
	if m.dirty {
		name += " " + dirtyStyle.Render("●")
	}
	parts := []string{name, fmt.Sprintf("%d words", editor.WordCount(m.buffer.Text()))}
	if h := editor.Outline(m.buffer.Text()); len(h) > 0 {
		line, _ := editor.Position(m.buffer.Text(), m.buffer.Cursor())
		if current := currentHeading(h, m.buffer.Text(), line); current != "" {
			parts = append(parts, current)
		}
	}
	bar := statusBarStyle.Render(m.layout.fit(strings.Join(parts, "  ·  ")))
	for _, kind := range []jobKind{jobKindSave, jobKindExport, jobKindImport} {
		if m.running[kind] > 0 {
			bar += " " + badgeStyle.Render(m.spinner.View()+" "+string(kind))
		}
	}
	return bar
}

// currentHeading returns the last heading at or above line.
func currentHeading(headings []editor.Heading, text string, line int) string {
	current := ""
	for _, h := range headings {
		hl, _ := editor.Position(text, h.Offset)
		if hl > line {
			break
		}
		current = h.Text
	}
	return current
}

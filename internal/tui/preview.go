package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

func (m *model) openPreview() {
	m.stage = stagePreview
	m.renderPreview()
	m.preview.GotoTop()
}

// renderPreview renders the buffer as styled markdown into the preview
// viewport. Frontmatter is left out.
func (m *model) renderPreview() {
	if m.buffer == nil {
		return
	}
	body := stripFrontmatter(m.buffer.Text())
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(m.layout.editorWidth),
	)
	if err != nil {
		m.preview.SetContent(body)
		return
	}
	out, err := r.Render(body)
	if err != nil {
		m.preview.SetContent(body)
		return
	}
	m.preview.SetContent(out)
}

func stripFrontmatter(text string) string {
	if !strings.HasPrefix(text, "---\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \r") == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return text
}

func (m *model) handlePreviewKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc, tea.KeyCtrlG:
		m.stage = stageEditor
		return nil
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(key)
	return cmd
}

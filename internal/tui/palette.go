package tui

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

type paletteCommand struct {
	title       string
	description string
	shortcut    string
	action      func(*model) tea.Cmd
}

type paletteCommands []paletteCommand

func (p paletteCommands) String(i int) string { return strings.ToLower(p[i].title) }
func (p paletteCommands) Len() int            { return len(p) }

func projectCommands() []paletteCommand {
	return []paletteCommand{
		{"New manuscript", "Create an empty manuscript", "n", (*model).actionNewProject},
		{"Open manuscript", "Edit the highlighted manuscript", "Enter", (*model).openSelected},
		{"Delete manuscript", "Remove the highlighted manuscript", "d", func(m *model) tea.Cmd {
			m.actionDeleteProject()
			return nil
		}},
		{"Exports", "Show or hide finished exports", "e", (*model).actionToggleExports},
		{"Quit", "Leave the application", "q", (*model).quit},
	}
}

func editorCommands() []paletteCommand {
	return []paletteCommand{
		{"Save", "Write the manuscript to disk", "Ctrl+S", func(m *model) tea.Cmd { return m.save(false, false) }},
		{"Find and replace", "Search the manuscript", "Ctrl+F", (*model).openFind},
		{"Cite source", "Insert a footnote citation", "Ctrl+R", (*model).openCite},
		{"Sources", "Manage the source list", "Ctrl+O", (*model).openSources},
		{"Export", "Export as PDF, Word or Markdown", "Ctrl+E", func(m *model) tea.Cmd {
			m.openExportFormat()
			return nil
		}},
		{"Preview", "Render the manuscript", "Ctrl+G", func(m *model) tea.Cmd {
			m.openPreview()
			return nil
		}},
		{"Insert frontmatter", "Add title, author, course and style fields", "", (*model).actionInsertFrontmatter},
		{"Insert bibliography", "Append every source as a bibliography", "", (*model).actionInsertBibliography},
		{"Import .bib", "Add sources from a BibTeX file", "", (*model).openBibImport},
		{"Import sources from manuscript", "Copy sources from another manuscript", "", (*model).openImportProject},
		{"Keybindings", "Toggle the key legend", "Ctrl+H", func(m *model) tea.Cmd {
			m.helpVisible = !m.helpVisible
			return nil
		}},
		{"Return to manuscripts", "Save and close the editor", "Esc", (*model).closeEditor},
	}
}

func sourcesCommands() []paletteCommand {
	return []paletteCommand{
		{"Add source", "Open the source form", "a", (*model).openSourceForm},
		{"Delete source", "Remove the highlighted source", "d", func(m *model) tea.Cmd {
			m.actionDeleteSource()
			return nil
		}},
		{"Copy footnote", "Copy the highlighted source as a footnote", "c", func(m *model) tea.Cmd {
			m.actionCopyFootnote()
			return nil
		}},
		{"Copy bibliography entry", "Copy the highlighted source as a bibliography entry", "b", func(m *model) tea.Cmd {
			m.actionCopyBibliography()
			return nil
		}},
		{"Import .bib", "Add sources from a BibTeX file", "i", (*model).openBibImport},
		{"Import sources from manuscript", "Copy sources from another manuscript", "p", (*model).openImportProject},
		{"Back to editor", "Close the source list", "Esc", func(m *model) tea.Cmd {
			m.stage = stageEditor
			return nil
		}},
	}
}

// paletteCommandsFor lists the commands for the screen the palette was
// opened from, alphabetically.
func paletteCommandsFor(from stage) []paletteCommand {
	var cmds []paletteCommand
	switch from {
	case stageProjects:
		cmds = projectCommands()
	case stageSources:
		cmds = sourcesCommands()
	default:
		cmds = editorCommands()
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].title < cmds[j].title })
	return cmds
}

func (m *model) openPalette() tea.Cmd {
	m.paletteReturn = m.stage
	m.paletteInput.SetValue("")
	m.paletteCursor = 0
	m.filterPalette()
	m.stage = stagePalette
	return m.paletteInput.Focus()
}

func (m *model) filterPalette() {
	all := paletteCommands(paletteCommandsFor(m.paletteReturn))
	query := strings.ToLower(strings.TrimSpace(m.paletteInput.Value()))
	if query == "" {
		m.paletteMatches = all
	} else {
		matches := fuzzy.FindFrom(query, all)
		m.paletteMatches = make([]paletteCommand, 0, len(matches))
		for _, match := range matches {
			m.paletteMatches = append(m.paletteMatches, all[match.Index])
		}
	}
	m.paletteCursor = moveIndex(m.paletteCursor, 0, len(m.paletteMatches))
}

func (m *model) handlePaletteKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc, tea.KeyCtrlP:
		m.paletteInput.Blur()
		m.stage = m.paletteReturn
		return nil
	case tea.KeyUp:
		m.paletteCursor = moveIndex(m.paletteCursor, -1, len(m.paletteMatches))
		return nil
	case tea.KeyDown:
		m.paletteCursor = moveIndex(m.paletteCursor, 1, len(m.paletteMatches))
		return nil
	case tea.KeyEnter:
		if len(m.paletteMatches) == 0 {
			return nil
		}
		cmd := m.paletteMatches[m.paletteCursor]
		m.paletteInput.Blur()
		m.stage = m.paletteReturn
		return cmd.action(m)
	}
	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(key)
	m.filterPalette()
	return cmd
}

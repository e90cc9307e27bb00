package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/manuscripts/internal/editor"
	"github.com/csheth/manuscripts/internal/export"
	"github.com/csheth/manuscripts/internal/project"
)

func (m *model) loadProjectsCmd() tea.Cmd {
	store := m.config.Store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		summaries, err := store.List()
		return projectsLoadedMsg{summaries: summaries, err: err}
	}
}

func (m *model) applyProjects(msg projectsLoadedMsg) {
	if msg.err != nil {
		m.setError(msg.err.Error())
		return
	}
	m.summaries = msg.summaries
	m.refilterProjects()
}

func (m *model) refilterProjects() {
	m.filtered = project.Filter(m.summaries, m.searchInput.Value())
	m.projectCursor = moveIndex(m.projectCursor, 0, len(m.filtered))
}

func (m *model) selectedSummary() (project.Summary, bool) {
	if len(m.filtered) == 0 {
		return project.Summary{}, false
	}
	return m.filtered[m.projectCursor], true
}

func (m *model) handleProjectsKey(key tea.KeyMsg) tea.Cmd {
	if m.searchInput.Focused() {
		switch key.Type {
		case tea.KeyEsc:
			m.searchInput.Blur()
			return nil
		case tea.KeyEnter:
			m.searchInput.Blur()
			return m.openSelected()
		case tea.KeyUp, tea.KeyDown:
			m.searchInput.Blur()
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(key)
			m.refilterProjects()
			return cmd
		}
	}

	if m.showExports {
		if cmd, handled := m.handleExportsKey(key); handled {
			return cmd
		}
	}

	switch key.String() {
	case "up", "k":
		m.projectCursor = moveIndex(m.projectCursor, -1, len(m.filtered))
	case "down", "j":
		m.projectCursor = moveIndex(m.projectCursor, 1, len(m.filtered))
	case "enter":
		return m.openSelected()
	case "/":
		return m.searchInput.Focus()
	case "n":
		return m.actionNewProject()
	case "d":
		m.actionDeleteProject()
	case "e":
		return m.actionToggleExports()
	case "ctrl+p":
		return m.openPalette()
	case "?":
		m.helpVisible = !m.helpVisible
	case "q", "esc":
		return m.quit()
	}
	return nil
}

func (m *model) openSelected() tea.Cmd {
	summary, ok := m.selectedSummary()
	if !ok {
		return nil
	}
	store := m.config.Store
	return func() tea.Msg {
		p, err := store.Load(summary.ID)
		return projectOpenedMsg{project: p, err: err}
	}
}

func (m *model) actionNewProject() tea.Cmd {
	m.stage = stageNewProject
	m.nameInput.SetValue("")
	m.errorMessage = ""
	return m.nameInput.Focus()
}

func (m *model) handleNewProjectKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.nameInput.Blur()
		m.stage = stageProjects
		return nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput.Value())
		if err := project.ValidateName(name); err != nil {
			m.setError(err.Error())
			return nil
		}
		m.nameInput.Blur()
		m.stage = stageProjects
		store := m.config.Store
		return func() tea.Msg {
			p, err := store.Create(name)
			return projectOpenedMsg{project: p, err: err}
		}
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(key)
	return cmd
}

func (m *model) actionDeleteProject() {
	summary, ok := m.selectedSummary()
	if !ok {
		return
	}
	m.pendingDelete = summary
	m.stage = stageConfirmDelete
}

func (m *model) handleConfirmDeleteKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "y", "Y":
		m.stage = stageProjects
		target := m.pendingDelete
		store := m.config.Store
		return func() tea.Msg {
			return projectDeletedMsg{name: target.Name, err: store.Delete(target.ID)}
		}
	case "n", "N", "esc":
		m.stage = stageProjects
		m.setInfo("Delete cancelled.")
	}
	return nil
}

func (m *model) applyOpened(msg projectOpenedMsg) {
	if msg.err != nil {
		if errors.Is(msg.err, project.ErrNotFound) {
			m.setError("That manuscript no longer exists.")
		} else {
			m.setError(msg.err.Error())
		}
		return
	}
	p := msg.project
	m.project = &p
	m.buffer = editor.NewBuffer(p.Content)
	m.finder = editor.NewFinder(m.buffer)
	m.dirty = false
	m.scroll = 0
	m.helpVisible = false
	m.showExports = false
	m.stage = stageEditor
	m.setInfo(fmt.Sprintf("Editing %s. Ctrl+H lists keys, Esc saves and returns.", p.Name))
}

func (m *model) actionToggleExports() tea.Cmd {
	m.showExports = !m.showExports
	if !m.showExports {
		return nil
	}
	return m.loadExportsCmd()
}

func (m *model) loadExportsCmd() tea.Cmd {
	if m.config.Store == nil {
		return nil
	}
	dir := m.config.Store.ExportsDir()
	return func() tea.Msg {
		files, err := export.ListExports(dir)
		return exportsLoadedMsg{files: files, err: err}
	}
}

func (m *model) selectedExport() (export.File, bool) {
	if len(m.exports) == 0 {
		return export.File{}, false
	}
	return m.exports[m.exportCursor], true
}

// handleExportsKey drives the exports panel. Keys it does not own fall
// through to the project list.
func (m *model) handleExportsKey(key tea.KeyMsg) (tea.Cmd, bool) {
	switch key.String() {
	case "up", "k":
		m.exportCursor = moveIndex(m.exportCursor, -1, len(m.exports))
	case "down", "j":
		m.exportCursor = moveIndex(m.exportCursor, 1, len(m.exports))
	case "enter", "o":
		file, ok := m.selectedExport()
		if !ok {
			return nil, true
		}
		return func() tea.Msg { return openedFileMsg{err: export.Open(file.Path)} }, true
	case "p":
		file, ok := m.selectedExport()
		if !ok {
			return nil, true
		}
		if file.Format != export.FormatPDF {
			m.setError("Only PDFs can be printed.")
			return nil, true
		}
		m.submitFile = file
		return m.jobs.Start(jobKindPrint, printersJob(m.config.Printers)), true
	case "s":
		file, ok := m.selectedExport()
		if !ok {
			return nil, true
		}
		m.submitFile = file
		m.setInfo("Looking for teachers on the network…")
		return m.jobs.Start(jobKindDiscover, discoverJob(m.config.Discover)), true
	case "r":
		return m.loadExportsCmd(), true
	default:
		return nil, false
	}
	return nil, true
}

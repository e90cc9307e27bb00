package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/manuscripts/internal/citation"
	"github.com/csheth/manuscripts/internal/editor"
	"github.com/csheth/manuscripts/internal/project"
)

type bibImportedMsg struct {
	path    string
	sources []citation.Source
	err     error
}

type importProjectsMsg struct {
	projects []project.Project
	err      error
}

func (m *model) refilterSources() {
	m.sourceResults = citation.Filter(m.project.Sources, m.sourceFilter.Value())
	m.sourceCursor = moveIndex(m.sourceCursor, 0, len(m.sourceResults))
}

func (m *model) selectedSource() (citation.Source, bool) {
	if len(m.sourceResults) == 0 {
		return citation.Source{}, false
	}
	return m.sourceResults[m.sourceCursor], true
}

// Cite picker

func (m *model) openCite() tea.Cmd {
	if len(m.project.Sources) == 0 {
		m.setError(noSourcesHint)
		return nil
	}
	m.sourceFilter.SetValue("")
	m.sourceCursor = 0
	m.refilterSources()
	m.stage = stageCite
	return m.sourceFilter.Focus()
}

func (m *model) handleCiteKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.sourceFilter.Blur()
		m.stage = stageEditor
		return nil
	case tea.KeyUp:
		m.sourceCursor = moveIndex(m.sourceCursor, -1, len(m.sourceResults))
		return nil
	case tea.KeyDown:
		m.sourceCursor = moveIndex(m.sourceCursor, 1, len(m.sourceResults))
		return nil
	case tea.KeyEnter:
		src, ok := m.selectedSource()
		if !ok {
			return nil
		}
		m.sourceFilter.Blur()
		m.stage = stageEditor
		m.buffer.ClearSelection()
		editor.InsertText(m.buffer, "^["+src.Footnote("")+"]")
		m.edited()
		m.setInfo("Cited " + src.Citekey() + ".")
		return nil
	}
	var cmd tea.Cmd
	m.sourceFilter, cmd = m.sourceFilter.Update(key)
	m.refilterSources()
	return cmd
}

// Sources screen

func (m *model) openSources() tea.Cmd {
	m.sourceFilter.SetValue("")
	m.sourceFilter.Blur()
	m.sourceCursor = 0
	m.refilterSources()
	m.stage = stageSources
	return nil
}

func (m *model) handleSourcesKey(key tea.KeyMsg) tea.Cmd {
	if m.sourceFilter.Focused() {
		switch key.Type {
		case tea.KeyEsc, tea.KeyEnter:
			m.sourceFilter.Blur()
			return nil
		case tea.KeyUp, tea.KeyDown:
			m.sourceFilter.Blur()
		default:
			var cmd tea.Cmd
			m.sourceFilter, cmd = m.sourceFilter.Update(key)
			m.refilterSources()
			return cmd
		}
	}

	switch key.String() {
	case "up", "k":
		m.sourceCursor = moveIndex(m.sourceCursor, -1, len(m.sourceResults))
	case "down", "j":
		m.sourceCursor = moveIndex(m.sourceCursor, 1, len(m.sourceResults))
	case "/":
		return m.sourceFilter.Focus()
	case "a":
		return m.openSourceForm()
	case "d":
		m.actionDeleteSource()
	case "i":
		return m.openBibImport()
	case "p":
		return m.openImportProject()
	case "c":
		m.actionCopyFootnote()
	case "b":
		m.actionCopyBibliography()
	case "ctrl+p":
		return m.openPalette()
	case "esc", "q":
		m.stage = stageEditor
	}
	return nil
}

func (m *model) actionDeleteSource() {
	src, ok := m.selectedSource()
	if !ok {
		return
	}
	if m.project.RemoveSource(src.ID) {
		m.dirty = true
		m.setInfo("Removed " + src.Citekey() + ".")
	}
	m.refilterSources()
}

func (m *model) actionCopyFootnote() {
	src, ok := m.selectedSource()
	if !ok {
		return
	}
	m.copyToClipboard(src.Footnote(""), "Footnote copied.")
}

func (m *model) actionCopyBibliography() {
	src, ok := m.selectedSource()
	if !ok {
		return
	}
	m.copyToClipboard(src.Bibliography(), "Bibliography entry copied.")
}

func (m *model) copyToClipboard(text, done string) {
	if err := m.config.Clipboard(text); err != nil {
		m.setError("Clipboard unavailable: " + err.Error())
		return
	}
	m.setInfo(done)
}

// Source form

func (m *model) openSourceForm() tea.Cmd {
	m.formType = 0
	m.buildSourceForm(nil)
	m.stage = stageSourceForm
	return m.formInputs[0].Focus()
}

// buildSourceForm lays out the inputs for the current type, carrying over
// values whose keys survive the type switch.
func (m *model) buildSourceForm(previous map[string]string) {
	m.formFields = citation.FieldsFor(citation.SourceTypes[m.formType])
	m.formInputs = make([]textinput.Model, len(m.formFields))
	for i, field := range m.formFields {
		in := newInput(field.Label, 50)
		in.Prompt = fmt.Sprintf("%-22s", field.Label+":")
		in.SetValue(previous[field.Key])
		m.formInputs[i] = in
	}
	m.formFocus = 0
}

func (m *model) formValues() map[string]string {
	values := make(map[string]string, len(m.formFields))
	for i, field := range m.formFields {
		values[field.Key] = m.formInputs[i].Value()
	}
	return values
}

func (m *model) handleSourceFormKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.stage = stageSources
		return nil
	case tea.KeyCtrlT:
		m.formType = (m.formType + 1) % len(citation.SourceTypes)
		m.buildSourceForm(m.formValues())
		return m.formInputs[0].Focus()
	case tea.KeyTab, tea.KeyDown:
		return m.focusFormInput(m.formFocus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.focusFormInput(m.formFocus - 1)
	case tea.KeyEnter:
		if m.formFocus < len(m.formInputs)-1 {
			return m.focusFormInput(m.formFocus + 1)
		}
		m.submitSourceForm()
		return nil
	case tea.KeyCtrlS:
		m.submitSourceForm()
		return nil
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(key)
	return cmd
}

func (m *model) focusFormInput(idx int) tea.Cmd {
	idx = moveIndex(idx, 0, len(m.formInputs))
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.formFocus = idx
	return m.formInputs[idx].Focus()
}

func (m *model) submitSourceForm() {
	src, err := citation.NewSource(citation.SourceTypes[m.formType], m.formValues())
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.project.AddSource(src)
	m.dirty = true
	m.stage = stageSources
	m.refilterSources()
	m.setInfo("Added " + src.Citekey() + ".")
}

// BibTeX import

func (m *model) openBibImport() tea.Cmd {
	m.pathInput.SetValue("")
	m.stage = stageBibImport
	return m.pathInput.Focus()
}

func bibImportJob(path string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return bibImportedMsg{path: path, err: err}, err
		}
		return bibImportedMsg{path: path, sources: citation.ParseBibTeX(string(data))}, nil
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (m *model) handleBibImportKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.pathInput.Blur()
		m.stage = stageSources
		return nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			m.setError("Enter the path to a .bib file.")
			return nil
		}
		m.pathInput.Blur()
		m.stage = stageSources
		return m.jobs.Start(jobKindImport, bibImportJob(expandHome(path)))
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(key)
	return cmd
}

func (m *model) applyBibImport(msg bibImportedMsg) {
	if msg.err != nil {
		m.setError("Import failed: " + msg.err.Error())
		return
	}
	if m.project == nil {
		return
	}
	if len(msg.sources) == 0 {
		m.setError("No entries found in " + filepath.Base(msg.path) + ".")
		return
	}
	for _, src := range msg.sources {
		m.project.AddSource(src)
	}
	m.dirty = true
	m.refilterSources()
	m.setInfo(fmt.Sprintf("Imported %d source(s) from %s.", len(msg.sources), filepath.Base(msg.path)))
}

// Import from another project

func (m *model) openImportProject() tea.Cmd {
	store := m.config.Store
	current := m.project.ID
	return m.jobs.Start(jobKindImport, func(context.Context) (tea.Msg, error) {
		all, err := store.LoadAll()
		if err != nil {
			return importProjectsMsg{err: err}, err
		}
		var others []project.Project
		for _, p := range all {
			if p.ID != current && len(p.Sources) > 0 {
				others = append(others, p)
			}
		}
		return importProjectsMsg{projects: others}, nil
	})
}

func (m *model) applyImportProjects(msg importProjectsMsg) {
	if msg.err != nil {
		m.setError("Could not list manuscripts: " + msg.err.Error())
		return
	}
	if m.project == nil {
		return
	}
	if len(msg.projects) == 0 {
		m.setError("No other manuscripts have sources.")
		return
	}
	m.importProjects = msg.projects
	m.importCursor = 0
	m.stage = stageImportProject
}

func (m *model) handleImportProjectKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		m.importCursor = moveIndex(m.importCursor, -1, len(m.importProjects))
	case "down", "j":
		m.importCursor = moveIndex(m.importCursor, 1, len(m.importProjects))
	case "enter":
		from := m.importProjects[m.importCursor]
		n := m.project.ImportSources(from)
		m.stage = stageSources
		m.refilterSources()
		if n == 0 {
			m.setInfo("All sources from " + from.Name + " are already here.")
			return nil
		}
		m.dirty = true
		m.setInfo(fmt.Sprintf("Imported %d source(s) from %s.", n, from.Name))
	case "esc":
		m.stage = stageSources
	}
	return nil
}

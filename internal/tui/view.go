package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/manuscripts/internal/citation"
	"github.com/csheth/manuscripts/internal/export"
)

func (m *model) View() string {
	var body string
	switch m.stage {
	case stageProjects:
		body = m.viewProjects()
	case stageNewProject:
		body = m.viewNewProject()
	case stageConfirmDelete:
		body = m.viewConfirmDelete()
	case stagePrinters:
		body = m.viewPrinters()
	case stageSubmitTargets:
		body = m.viewTargets()
	case stageSubmitForm:
		body = m.viewSubmitForm()
	case stageEditor, stageFind:
		body = m.editorView()
	case stageCite:
		body = m.viewCite()
	case stageSources:
		body = m.viewSources()
	case stageSourceForm:
		body = m.viewSourceForm()
	case stageBibImport:
		body = m.viewBibImport()
	case stageImportProject:
		body = m.viewImportProject()
	case stageExportFormat:
		body = m.viewExportFormat()
	case stagePalette:
		body = m.viewPalette()
	case stagePreview:
		body = m.preview.View()
	}

	parts := []string{m.headerView(), body}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	parts = append(parts, m.noticeView())
	if m.project != nil && editorStages[m.stage] {
		parts = append(parts, m.statusBar())
	}
	return joinNonEmpty(parts)
}

func (m *model) headerView() string {
	title := titleStyle.Render("Manuscripts")
	if m.project != nil && editorStages[m.stage] {
		title += helperStyle.Render("  /  ") + nameStyle.Render(m.project.Name)
	}
	return title
}

func (m *model) noticeView() string {
	if m.errorMessage != "" {
		return errorStyle.Render(m.layout.wrap(m.errorMessage))
	}
	if m.infoMessage == "" {
		return ""
	}
	message := m.infoMessage
	if m.busy() {
		message = m.spinner.View() + " " + message
	}
	return infoStyle.Render(m.layout.wrap(message))
}

// renderList draws labels with the cursor row highlighted, scrolled so the
// cursor stays visible.
func (m *model) renderList(labels []string, cursor, height int) string {
	start, end := window(len(labels), cursor, height)
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		label := m.layout.fit(labels[i])
		if i == cursor {
			rows = append(rows, selectedItemStyle.Render("▸ "+label))
			continue
		}
		rows = append(rows, "  "+label)
	}
	return strings.Join(rows, "\n")
}

func (m *model) viewProjects() string {
	parts := []string{sectionHeaderStyle.Render("Manuscripts"), m.searchInput.View()}
	height := m.layout.listHeight - 2
	if m.showExports {
		height /= 2
	}
	if len(m.filtered) == 0 {
		if len(m.summaries) == 0 {
			parts = append(parts, helperStyle.Render("No manuscripts yet. Press n to start one."))
		} else {
			parts = append(parts, helperStyle.Render("No manuscripts match this filter."))
		}
	} else {
		labels := make([]string, len(m.filtered))
		for i, s := range m.filtered {
			labels[i] = s.Label()
		}
		parts = append(parts, m.renderList(labels, m.projectCursor, height))
	}
	if m.showExports {
		parts = append(parts, m.viewExports(height))
	}
	return joinNonEmpty(parts)
}

func (m *model) viewExports(height int) string {
	parts := []string{sectionHeaderStyle.Render("Exports")}
	if len(m.exports) == 0 {
		parts = append(parts, helperStyle.Render("Nothing exported yet."))
	} else {
		labels := make([]string, len(m.exports))
		for i, f := range m.exports {
			labels[i] = f.Label()
		}
		parts = append(parts, m.renderList(labels, m.exportCursor, height))
	}
	parts = append(parts, helperStyle.Render("o open  p print  s submit  r reload  e hide"))
	return panelStyle.Render(strings.Join(parts, "\n"))
}

func (m *model) viewNewProject() string {
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("New manuscript"),
		m.nameInput.View(),
		helperStyle.Render("Enter to create, Esc to cancel."),
	})
}

func (m *model) viewConfirmDelete() string {
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Delete manuscript"),
		fmt.Sprintf("Delete %s? This cannot be undone.", nameStyle.Render(m.pendingDelete.Name)),
		helperStyle.Render("y to delete, n to keep."),
	})
}

func (m *model) viewPrinters() string {
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Print " + m.submitFile.Name),
		m.renderList(m.printers, m.printerCursor, m.layout.listHeight),
		helperStyle.Render("Enter to print, Esc to cancel."),
	})
}

func (m *model) viewTargets() string {
	labels := make([]string, len(m.targets))
	for i, t := range m.targets {
		labels[i] = t.Label()
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Submit " + m.submitFile.Name),
		m.renderList(labels, m.targetCursor, m.layout.listHeight),
		helperStyle.Render("Enter to choose a teacher, Esc to cancel."),
	})
}

func (m *model) viewSubmitForm() string {
	parts := []string{sectionHeaderStyle.Render("Submit to " + m.submitTarget.Teacher)}
	for _, in := range m.submitInputs {
		parts = append(parts, in.View())
	}
	parts = append(parts, helperStyle.Render("Tab moves between fields, Enter on the last field sends, Esc cancels."))
	return strings.Join(parts, "\n")
}

func sourceLabels(sources []citation.Source) []string {
	labels := make([]string, len(sources))
	for i, src := range sources {
		labels[i] = fmt.Sprintf("%-18s %s", src.Citekey(), src.Footnote(""))
	}
	return labels
}

func (m *model) viewCite() string {
	parts := []string{sectionHeaderStyle.Render("Cite"), m.sourceFilter.View()}
	if len(m.sourceResults) == 0 {
		parts = append(parts, helperStyle.Render("No sources match this filter."))
	} else {
		parts = append(parts, m.renderList(sourceLabels(m.sourceResults), m.sourceCursor, m.layout.listHeight-2))
	}
	parts = append(parts, helperStyle.Render("Enter inserts the footnote, Esc cancels."))
	return joinNonEmpty(parts)
}

func (m *model) viewSources() string {
	parts := []string{
		sectionHeaderStyle.Render(fmt.Sprintf("Sources (%d)", len(m.project.Sources))),
		m.sourceFilter.View(),
	}
	switch {
	case len(m.project.Sources) == 0:
		parts = append(parts, helperStyle.Render("No sources yet. Press a to add one or i to import a .bib file."))
	case len(m.sourceResults) == 0:
		parts = append(parts, helperStyle.Render("No sources match this filter."))
	default:
		parts = append(parts, m.renderList(sourceLabels(m.sourceResults), m.sourceCursor, m.layout.listHeight-4))
		if src, ok := m.selectedSource(); ok {
			parts = append(parts, helperStyle.Render(m.layout.wrap(src.Bibliography())))
		}
	}
	parts = append(parts, helperStyle.Render("a add  d delete  c copy footnote  b copy entry  i import .bib  p import from manuscript  / filter  Esc back"))
	return joinNonEmpty(parts)
}

func (m *model) viewSourceForm() string {
	types := make([]string, len(citation.SourceTypes))
	for i, t := range citation.SourceTypes {
		label := strings.ReplaceAll(string(t), "_", " ")
		if i == m.formType {
			label = selectedItemStyle.Render(" " + label + " ")
		} else {
			label = helperStyle.Render(" " + label + " ")
		}
		types[i] = label
	}
	parts := []string{
		sectionHeaderStyle.Render("New source"),
		lipgloss.JoinHorizontal(lipgloss.Top, types...),
		"",
	}
	for _, in := range m.formInputs {
		parts = append(parts, in.View())
	}
	parts = append(parts, "", helperStyle.Render("Ctrl+T switches type, Tab moves, Ctrl+S saves, Esc cancels."))
	return strings.Join(parts, "\n")
}

func (m *model) viewBibImport() string {
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Import BibTeX"),
		m.pathInput.View(),
		helperStyle.Render("Enter the path to a .bib file. Enter imports, Esc cancels."),
	})
}

func (m *model) viewImportProject() string {
	labels := make([]string, len(m.importProjects))
	for i, p := range m.importProjects {
		labels[i] = fmt.Sprintf("%s (%d sources)", p.Name, len(p.Sources))
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Import sources from"),
		m.renderList(labels, m.importCursor, m.layout.listHeight),
		helperStyle.Render("Enter imports, Esc cancels."),
	})
}

func (m *model) viewExportFormat() string {
	labels := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		labels[i] = fmt.Sprintf("%d  %s", i+1, formatLabels[f])
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render("Export " + m.project.Name),
		m.renderList(labels, m.formatCursor, len(labels)),
		helperStyle.Render("Enter or 1-3 to export, Esc to cancel."),
	})
}

func (m *model) viewPalette() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Command Palette"))
	b.WriteRune('\n')
	b.WriteString(m.paletteInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Enter to run, Esc to cancel."))
	b.WriteString("\n\n")
	if len(m.paletteMatches) == 0 {
		b.WriteString(helperStyle.Render("No commands match this filter."))
		return b.String()
	}
	start, end := window(len(m.paletteMatches), m.paletteCursor, (m.layout.listHeight-3)/2)
	for idx := start; idx < end; idx++ {
		cmd := m.paletteMatches[idx]
		label := "  " + cmd.title
		if cmd.shortcut != "" {
			label += "  [" + cmd.shortcut + "]"
		}
		if idx == m.paletteCursor {
			label = selectedItemStyle.Render("▸" + label[1:])
		}
		b.WriteString(label)
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render("   " + cmd.description))
		b.WriteRune('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) keyHints() []keyHint {
	switch m.stage {
	case stageProjects:
		return []keyHint{
			{"Enter", "Open"},
			{"n", "New"},
			{"d", "Delete"},
			{"/", "Search"},
			{"e", "Exports"},
			{"Ctrl+P", "Commands"},
			{"q", "Quit"},
		}
	case stageSources:
		return []keyHint{
			{"a", "Add"},
			{"d", "Delete"},
			{"c", "Copy footnote"},
			{"b", "Copy entry"},
			{"i", "Import .bib"},
			{"/", "Filter"},
		}
	}
	return []keyHint{
		{"Ctrl+S", "Save"},
		{"Ctrl+F", "Find"},
		{"Ctrl+B", "Bold"},
		{"Ctrl+T", "Italic"},
		{"Ctrl+N", "Footnote"},
		{"Ctrl+R", "Cite"},
		{"Ctrl+O", "Sources"},
		{"Ctrl+E", "Export"},
		{"Ctrl+G", "Preview"},
		{"Ctrl+P", "Commands"},
		{"Ctrl+H", "Hide keys"},
		{"Esc", "Save and close"},
	}
}

func (m *model) keyLegendView() string {
	hints := m.keyHints()
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(fmt.Sprintf(" %-14s", hint.Description))
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/manuscripts/internal/export"
)

type exportResultMsg struct {
	result export.Result
}

var formatLabels = map[export.Format]string{
	export.FormatPDF:      "PDF (pandoc + LibreOffice)",
	export.FormatDOCX:     "Word document (pandoc)",
	export.FormatMarkdown: "Markdown",
}

func exportJob(pipeline *export.Pipeline, req export.Request) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		res := pipeline.Run(ctx, req)
		return exportResultMsg{result: res}, res.Err
	}
}

func (m *model) openExportFormat() {
	if m.config.Pipeline == nil {
		m.setError("Export is not configured.")
		return
	}
	m.formatCursor = 0
	m.stage = stageExportFormat
}

func (m *model) handleExportFormatKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		m.formatCursor = moveIndex(m.formatCursor, -1, len(export.Formats))
	case "down", "j":
		m.formatCursor = moveIndex(m.formatCursor, 1, len(export.Formats))
	case "1", "2", "3":
		m.formatCursor = int(key.Runes[0] - '1')
		return m.startExport(export.Formats[m.formatCursor])
	case "enter":
		return m.startExport(export.Formats[m.formatCursor])
	case "esc":
		m.stage = stageEditor
	}
	return nil
}

// startExport saves the project and exports a snapshot of the buffer.
func (m *model) startExport(format export.Format) tea.Cmd {
	m.stage = stageEditor
	if m.running[jobKindExport] > 0 {
		m.setError("An export is already running.")
		return nil
	}
	req := export.Request{
		ProjectID: m.project.ID,
		Name:      m.project.Name,
		Text:      m.buffer.Text(),
		Format:    format,
	}
	m.setInfo(fmt.Sprintf("Exporting %s as %s…", m.project.Name, strings.ToUpper(string(format))))
	return tea.Batch(
		m.save(false, true),
		m.jobs.Start(jobKindExport, exportJob(m.config.Pipeline, req)),
	)
}

func (m *model) applyExported(msg exportResultMsg) tea.Cmd {
	res := msg.result
	if !res.OK() {
		m.setError(res.Message)
		return nil
	}
	m.setInfo(res.Message)
	return m.loadExportsCmd()
}

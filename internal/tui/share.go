package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/manuscripts/internal/receiver"
)

type printersMsg struct {
	printers []string
}

type printResultMsg struct {
	printer string
	err     error
}

type discoverResultMsg struct {
	targets []receiver.Target
	err     error
}

type submitResultMsg struct {
	teacher string
	reply   receiver.Reply
	err     error
}

func printersJob(list func(context.Context) []string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, printTimeout)
		defer cancel()
		return printersMsg{printers: list(ctx)}, nil
	}
}

func printJob(send func(context.Context, string, string) error, printer, path string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, printTimeout)
		defer cancel()
		err := send(ctx, printer, path)
		return printResultMsg{printer: printer, err: err}, err
	}
}

func discoverJob(discover func(context.Context) ([]receiver.Target, error)) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		targets, err := discover(ctx)
		return discoverResultMsg{targets: targets, err: err}, err
	}
}

func submitJob(submit func(context.Context, receiver.Target, receiver.Submission) (receiver.Reply, error), target receiver.Target, sub receiver.Submission) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, submitTimeout)
		defer cancel()
		reply, err := submit(ctx, target, sub)
		return submitResultMsg{teacher: target.Teacher, reply: reply, err: err}, err
	}
}

func (m *model) applyPrinters(msg printersMsg) {
	if len(msg.printers) == 0 {
		m.setError("No printers found.")
		return
	}
	m.printers = msg.printers
	m.printerCursor = 0
	m.stage = stagePrinters
}

func (m *model) handlePrintersKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		m.printerCursor = moveIndex(m.printerCursor, -1, len(m.printers))
	case "down", "j":
		m.printerCursor = moveIndex(m.printerCursor, 1, len(m.printers))
	case "enter":
		m.stage = stageProjects
		printer := m.printers[m.printerCursor]
		m.setInfo(fmt.Sprintf("Sending %s to %s…", m.submitFile.Name, printer))
		return m.jobs.Start(jobKindPrint, printJob(m.config.Print, printer, m.submitFile.Path))
	case "esc":
		m.stage = stageProjects
	}
	return nil
}

func (m *model) applyPrinted(msg printResultMsg) {
	if msg.err != nil {
		m.setError("Print failed: " + msg.err.Error())
		return
	}
	m.setInfo("Sent to " + msg.printer + ".")
}

func (m *model) applyDiscovered(msg discoverResultMsg) {
	if msg.err != nil {
		m.setError("Discovery failed: " + msg.err.Error())
		return
	}
	if len(msg.targets) == 0 {
		m.setError("No teachers found on the network.")
		return
	}
	m.targets = msg.targets
	m.targetCursor = 0
	m.stage = stageSubmitTargets
	m.setInfo(fmt.Sprintf("Found %d teacher(s).", len(msg.targets)))
}

func (m *model) handleTargetsKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		m.targetCursor = moveIndex(m.targetCursor, -1, len(m.targets))
	case "down", "j":
		m.targetCursor = moveIndex(m.targetCursor, 1, len(m.targets))
	case "enter":
		m.submitTarget = m.targets[m.targetCursor]
		return m.startSubmitForm()
	case "esc":
		m.stage = stageProjects
	}
	return nil
}

// startSubmitForm asks for the student name, the title and, when the
// receiver requires it, the password.
func (m *model) startSubmitForm() tea.Cmd {
	student := newInput("Your name", 40)
	student.Prompt = "Student:  "
	student.SetValue(m.config.Student)

	title := newInput("Title", 40)
	title.Prompt = "Title:    "
	stem := strings.TrimSuffix(m.submitFile.Name, filepath.Ext(m.submitFile.Name))
	title.SetValue(strings.ReplaceAll(stem, "_", " "))

	m.submitInputs = []textinput.Model{student, title}
	if m.submitTarget.Auth {
		password := newInput("Password", 40)
		password.Prompt = "Password: "
		password.EchoMode = textinput.EchoPassword
		m.submitInputs = append(m.submitInputs, password)
	}
	m.submitFocus = 0
	m.stage = stageSubmitForm
	return m.submitInputs[0].Focus()
}

func (m *model) handleSubmitFormKey(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		m.stage = stageProjects
		m.setInfo("Submission cancelled.")
		return nil
	case tea.KeyTab, tea.KeyDown:
		return m.focusSubmitInput(m.submitFocus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.focusSubmitInput(m.submitFocus - 1)
	case tea.KeyEnter:
		if m.submitFocus < len(m.submitInputs)-1 {
			return m.focusSubmitInput(m.submitFocus + 1)
		}
		return m.sendSubmission()
	}
	var cmd tea.Cmd
	m.submitInputs[m.submitFocus], cmd = m.submitInputs[m.submitFocus].Update(key)
	return cmd
}

func (m *model) focusSubmitInput(idx int) tea.Cmd {
	idx = moveIndex(idx, 0, len(m.submitInputs))
	for i := range m.submitInputs {
		m.submitInputs[i].Blur()
	}
	m.submitFocus = idx
	return m.submitInputs[idx].Focus()
}

func (m *model) sendSubmission() tea.Cmd {
	sub := receiver.Submission{
		Student: strings.TrimSpace(m.submitInputs[0].Value()),
		Title:   strings.TrimSpace(m.submitInputs[1].Value()),
		Path:    m.submitFile.Path,
	}
	if len(m.submitInputs) > 2 {
		sub.Password = m.submitInputs[2].Value()
	}
	m.stage = stageProjects
	m.setInfo(fmt.Sprintf("Submitting %s to %s…", m.submitFile.Name, m.submitTarget.Teacher))
	return m.jobs.Start(jobKindSubmit, submitJob(m.config.Submit, m.submitTarget, sub))
}

func (m *model) applySubmitted(msg submitResultMsg) {
	if msg.err != nil {
		var rerr *receiver.Error
		if errors.As(msg.err, &rerr) {
			m.setError("Submission rejected: " + rerr.Message)
			return
		}
		m.setError("Submission failed: " + msg.err.Error())
		return
	}
	m.setInfo(fmt.Sprintf("Submitted to %s.", msg.teacher))
}

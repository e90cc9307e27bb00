package tui

import (
	"context"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/manuscripts/internal/citation"
	"github.com/csheth/manuscripts/internal/export"
	"github.com/csheth/manuscripts/internal/logging"
	"github.com/csheth/manuscripts/internal/project"
	"github.com/csheth/manuscripts/internal/receiver"
)

type fakeShare struct {
	clipboard []string
	targets   []receiver.Target
	submitted []receiver.Submission
	submitErr error
}

func (f *fakeShare) copy(text string) error {
	f.clipboard = append(f.clipboard, text)
	return nil
}

func (f *fakeShare) discover(context.Context) ([]receiver.Target, error) {
	return f.targets, nil
}

func (f *fakeShare) submit(_ context.Context, _ receiver.Target, sub receiver.Submission) (receiver.Reply, error) {
	f.submitted = append(f.submitted, sub)
	if f.submitErr != nil {
		return receiver.Reply{}, f.submitErr
	}
	return receiver.Reply{OK: true, Saved: "saved.pdf"}, nil
}

func newTestModel(t *testing.T) (*model, *fakeShare) {
	t.Helper()
	store, err := project.NewStore(t.TempDir(), logging.Discard())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	pipeline := export.NewPipeline(store.ExportsDir(), t.TempDir(), logging.Discard())
	pipeline.Detect = func() export.Tools { return export.Tools{} }

	share := &fakeShare{}
	teaModel, ok := New(Config{
		Store:     store,
		Pipeline:  pipeline,
		Student:   "Ada Lovelace",
		Clipboard: share.copy,
		Discover:  share.discover,
		Submit:    share.submit,
		Printers:  func(context.Context) []string { return []string{"Office"} },
		Print:     func(context.Context, string, string) error { return nil },
	}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	teaModel.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return teaModel, share
}

// openTestProject creates a project holding content and opens it in the
// editor with the cursor at the end.
func openTestProject(t *testing.T, m *model, name, content string) {
	t.Helper()
	p, err := m.config.Store.Create(name)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	p.Content = content
	if err := m.config.Store.Save(&p); err != nil {
		t.Fatalf("save project: %v", err)
	}
	m.Update(projectOpenedMsg{project: p})
	if m.stage != stageEditor {
		t.Fatalf("expected editor stage, got %v", m.stage)
	}
	m.buffer.SetCursor(m.buffer.Len())
}

func gatsby() citation.Source {
	return citation.Source{
		ID:        "src-1",
		Type:      citation.TypeBook,
		Author:    "Fitzgerald, F. Scott",
		Title:     "The Great Gatsby",
		Year:      "1925",
		Publisher: "Scribner",
	}
}

func press(m *model, key tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: key})
	return cmd
}

func typeText(m *model, text string) {
	for _, r := range text {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runJobs executes cmd and every job it starts, returning the finished
// job envelopes. Non-job commands are not run.
func runJobs(t *testing.T, cmd tea.Cmd) []jobResultEnvelope {
	t.Helper()
	if cmd == nil {
		return nil
	}
	v := reflect.ValueOf(cmd())
	if v.Kind() != reflect.Slice {
		return nil
	}
	cmds := make([]tea.Cmd, v.Len())
	for i := range cmds {
		c, ok := v.Index(i).Interface().(tea.Cmd)
		if !ok {
			return nil
		}
		cmds[i] = c
	}
	if len(cmds) == 2 && cmds[0] != nil {
		if _, ok := cmds[0]().(jobSignalMsg); ok {
			env, ok := cmds[1]().(jobResultEnvelope)
			if !ok {
				t.Fatalf("job did not return an envelope")
			}
			return []jobResultEnvelope{env}
		}
	}
	var out []jobResultEnvelope
	for _, c := range cmds {
		out = append(out, runJobs(t, c)...)
	}
	return out
}

// finishJobs runs the jobs started by cmd and feeds their results back
// into the model, returning the follow-up commands.
func finishJobs(t *testing.T, m *model, cmd tea.Cmd) []tea.Cmd {
	t.Helper()
	envs := runJobs(t, cmd)
	if len(envs) == 0 {
		t.Fatalf("expected at least one job")
	}
	var next []tea.Cmd
	for _, env := range envs {
		m.running[env.Snapshot.Kind]++
		_, c := m.Update(env)
		next = append(next, c)
	}
	return next
}

func TestProjectsLoadAndFilter(t *testing.T) {
	m, _ := newTestModel(t)
	for _, name := range []string{"History Essay", "Lab Report", "Poetry Notes"} {
		if _, err := m.config.Store.Create(name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	m.Update(m.loadProjectsCmd()())
	if len(m.filtered) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(m.filtered))
	}

	m.Update(key("/"))
	if !m.searchInput.Focused() {
		t.Fatal("/ should focus the search input")
	}
	typeText(m, "lab")
	if len(m.filtered) != 1 || m.filtered[0].Name != "Lab Report" {
		t.Fatalf("unexpected filter result: %+v", m.filtered)
	}
}

func TestNewProjectRejectsEmptyName(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(key("n"))
	if m.stage != stageNewProject {
		t.Fatalf("expected new project stage, got %v", m.stage)
	}
	if cmd := press(m, tea.KeyEnter); cmd != nil {
		t.Fatal("empty name should not create a project")
	}
	if m.errorMessage == "" {
		t.Fatal("expected a validation error")
	}

	typeText(m, "Thesis")
	cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("expected a create command")
	}
	m.Update(cmd())
	if m.stage != stageEditor || m.project.Name != "Thesis" {
		t.Fatalf("expected Thesis open in editor, stage=%v", m.stage)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	m, _ := newTestModel(t)
	if _, err := m.config.Store.Create("Draft"); err != nil {
		t.Fatalf("create: %v", err)
	}
	m.Update(m.loadProjectsCmd()())

	m.Update(key("d"))
	if m.stage != stageConfirmDelete {
		t.Fatalf("expected confirm stage, got %v", m.stage)
	}
	m.Update(key("n"))
	if summaries, _ := m.config.Store.List(); len(summaries) != 1 {
		t.Fatal("n should keep the project")
	}

	m.Update(key("d"))
	_, cmd := m.Update(key("y"))
	if cmd == nil {
		t.Fatal("expected delete command")
	}
	m.Update(cmd())
	if summaries, _ := m.config.Store.List(); len(summaries) != 0 {
		t.Fatalf("expected project deleted, %d left", len(summaries))
	}
	if !strings.Contains(m.infoMessage, "Deleted Draft") {
		t.Fatalf("unexpected info %q", m.infoMessage)
	}
}

func TestCtrlCSavesDirtyProject(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "")
	typeText(m, "unsaved")

	press(m, tea.KeyCtrlC)

	p, err := m.config.Store.Load(m.project.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Content != "unsaved" {
		t.Fatalf("content not flushed on quit: %q", p.Content)
	}
	if m.ctx.Err() == nil {
		t.Fatal("quit should cancel the model context")
	}
}

func TestPaletteListsCommandsAlphabetically(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "")

	press(m, tea.KeyCtrlP)
	if m.stage != stagePalette {
		t.Fatalf("expected palette, got %v", m.stage)
	}
	for i := 1; i < len(m.paletteMatches); i++ {
		if m.paletteMatches[i-1].title > m.paletteMatches[i].title {
			t.Fatalf("palette not sorted: %q before %q", m.paletteMatches[i-1].title, m.paletteMatches[i].title)
		}
	}

	typeText(m, "frontmatter")
	if len(m.paletteMatches) == 0 || m.paletteMatches[0].title != "Insert frontmatter" {
		t.Fatalf("unexpected matches: %+v", m.paletteMatches)
	}
	press(m, tea.KeyEnter)
	if m.stage != stageEditor {
		t.Fatalf("palette should return to the editor, got %v", m.stage)
	}
	if !strings.HasPrefix(m.buffer.Text(), "---\n") {
		t.Fatalf("frontmatter not inserted: %q", m.buffer.Text())
	}
	if !m.dirty {
		t.Fatal("inserting frontmatter should mark the project dirty")
	}
}

func TestPaletteEscReturnsToOrigin(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, tea.KeyCtrlP)
	if m.stage != stagePalette {
		t.Fatalf("expected palette, got %v", m.stage)
	}
	if m.paletteMatches[0].title != "Delete manuscript" {
		t.Fatalf("unexpected first command %q", m.paletteMatches[0].title)
	}
	press(m, tea.KeyEsc)
	if m.stage != stageProjects {
		t.Fatalf("expected projects, got %v", m.stage)
	}
}

func TestViewShowsStatusBar(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "# Intro\n\nThree words here")
	typeText(m, "!")

	view := m.View()
	for _, want := range []string{"Essay", "5 words", "Intro", "●"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "")
	press(m, tea.KeyCtrlH)
	if !m.helpVisible || !strings.Contains(m.View(), "Save and close") {
		t.Fatal("Ctrl+H should show the key legend")
	}
	press(m, tea.KeyEsc)
	if m.helpVisible || m.stage != stageEditor {
		t.Fatal("Esc should hide the legend before closing the editor")
	}
}

package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCiteWithoutSourcesShowsHint(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "")
	press(m, tea.KeyCtrlR)
	if m.stage != stageEditor {
		t.Fatalf("cite should not open without sources, got %v", m.stage)
	}
	if m.errorMessage != noSourcesHint {
		t.Fatalf("unexpected error %q", m.errorMessage)
	}
}

func TestCiteInsertsFootnote(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "As argued.")
	m.project.AddSource(gatsby())

	press(m, tea.KeyCtrlR)
	if m.stage != stageCite {
		t.Fatalf("expected cite picker, got %v", m.stage)
	}
	typeText(m, "gats")
	if len(m.sourceResults) != 1 {
		t.Fatalf("expected 1 result, got %d", len(m.sourceResults))
	}
	press(m, tea.KeyEnter)

	want := "As argued.^[F. Scott Fitzgerald, *The Great Gatsby* (Scribner, 1925).]"
	if got := m.buffer.Text(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if m.stage != stageEditor || !m.dirty {
		t.Fatalf("cite should return to a dirty editor, stage=%v dirty=%v", m.stage, m.dirty)
	}
}

func TestSourceFormAddsSource(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "")

	press(m, tea.KeyCtrlO)
	if m.stage != stageSources {
		t.Fatalf("expected sources, got %v", m.stage)
	}
	m.Update(key("a"))
	if m.stage != stageSourceForm {
		t.Fatalf("expected source form, got %v", m.stage)
	}

	press(m, tea.KeyCtrlS)
	if m.errorMessage == "" || len(m.project.Sources) != 0 {
		t.Fatal("empty form should be rejected")
	}

	typeText(m, "Morrison, Toni")
	press(m, tea.KeyTab)
	typeText(m, "Beloved")
	press(m, tea.KeyTab)
	typeText(m, "1987")
	press(m, tea.KeyCtrlS)

	if len(m.project.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(m.project.Sources))
	}
	src := m.project.Sources[0]
	if src.Author != "Morrison, Toni" || src.Title != "Beloved" || src.Year != "1987" || src.ID == "" {
		t.Fatalf("unexpected source %+v", src)
	}
	if m.stage != stageSources || !m.dirty {
		t.Fatalf("expected dirty sources screen, stage=%v", m.stage)
	}
	if !strings.Contains(m.infoMessage, "morrison1987") {
		t.Fatalf("unexpected info %q", m.infoMessage)
	}
}

func TestSourceFormTypeSwitchKeepsSharedFields(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "")
	m.openSources()
	m.Update(key("a"))
	typeText(m, "Smith, Jane")

	press(m, tea.KeyCtrlT)
	if m.formType != 1 {
		t.Fatalf("expected book section, got %d", m.formType)
	}
	if m.formFields[1].Label != "Chapter Title" {
		t.Fatalf("unexpected second field %q", m.formFields[1].Label)
	}
	if got := m.formInputs[0].Value(); got != "Smith, Jane" {
		t.Fatalf("author lost on type switch: %q", got)
	}
}

func TestDeleteAndCopySource(t *testing.T) {
	m, share := newTestModel(t)
	openTestProject(t, m, "Essay", "")
	m.project.AddSource(gatsby())
	m.openSources()

	m.Update(key("c"))
	m.Update(key("b"))
	if len(share.clipboard) != 2 {
		t.Fatalf("expected 2 clipboard writes, got %d", len(share.clipboard))
	}
	if share.clipboard[0] != gatsby().Footnote("") || share.clipboard[1] != gatsby().Bibliography() {
		t.Fatalf("unexpected clipboard contents %q", share.clipboard)
	}

	m.Update(key("d"))
	if len(m.project.Sources) != 0 || !m.dirty {
		t.Fatal("d should remove the source and mark the project dirty")
	}
}

func TestBibImportAddsSources(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "")
	path := filepath.Join(t.TempDir(), "library.bib")
	bib := `@book{gatsby,
  author = {Fitzgerald, F. Scott},
  title = {The Great Gatsby},
  year = {1925},
  publisher = {Scribner}
}
@article{smith,
  author = "Smith, Jane",
  title = "On Essays",
  journal = {Review},
  year = {2001}
}`
	if err := os.WriteFile(path, []byte(bib), 0o644); err != nil {
		t.Fatalf("write bib: %v", err)
	}

	m.openSources()
	m.Update(key("i"))
	if m.stage != stageBibImport {
		t.Fatalf("expected bib import, got %v", m.stage)
	}
	m.pathInput.SetValue(path)
	finishJobs(t, m, press(m, tea.KeyEnter))

	if len(m.project.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(m.project.Sources))
	}
	if !strings.Contains(m.infoMessage, "Imported 2 source(s)") {
		t.Fatalf("unexpected info %q", m.infoMessage)
	}
}

func TestBibImportMissingFile(t *testing.T) {
	m, _ := newTestModel(t)
	openTestProject(t, m, "Essay", "")
	m.openSources()
	m.Update(key("i"))
	m.pathInput.SetValue(filepath.Join(t.TempDir(), "missing.bib"))
	finishJobs(t, m, press(m, tea.KeyEnter))
	if !strings.HasPrefix(m.errorMessage, "Import failed") {
		t.Fatalf("unexpected error %q", m.errorMessage)
	}
}

func TestImportSourcesFromProject(t *testing.T) {
	m, _ := newTestModel(t)
	other, err := m.config.Store.Create("Older Essay")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other.AddSource(gatsby())
	if err := m.config.Store.Save(&other); err != nil {
		t.Fatalf("save: %v", err)
	}
	openTestProject(t, m, "Essay", "")
	m.openSources()

	_, cmd := m.Update(key("p"))
	finishJobs(t, m, cmd)
	if m.stage != stageImportProject || len(m.importProjects) != 1 {
		t.Fatalf("expected one candidate, stage=%v", m.stage)
	}
	press(m, tea.KeyEnter)
	if len(m.project.Sources) != 1 {
		t.Fatalf("expected 1 imported source, got %d", len(m.project.Sources))
	}

	_, cmd = m.Update(key("p"))
	finishJobs(t, m, cmd)
	press(m, tea.KeyEnter)
	if len(m.project.Sources) != 1 || !strings.Contains(m.infoMessage, "already here") {
		t.Fatalf("second import should add nothing, info %q", m.infoMessage)
	}
}

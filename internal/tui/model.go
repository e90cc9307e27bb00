package tui

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/manuscripts/internal/citation"
	"github.com/csheth/manuscripts/internal/editor"
	"github.com/csheth/manuscripts/internal/export"
	"github.com/csheth/manuscripts/internal/logging"
	"github.com/csheth/manuscripts/internal/project"
	"github.com/csheth/manuscripts/internal/receiver"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Store            *project.Store
	Pipeline         *export.Pipeline
	AutosaveInterval time.Duration
	WrapWidth        int
	Watch            bool
	Student          string
	Logger           *slog.Logger

	// Clipboard, Discover, Submit and Print default to the real system
	// integrations.
	Clipboard func(text string) error
	Discover  func(ctx context.Context) ([]receiver.Target, error)
	Submit    func(ctx context.Context, target receiver.Target, sub receiver.Submission) (receiver.Reply, error)
	Printers  func(ctx context.Context) []string
	Print     func(ctx context.Context, printer, path string) error
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}
	if c.Clipboard == nil {
		c.Clipboard = clipboard.WriteAll
	}
	if c.Discover == nil {
		c.Discover = func(ctx context.Context) ([]receiver.Target, error) {
			return receiver.Discover(ctx, discoverTimeout)
		}
	}
	if c.Submit == nil {
		c.Submit = func(ctx context.Context, target receiver.Target, sub receiver.Submission) (receiver.Reply, error) {
			return receiver.Submit(ctx, &http.Client{Timeout: submitTimeout}, target.URL(), sub)
		}
	}
	if c.Printers == nil {
		c.Printers = export.Printers
	}
	if c.Print == nil {
		c.Print = export.Print
	}
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	config.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	searchInput := newInput("Search manuscripts…", 60)
	nameInput := newInput("Manuscript name", 60)
	findInput := newInput("Find", 40)
	findInput.Prompt = "Find:    "
	replaceInput := newInput("Replace with", 40)
	replaceInput.Prompt = "Replace: "
	sourceFilter := newInput("Filter sources…", 60)
	pathInput := newInput("~/Downloads/library.bib", 70)
	paletteInput := newInput("Type a command…", 60)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &model{
		config:       config,
		ctx:          ctx,
		cancel:       cancel,
		stage:        stageProjects,
		layout:       newPageLayout(config.WrapWidth),
		jobs:         newJobBus(ctx, config.Logger),
		running:      map[jobKind]int{},
		spinner:      spin,
		searchInput:  searchInput,
		nameInput:    nameInput,
		findInput:    findInput,
		replaceInput: replaceInput,
		sourceFilter: sourceFilter,
		pathInput:    pathInput,
		paletteInput: paletteInput,
		preview:      viewport.New(80, 20),
		changes:      make(chan struct{}, 1),
		infoMessage:  "Enter opens a manuscript. n creates one, Ctrl+P lists commands.",
	}
}

func newInput(placeholder string, width int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 256
	in.Width = width
	return in
}

type model struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	stage  stage
	layout pageLayout

	jobs    *jobBus
	running map[jobKind]int
	spinner spinner.Model
	changes chan struct{}

	// projects screen
	summaries     []project.Summary
	filtered      []project.Summary
	projectCursor int
	searchInput   textinput.Model
	nameInput     textinput.Model
	pendingDelete project.Summary
	showExports   bool
	exports       []export.File
	exportCursor  int
	printers      []string
	printerCursor int
	targets       []receiver.Target
	targetCursor  int
	submitFile    export.File
	submitTarget  receiver.Target
	submitInputs  []textinput.Model
	submitFocus   int

	// editor screen
	project      *project.Project
	buffer       *editor.Buffer
	finder       *editor.Finder
	findInput    textinput.Model
	replaceInput textinput.Model
	findFocus    int
	dirty        bool
	scroll       int
	helpVisible  bool
	preview      viewport.Model
	formatCursor int

	// sources
	sourceFilter   textinput.Model
	sourceResults  []citation.Source
	sourceCursor   int
	formType       int
	formFields     []citation.Field
	formInputs     []textinput.Model
	formFocus      int
	pathInput      textinput.Model
	importProjects []project.Project
	importCursor   int

	// palette
	paletteInput   textinput.Model
	paletteReturn  stage
	paletteMatches []paletteCommand
	paletteCursor  int

	infoMessage  string
	errorMessage string
}

type projectsLoadedMsg struct {
	summaries []project.Summary
	err       error
}

type projectsChangedMsg struct{}

type projectOpenedMsg struct {
	project project.Project
	err     error
}

type projectDeletedMsg struct {
	name string
	err  error
}

type autosaveTickMsg struct{}

type exportsLoadedMsg struct {
	files []export.File
	err   error
}

type openedFileMsg struct {
	err error
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.config.Store != nil {
		cmds = append(cmds, m.loadProjectsCmd())
		if m.config.Watch {
			m.startWatcher()
			cmds = append(cmds, m.waitForChange())
		}
	}
	if m.config.AutosaveInterval > 0 {
		cmds = append(cmds, m.autosaveTick())
	}
	return tea.Batch(cmds...)
}

func (m *model) startWatcher() {
	store := m.config.Store
	logger := m.config.Logger
	changes := m.changes
	go func() {
		err := store.Watch(m.ctx, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		if err != nil {
			logger.Warn("project watcher stopped", slog.String("error", err.Error()))
		}
	}()
}

func (m *model) waitForChange() tea.Cmd {
	changes := m.changes
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-changes:
			return projectsChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *model) autosaveTick() tea.Cmd {
	return tea.Tick(m.config.AutosaveInterval, func(time.Time) tea.Msg { return autosaveTickMsg{} })
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.preview.Width = m.layout.editorWidth
		m.preview.Height = m.layout.editorHeight
		if m.stage == stagePreview {
			m.renderPreview()
		}
		return m, nil
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		wasBusy := m.busy()
		m.running[msg.Snapshot.Kind]++
		if !wasBusy {
			return m, m.spinner.Tick
		}
		return m, nil
	case jobResultEnvelope:
		if m.running[msg.Snapshot.Kind] > 0 {
			m.running[msg.Snapshot.Kind]--
		}
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case autosaveTickMsg:
		return m, tea.Batch(m.autosave(), m.autosaveTick())
	case projectsChangedMsg:
		return m, tea.Batch(m.loadProjectsCmd(), m.waitForChange())
	case projectsLoadedMsg:
		m.applyProjects(msg)
		return m, nil
	case projectOpenedMsg:
		m.applyOpened(msg)
		return m, nil
	case projectDeletedMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.setInfo("Deleted " + msg.name + ".")
		return m, m.loadProjectsCmd()
	case exportsLoadedMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.exports = msg.files
		m.exportCursor = moveIndex(m.exportCursor, 0, len(m.exports))
		return m, nil
	case openedFileMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
		}
		return m, nil
	case saveResultMsg:
		return m, m.applySaved(msg)
	case exportResultMsg:
		return m, m.applyExported(msg)
	case bibImportedMsg:
		m.applyBibImport(msg)
		return m, nil
	case importProjectsMsg:
		m.applyImportProjects(msg)
		return m, nil
	case printersMsg:
		m.applyPrinters(msg)
		return m, nil
	case printResultMsg:
		m.applyPrinted(msg)
		return m, nil
	case discoverResultMsg:
		m.applyDiscovered(msg)
		return m, nil
	case submitResultMsg:
		m.applySubmitted(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageProjects:
		return m, m.handleProjectsKey(key)
	case stageNewProject:
		return m, m.handleNewProjectKey(key)
	case stageConfirmDelete:
		return m, m.handleConfirmDeleteKey(key)
	case stagePrinters:
		return m, m.handlePrintersKey(key)
	case stageSubmitTargets:
		return m, m.handleTargetsKey(key)
	case stageSubmitForm:
		return m, m.handleSubmitFormKey(key)
	case stageEditor:
		return m, m.handleEditorKey(key)
	case stageFind:
		return m, m.handleFindKey(key)
	case stageCite:
		return m, m.handleCiteKey(key)
	case stageSources:
		return m, m.handleSourcesKey(key)
	case stageSourceForm:
		return m, m.handleSourceFormKey(key)
	case stageBibImport:
		return m, m.handleBibImportKey(key)
	case stageImportProject:
		return m, m.handleImportProjectKey(key)
	case stageExportFormat:
		return m, m.handleExportFormatKey(key)
	case stagePalette:
		return m, m.handlePaletteKey(key)
	case stagePreview:
		return m, m.handlePreviewKey(key)
	}
	return m, nil
}

func (m *model) busy() bool {
	for _, n := range m.running {
		if n > 0 {
			return true
		}
	}
	return false
}

// quit flushes unsaved edits and stops the watcher.
func (m *model) quit() tea.Cmd {
	if m.project != nil && m.dirty && m.config.Store != nil {
		p := m.snapshot()
		if err := m.config.Store.Save(&p); err != nil {
			m.config.Logger.Error("save on quit", slog.String("project_id", p.ID), slog.String("error", err.Error()))
		}
	}
	m.cancel()
	return tea.Quit
}

func (m *model) setInfo(msg string) {
	m.infoMessage = msg
	m.errorMessage = ""
}

func (m *model) setError(msg string) {
	m.errorMessage = msg
}

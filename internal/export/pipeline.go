package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Format is an export target.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
)

// Formats lists the targets in menu order.
var Formats = []Format{FormatPDF, FormatDOCX, FormatMarkdown}

// ParseFormat accepts "md", "docx" or "pdf".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

// State is a pipeline stage.
type State string

const (
	StateIdle           State = "idle"
	StateWritingSource  State = "writing_source"
	StateFiltering      State = "filtering"
	StateConverting     State = "converting"
	StatePostprocessing State = "postprocessing"
	StateRendering      State = "rendering"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeExported    Outcome = "exported"
	OutcomeToolMissing Outcome = "tool_missing"
	OutcomeNoReference Outcome = "no_reference"
	OutcomeToolFailed  Outcome = "tool_failed"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeFailed      Outcome = "failed"
)

var (
	ErrToolNotFound = errors.New("export tool not found")
	ErrTimeout      = errors.New("export tool timed out")
)

// DefaultTimeout bounds each external tool invocation.
const DefaultTimeout = 60 * time.Second

const maxDiagnostic = 200

// Request is a point-in-time snapshot of the document to export.
type Request struct {
	ProjectID string
	Name      string
	Text      string
	Format    Format
}

// Result is the single user-facing report of a run.
type Result struct {
	Outcome Outcome
	Message string
	Path    string
	Pages   int
	Err     error
}

// OK reports whether the export produced its file.
func (r Result) OK() bool { return r.Outcome == OutcomeExported }

// Pipeline runs exports into ExportDir using reference documents from
// RefsDir. Runs for the same project are serialized.
type Pipeline struct {
	ExportDir string
	RefsDir   string
	Timeout   time.Duration
	Detect    func() Tools
	OnState   func(State)
	Logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline returns a pipeline with tool auto-detection and the default
// timeout.
func NewPipeline(exportDir, refsDir string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		ExportDir: exportDir,
		RefsDir:   refsDir,
		Timeout:   DefaultTimeout,
		Detect:    DetectTools,
		Logger:    logger,
	}
}

// Run exports req and reports the outcome. It never returns an error;
// failures are described by the Result.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	unlock := p.lock(req.ProjectID)
	defer unlock()

	p.setState(StateIdle)
	res := p.run(ctx, req)
	if res.OK() {
		p.setState(StateDone)
	} else {
		p.setState(StateFailed)
	}
	p.logger().Info("export finished",
		slog.String("project_id", req.ProjectID),
		slog.String("format", string(req.Format)),
		slog.String("outcome", string(res.Outcome)),
		slog.String("path", res.Path),
		slog.Any("error", res.Err),
	)
	return res
}

func (p *Pipeline) run(ctx context.Context, req Request) Result {
	safe := SafeName(req.Name)

	if req.Format == FormatMarkdown {
		p.setState(StateWritingSource)
		out := filepath.Join(p.ExportDir, safe+".md")
		if err := os.MkdirAll(p.ExportDir, 0o755); err != nil {
			return failed(err)
		}
		if err := os.WriteFile(out, []byte(req.Text), 0o644); err != nil {
			return failed(err)
		}
		return Result{Outcome: OutcomeExported, Message: "Exported to " + out, Path: out}
	}

	fm := ParseFrontmatter(req.Text)
	tools := p.tools()
	if tools.Pandoc == "" {
		return Result{Outcome: OutcomeToolMissing, Message: "Pandoc not found. Install pandoc for export.",
			Err: fmt.Errorf("pandoc: %w", ErrToolNotFound)}
	}
	if req.Format == FormatPDF && tools.LibreOffice == "" {
		return Result{Outcome: OutcomeToolMissing, Message: "LibreOffice not found. Install LibreOffice for PDF export.",
			Err: fmt.Errorf("libreoffice: %w", ErrToolNotFound)}
	}
	ref, err := ResolveReferenceDoc(p.RefsDir, fm)
	if err != nil {
		return Result{Outcome: OutcomeNoReference, Message: "No reference .docx found in refs/ directory.", Err: err}
	}

	mdPath := filepath.Join(p.ExportDir, req.ProjectID+".md")
	luaPath := filepath.Join(p.ExportDir, req.ProjectID+"_filter.lua")
	docxPath := filepath.Join(p.ExportDir, safe+".docx")
	pdfPath := filepath.Join(p.ExportDir, safe+".pdf")

	cleanup := []string{mdPath, luaPath}
	if req.Format == FormatPDF {
		cleanup = append(cleanup, docxPath)
	}
	defer func() {
		for _, path := range cleanup {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				p.logger().Warn("export cleanup failed", slog.String("path", path), slog.Any("error", err))
			}
		}
	}()

	if err := os.MkdirAll(p.ExportDir, 0o755); err != nil {
		return failed(err)
	}

	p.setState(StateWritingSource)
	if err := os.WriteFile(mdPath, []byte(req.Text), 0o644); err != nil {
		return failed(err)
	}

	p.setState(StateFiltering)
	script, err := FilterScript(fm)
	if err != nil {
		return failed(err)
	}
	if err := os.WriteFile(luaPath, []byte(script), 0o644); err != nil {
		return failed(err)
	}

	p.setState(StateConverting)
	args := []string{mdPath, "--standalone", "--reference-doc=" + ref, "--lua-filter=" + luaPath}
	if fm.Has("bibliography") {
		args = append(args, "--citeproc")
	}
	args = append(args, "-o", docxPath)
	if res, ok := p.invoke(ctx, tools.Pandoc, args, "Pandoc error: "); !ok {
		return res
	}

	p.setState(StatePostprocessing)
	if err := PostProcessDOCX(docxPath, fm); err != nil {
		p.logger().Warn("docx post-process skipped", slog.String("path", docxPath), slog.Any("error", err))
	}

	if req.Format == FormatDOCX {
		return Result{Outcome: OutcomeExported, Message: "Exported to " + docxPath, Path: docxPath}
	}

	p.setState(StateRendering)
	args = []string{"--headless", "--convert-to", "pdf", "--outdir", p.ExportDir, docxPath}
	if res, ok := p.invoke(ctx, tools.LibreOffice, args, "LibreOffice error: "); !ok {
		return res
	}

	res := Result{Outcome: OutcomeExported, Message: "Exported to " + pdfPath, Path: pdfPath}
	if info, err := InspectPDF(pdfPath); err == nil && info.Pages > 0 {
		res.Pages = info.Pages
		res.Message = fmt.Sprintf("Exported to %s (%d pages)", pdfPath, info.Pages)
	}
	return res
}

// invoke runs one external tool under the pipeline timeout. ok is false
// when the run must stop, with res describing why.
func (p *Pipeline) invoke(ctx context.Context, tool string, args []string, prefix string) (res Result, ok bool) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second
	err := cmd.Run()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Result{Outcome: OutcomeTimeout, Message: "Export timed out.",
			Err: fmt.Errorf("%s: %w", filepath.Base(tool), ErrTimeout)}, false
	case err == nil:
		return Result{}, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Outcome: OutcomeToolFailed, Message: prefix + truncate(stderr.String(), maxDiagnostic),
			Err: fmt.Errorf("%s: %w", filepath.Base(tool), err)}, false
	}
	return failed(err), false
}

func failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Message: "Export failed: " + truncate(err.Error(), maxDiagnostic), Err: err}
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func (p *Pipeline) tools() Tools {
	if p.Detect == nil {
		return DetectTools()
	}
	return p.Detect()
}

func (p *Pipeline) setState(s State) {
	if p.OnState != nil {
		p.OnState(s)
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) lock(key string) func() {
	p.mu.Lock()
	if p.locks == nil {
		p.locks = make(map[string]*sync.Mutex)
	}
	m, ok := p.locks[key]
	if !ok {
		m = &sync.Mutex{}
		p.locks[key] = m
	}
	p.mu.Unlock()
	m.Lock()
	return m.Unlock
}

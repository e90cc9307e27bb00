package tui

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type jobKind string

type jobStatus string

const (
	jobKindSave     jobKind = "save"
	jobKindExport   jobKind = "export"
	jobKindImport   jobKind = "import"
	jobKindDiscover jobKind = "discover"
	jobKindSubmit   jobKind = "submit"
	jobKindPrint    jobKind = "print"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

// jobRunner does the blocking work off the update loop. It receives a
// snapshot of whatever it needs and reports back through its payload.
type jobRunner func(context.Context) (tea.Msg, error)

type jobBus struct {
	counter int64
	ctx     context.Context
	logger  *slog.Logger
}

func newJobBus(ctx context.Context, logger *slog.Logger) *jobBus {
	return &jobBus{ctx: ctx, logger: logger}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

// Start announces the job, then runs it and delivers the payload wrapped
// in a jobResultEnvelope.
func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	id := b.nextID(kind)
	started := time.Now()
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}

	runCmd := func() tea.Msg {
		payload, err := runner(b.ctx)
		snapshot := jobSnapshot{
			ID:          id,
			Kind:        kind,
			StartedAt:   started,
			CompletedAt: time.Now(),
		}
		if err != nil {
			snapshot.Status = jobStatusFailed
			snapshot.Err = err.Error()
		} else {
			snapshot.Status = jobStatusSucceeded
		}
		snapshot.Duration = snapshot.CompletedAt.Sub(started)
		attrs := []any{
			slog.String("job", id),
			slog.String("status", string(snapshot.Status)),
			slog.Duration("duration", snapshot.Duration),
		}
		if err != nil {
			b.logger.Warn("job finished", append(attrs, slog.String("error", err.Error()))...)
		} else {
			b.logger.Debug("job finished", attrs...)
		}
		return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
	}

	return tea.Sequence(startCmd, runCmd)
}

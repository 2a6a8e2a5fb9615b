package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"tgcourse/internal/progress"
)

// Work is a run whose events are rendered by the TUI. It must not emit
// the terminal event itself.
type Work func(ctx context.Context, r progress.Reporter) error

// Options configure the terminal line shown once Work returns.
type Options struct {
	Title    string
	Success  string
	Fallback func(string) string
}

// Run renders work's events until it returns, then shows its outcome.
// Quitting the TUI cancels work and waits for it to unwind.
func Run(ctx context.Context, opts Options, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg, 256)
	result := make(chan error, 1)
	go func() {
		err := work(ctx, teaReporter{ctx: ctx, ch: events})
		result <- err
		select {
		case events <- workDoneMsg{Err: err}:
		case <-ctx.Done():
		}
	}()

	prog := tea.NewProgram(NewModel(opts, events), tea.WithContext(ctx))
	_, uiErr := prog.Run()
	cancel()
	if err := <-result; err != nil {
		return err
	}
	return uiErr
}

// teaReporter forwards events to the program. Progress updates are dropped
// when the program lags; everything else waits for room.
type teaReporter struct {
	ctx context.Context
	ch  chan tea.Msg
}

func (r teaReporter) Report(e progress.Event) {
	if e.Kind == progress.KindProgress {
		select {
		case r.ch <- eventMsg{E: e}:
		default:
		}
		return
	}
	select {
	case r.ch <- eventMsg{E: e}:
	case <-r.ctx.Done():
	}
}

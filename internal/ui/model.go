package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"tgcourse/internal/progress"
)

const maxFailuresShown = 8

type Model struct {
	opts    Options
	eventCh chan tea.Msg

	status   string
	current  string
	percent  float64 // -1 means unknown
	started  int
	failures []string
	final    *progress.Event
	quitting bool

	spinner spinner.Model
	bar     bubblesprogress.Model

	width  int
	styles Styles
}

func NewModel(opts Options, events chan tea.Msg) Model {
	sty := defaultStyles()
	sp := spinner.New()
	sp.Style = sty.Spinner
	return Model{
		opts:    opts,
		eventCh: events,
		status:  "Starting...",
		percent: -1,
		spinner: sp,
		bar: bubblesprogress.New(
			bubblesprogress.WithDefaultGradient(),
			bubblesprogress.WithWidth(40),
		),
		styles: sty,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenEventsCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case eventMsg:
		m.apply(msg.E)
		return m, m.listenEventsCmd()

	case workDoneMsg:
		var final progress.Event
		progress.Finish(progress.ReporterFunc(func(e progress.Event) { final = e }),
			msg.Err, m.opts.Success, m.opts.Fallback)
		m.final = &final
		if final.Kind == progress.KindSuccess {
			m.percent = 100
		}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *Model) apply(e progress.Event) {
	switch e.Kind {
	case progress.KindProgress:
		m.started++
		m.current = e.Message
		m.percent = float64(e.Percent)
	case progress.KindError:
		m.failures = append(m.failures, e.Message)
	default:
		m.status = e.Message
	}
}

func (m Model) View() string {
	return m.viewHeader() + "\n\n" + m.viewBody() + m.viewFailures() + m.viewFinal()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		return <-m.eventCh
	}
}

package ui

import (
	"fmt"
	"strings"

	"tgcourse/internal/progress"
)

func (m Model) viewHeader() string {
	title := m.styles.Title.Render(m.opts.Title)
	sub := fmt.Sprintf("Items: %d started • %d failed • q: quit", m.started, len(m.failures))
	return title + "\n" + m.styles.Subtitle.Render(sub)
}

func (m Model) viewBody() string {
	var right string
	switch {
	case m.percent >= 0 && m.percent <= 100:
		right = fmt.Sprintf("%s %3.0f%%", m.bar.ViewAs(m.percent/100.0), m.percent)
	case m.final != nil:
		right = ""
	default:
		right = m.styles.Spinner.Render(m.spinner.View()) + " " + m.styles.Faint.Render("waiting")
	}
	lines := []string{m.styles.Info.Render(m.status)}
	if right != "" {
		lines = append(lines, right)
	}
	if m.current != "" {
		lines = append(lines, m.styles.Faint.Render(truncate(m.current, 60)))
	}
	return m.styles.Box.Render(strings.Join(lines, "\n")) + "\n"
}

func (m Model) viewFailures() string {
	if len(m.failures) == 0 {
		return ""
	}
	shown := m.failures
	if len(shown) > maxFailuresShown {
		shown = shown[len(shown)-maxFailuresShown:]
	}
	var b strings.Builder
	for _, f := range shown {
		b.WriteString(m.styles.Error.Render("  ✗ " + f))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewFinal() string {
	if m.final == nil {
		if m.quitting {
			return m.styles.Faint.Render("Stopping...") + "\n"
		}
		return ""
	}
	if m.final.Kind == progress.KindSuccess {
		return m.styles.Success.Render(m.final.Message) + "\n"
	}
	return m.styles.Error.Render(m.final.Message) + "\n"
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}

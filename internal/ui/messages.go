package ui

import "tgcourse/internal/progress"

type eventMsg struct {
	E progress.Event
}

type workDoneMsg struct {
	Err error
}

package progress

// Kind identifies an event on the progress channel.
type Kind string

// Upload run kinds.
const (
	KindInfo     Kind = "info"
	KindProgress Kind = "progress"
	KindError    Kind = "error"
	KindSuccess  Kind = "success"
)

// Login run kinds. KindError and KindSuccess are shared.
const (
	KindLoading   Kind = "loading"
	KindNeedPhone Kind = "need_phone"
	KindNeedOTP   Kind = "need_otp"
)

// Event is one status line for the supervising process.
// Percent is 0..100 and only meaningful for KindProgress.
type Event struct {
	Kind    Kind
	Message string
	Percent int
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Kind == KindError || e.Kind == KindSuccess
}

// Reporter is implemented by anything interested in run events.
// Events arrive in order from a single goroutine.
type Reporter interface {
	Report(e Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// Info emits a KindInfo event.
func Info(r Reporter, msg string) {
	r.Report(Event{Kind: KindInfo, Message: msg})
}

// Percent emits a KindProgress event.
func Percent(r Reporter, msg string, pct int) {
	r.Report(Event{Kind: KindProgress, Message: msg, Percent: pct})
}

// Error emits a KindError event for a failure that does not end the run.
func Error(r Reporter, msg string) {
	r.Report(Event{Kind: KindError, Message: msg})
}

package progress

import "errors"

// Describer is implemented by errors that carry their own user-facing text.
type Describer interface {
	Describe() string
}

// Failure wraps an error with the message shown on the progress channel.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	return f.Message + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Describe returns the user-facing text.
func (f *Failure) Describe() string { return f.Message }

// Fail builds a Failure.
func Fail(msg string, err error) error {
	return &Failure{Message: msg, Err: err}
}

// Finish converts the outcome of a run into exactly one terminal event.
// Errors that do not describe themselves are rendered through fallback,
// which receives the raw error text.
func Finish(r Reporter, err error, successMsg string, fallback func(string) string) {
	if err == nil {
		r.Report(Event{Kind: KindSuccess, Message: successMsg, Percent: 100})
		return
	}
	r.Report(Event{Kind: KindError, Message: Message(err, fallback)})
}

// Message returns the user-facing text for err.
func Message(err error, fallback func(string) string) string {
	var d Describer
	if errors.As(err, &d) {
		return d.Describe()
	}
	if fallback != nil {
		return fallback(err.Error())
	}
	return err.Error()
}

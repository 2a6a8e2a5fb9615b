package progress

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// Format selects the wire shape of a line.
type Format int

const (
	// FormatUpload writes {"type","message","progress"}.
	FormatUpload Format = iota
	// FormatLogin writes {"status","message","error"}.
	FormatLogin
)

type uploadLine struct {
	Type     Kind   `json:"type"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

type loginLine struct {
	Status  Kind   `json:"status"`
	Message string `json:"message"`
	Error   bool   `json:"error"`
}

// Writer emits one JSON object per line to w. Every event is written
// with a single Write call so nothing is held back between events.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
}

// NewWriter returns a Writer for the given wire format.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// Report implements Reporter.
func (w *Writer) Report(e Event) {
	b, err := w.marshal(e)
	if err != nil {
		log.Error().Err(err).Str("kind", string(e.Kind)).Msg("encode progress event")
		return
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(b); err != nil {
		log.Error().Err(err).Msg("write progress event")
		return
	}
	log.Debug().Str("kind", string(e.Kind)).Int("percent", e.Percent).Msg(e.Message)
}

func (w *Writer) marshal(e Event) ([]byte, error) {
	if w.format == FormatLogin {
		return json.Marshal(loginLine{Status: e.Kind, Message: e.Message, Error: e.Kind == KindError})
	}
	return json.Marshal(uploadLine{Type: e.Kind, Message: e.Message, Progress: e.Percent})
}

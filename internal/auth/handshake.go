// Package auth issues a durable session credential by walking the remote
// endpoint's phone-number and one-time-code challenge.
//
// The handshake suspends twice to read operator input from the control
// channel: once for the phone number and once for the code. Every failure
// is terminal; nothing is retried.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tgcourse/internal/progress"
	"tgcourse/internal/util"
)

// Remote rejections. Client implementations wrap these so the handshake
// can tell them apart from transport failures.
var (
	ErrInvalidIdentity  = errors.New("api id/hash rejected")
	ErrPhoneInvalid     = errors.New("phone number invalid")
	ErrCodeInvalid      = errors.New("phone code invalid")
	ErrPasswordRequired = errors.New("two-factor password required")
)

// ErrPhoneEmpty is returned when the operator submits a blank phone number.
var ErrPhoneEmpty = &progress.Failure{Message: "Phone number empty"}

// Client is the part of the messaging session used to sign in.
type Client interface {
	Connect(ctx context.Context) error
	// SendCode requests a login code and returns its correlation hash.
	SendCode(ctx context.Context, phone string) (string, error)
	SignIn(ctx context.Context, phone, hash, code string) error
	DisplayName(ctx context.Context) (string, error)
	Close() error
}

// LineSource yields operator input one line at a time.
type LineSource interface {
	Next(ctx context.Context) (string, error)
}

// State is a step of the handshake.
type State int

const (
	StateStart State = iota
	StateConnecting
	StateAwaitingPhone
	StateRequestingCode
	StateAwaitingCode
	StateVerifyingCode
	StateSuccess
	StateFailed
)

var stateNames = [...]string{
	"start", "connecting", "awaiting_phone", "requesting_code",
	"awaiting_code", "verifying_code", "success", "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result is returned by a successful handshake.
type Result struct {
	DisplayName string
}

// session is the transient login state; it never leaves the Handshake.
type session struct {
	phone string
	hash  string
	code  string
}

// Handshake drives Client through the login sequence.
type Handshake struct {
	client      Client
	lines       LineSource
	reporter    progress.Reporter
	sessionPath string

	state     State
	sess      session
	name      string
	connected bool
	logger    zerolog.Logger
}

// New returns a Handshake. sessionPath names the credential file that is
// discarded before connecting; it may be empty.
func New(client Client, lines LineSource, reporter progress.Reporter, sessionPath string) *Handshake {
	if reporter == nil {
		reporter = progress.ReporterFunc(func(progress.Event) {})
	}
	return &Handshake{
		client:      client,
		lines:       lines,
		reporter:    reporter,
		sessionPath: sessionPath,
		logger:      log.With().Str("component", "auth").Logger(),
	}
}

// State returns the current step.
func (h *Handshake) State() State {
	return h.state
}

// Run walks the state machine to completion. The returned error carries the
// operator-facing message (see progress.Message). The connection is
// released before Run returns.
func (h *Handshake) Run(ctx context.Context) (Result, error) {
	defer h.release()
	defer func() { h.sess = session{} }()

	for h.state != StateSuccess && h.state != StateFailed {
		next, err := h.step(ctx)
		h.logger.Debug().Stringer("from", h.state).Stringer("to", next).Msg("transition")
		if err != nil {
			h.state = StateFailed
			h.logger.Warn().Err(err).Msg("login failed")
			return Result{}, err
		}
		h.state = next
	}
	return Result{DisplayName: h.name}, nil
}

func (h *Handshake) step(ctx context.Context) (State, error) {
	switch h.state {
	case StateStart:
		if h.sessionPath != "" {
			if err := util.RemoveIfExists(h.sessionPath); err != nil {
				return StateFailed, progress.Fail("Connection Failed: "+err.Error(), err)
			}
		}
		return StateConnecting, nil

	case StateConnecting:
		h.emit(progress.KindLoading, "Connecting to Telegram Servers...")
		if err := h.client.Connect(ctx); err != nil {
			if errors.Is(err, ErrInvalidIdentity) {
				return StateFailed, progress.Fail("API ID/Hash is Invalid!", err)
			}
			return StateFailed, progress.Fail("Connection Failed: "+err.Error(), err)
		}
		h.connected = true
		return StateAwaitingPhone, nil

	case StateAwaitingPhone:
		h.emit(progress.KindNeedPhone, "Enter Phone Number (e.g., +91...)")
		phone, err := h.lines.Next(ctx)
		if err != nil {
			return StateFailed, progress.Fail("Input Error", err)
		}
		phone = strings.TrimSpace(phone)
		if phone == "" {
			return StateFailed, ErrPhoneEmpty
		}
		h.sess.phone = phone
		return StateRequestingCode, nil

	case StateRequestingCode:
		h.emit(progress.KindLoading, "Sending OTP...")
		hash, err := h.client.SendCode(ctx, h.sess.phone)
		switch {
		case errors.Is(err, ErrPhoneInvalid):
			return StateFailed, progress.Fail("Invalid Phone Number Format!", err)
		case errors.Is(err, ErrInvalidIdentity):
			return StateFailed, progress.Fail("API ID/Hash is Invalid!", err)
		case err != nil:
			return StateFailed, progress.Fail("OTP Error: "+err.Error(), err)
		}
		h.sess.hash = hash
		return StateAwaitingCode, nil

	case StateAwaitingCode:
		h.emit(progress.KindNeedOTP, "OTP sent to "+h.sess.phone)
		code, err := h.lines.Next(ctx)
		if err != nil {
			return StateFailed, progress.Fail("Input Error", err)
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return StateFailed, progress.Fail("Incorrect OTP!", ErrCodeInvalid)
		}
		h.sess.code = code
		return StateVerifyingCode, nil

	case StateVerifyingCode:
		h.emit(progress.KindLoading, "Verifying OTP...")
		if err := h.client.SignIn(ctx, h.sess.phone, h.sess.hash, h.sess.code); err != nil {
			switch {
			case errors.Is(err, ErrCodeInvalid):
				return StateFailed, progress.Fail("Incorrect OTP!", err)
			case errors.Is(err, ErrPasswordRequired):
				return StateFailed, progress.Fail("2FA Password Required (Not supported yet)", err)
			default:
				return StateFailed, progress.Fail("Login Failed: "+err.Error(), err)
			}
		}
		name, err := h.client.DisplayName(ctx)
		if err != nil {
			return StateFailed, progress.Fail("Login Failed: "+err.Error(), err)
		}
		h.name = name
		return StateSuccess, nil
	}
	return StateFailed, fmt.Errorf("unexpected state %s", h.state)
}

func (h *Handshake) emit(kind progress.Kind, msg string) {
	h.reporter.Report(progress.Event{Kind: kind, Message: msg})
}

func (h *Handshake) release() {
	if !h.connected {
		return
	}
	h.connected = false
	if err := h.client.Close(); err != nil {
		h.logger.Debug().Err(err).Msg("close connection")
	}
}

package engine

import (
	"errors"
	"fmt"
)

// Kind classifies acquisition failures so callers can present an actionable message.
type Kind int

const (
	KindNotFound Kind = iota
	KindAuthenticationRequired
	KindBotVerificationRequired
	KindLoadTimeout
	KindMalformedResponse
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationRequired:
		return "authentication_required"
	case KindBotVerificationRequired:
		return "bot_verification_required"
	case KindLoadTimeout:
		return "load_timeout"
	case KindMalformedResponse:
		return "malformed_response"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "not_found"
	}
}

// Sentinels for errors.Is matching against any *Error of the same kind.
var (
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrAuthenticationRequired  = &Error{Kind: KindAuthenticationRequired}
	ErrBotVerificationRequired = &Error{Kind: KindBotVerificationRequired}
	ErrLoadTimeout             = &Error{Kind: KindLoadTimeout}
	ErrMalformedResponse       = &Error{Kind: KindMalformedResponse}
	ErrInvalidInput            = &Error{Kind: KindInvalidInput}
)

// Error is a typed acquisition error.
type Error struct {
	Kind Kind
	Op   string // e.g. "watch-page", "reader"
	Msg  string
	Err  error
}

// NewError builds an *Error with a formatted message.
func NewError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = kindMessages[e.Kind]
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, ErrLoadTimeout) works on wrapped errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var kindMessages = map[Kind]string{
	KindNotFound:                "transcript not found",
	KindAuthenticationRequired:  "the transcript source requires you to sign in",
	KindBotVerificationRequired: "the transcript source is asking for bot verification",
	KindLoadTimeout:             "timed out waiting for the transcript page to load",
	KindMalformedResponse:       "transcript payload could not be parsed",
	KindInvalidInput:            "not a valid YouTube video URL",
}

// KindOf returns the kind of err, or KindNotFound when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNotFound
}

// Terminal reports whether a kind ends all sub-attempts of the source that raised it.
func (k Kind) Terminal() bool {
	return k == KindAuthenticationRequired || k == KindBotVerificationRequired
}

package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without string matching.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindNetwork
	KindServer
	KindPersistence
	KindMutation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindPersistence:
		return "persistence"
	case KindMutation:
		return "mutation"
	default:
		return "unknown"
	}
}

// Error is the single structured error type returned by the client core.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s error: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the bare sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrAuth        = &Error{Kind: KindAuth}
	ErrNetwork     = &Error{Kind: KindNetwork}
	ErrServer      = &Error{Kind: KindServer}
	ErrPersistence = &Error{Kind: KindPersistence}
	ErrMutation    = &Error{Kind: KindMutation}
)

func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func Auth(op string, err error) error {
	return &Error{Kind: KindAuth, Op: op, Err: err}
}

func Network(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func Server(op, msg string) error {
	return &Error{Kind: KindServer, Op: op, Msg: msg}
}

func Persistence(op string, err error) error {
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// Mutation wraps the Auth, Network or Server failure of an optimistic action.
func Mutation(op string, err error) error {
	return &Error{Kind: KindMutation, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

package engine

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Kind classifies a backend failure for retry decisions.
type Kind int

const (
	KindFatal Kind = iota
	KindTransient
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	default:
		return "fatal"
	}
}

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind implements the kinded-error contract used by KindOf.
func (e *Error) ErrorKind() Kind { return e.Kind }

// Transient wraps err as a retryable failure.
func Transient(op string, err error) error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// Fatal wraps err as a non-retryable failure.
func Fatal(op string, err error) error {
	return &Error{Kind: KindFatal, Op: op, Err: err}
}

// ErrEmptyResult is returned when a backend answers successfully but without
// any usable text.
var ErrEmptyResult = &Error{Kind: KindTransient, Op: "translate", Err: errors.New("empty or invalid response")}

// transientMarkers are matched against error messages from backends that do
// not report a structured kind.
var transientMarkers = []string{
	"too many requests",
	"timeout",
	"connection",
	"bad response",
}

// KindOf classifies err. Structured kinds win, then network and deadline
// errors, then message markers. Anything unrecognised is fatal.
func KindOf(err error) Kind {
	if err == nil {
		return KindFatal
	}

	var kinded interface{ ErrorKind() Kind }
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindTransient
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return KindTransient
		}
	}
	return KindFatal
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}

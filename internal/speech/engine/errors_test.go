package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

type kindedErr struct{ kind Kind }

func (e kindedErr) Error() string { return "kinded" }
func (e kindedErr) ErrorKind() Kind { return e.kind }

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o deadline" }
func (timeoutErr) Timeout() bool { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindFatal},
		{"structured transient", kindedErr{KindTransient}, KindTransient},
		{"structured validation", kindedErr{KindValidation}, KindValidation},
		{"structured wins over marker", Fatal("translate", errors.New("connection refused")), KindFatal},
		{"wrapped structured", fmt.Errorf("call: %w", Transient("op", errors.New("x"))), KindTransient},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindTransient},
		{"net timeout", timeoutErr{}, KindTransient},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindTransient},
		{"too many requests", errors.New("429 Too Many Requests"), KindTransient},
		{"timeout marker", errors.New("read Timeout exceeded"), KindTransient},
		{"connection marker", errors.New("Connection reset by peer"), KindTransient},
		{"bad response marker", errors.New("Bad response from upstream"), KindTransient},
		{"unknown", errors.New("invalid target language"), KindFatal},
		{"canceled", context.Canceled, KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrEmptyResultIsTransient(t *testing.T) {
	if !IsTransient(ErrEmptyResult) {
		t.Error("ErrEmptyResult should be transient")
	}
	if IsTransient(nil) {
		t.Error("nil should not be transient")
	}
}

func TestErrorFormatting(t *testing.T) {
	err := Transient("synthesize", errors.New("boom"))
	if err.Error() != "synthesize: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	bare := &Error{Kind: KindFatal, Err: errors.New("boom")}
	if bare.Error() != "boom" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

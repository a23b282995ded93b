package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestTallyHandle(t *testing.T) {
	tally := NewTally()

	env := Envelope{ID: "1", Type: UtteranceCompleted, Data: json.RawMessage(`{}`)}
	msg, _ := json.Marshal(env)
	for range 2 {
		if err := tally.Handle(t.Context(), nil, msg); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if err := tally.Handle(t.Context(), nil, []byte("{")); err == nil {
		t.Error("expected error for malformed message")
	}

	if got := tally.Counts()[UtteranceCompleted]; got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

func TestTallyDrain(t *testing.T) {
	p := NewPublisher(nil, "voxlate", "")
	tally := NewTally()
	ch := p.Subscribe("tally", 8)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := make(chan struct{})
	go func() {
		tally.Drain(ctx, ch)
		close(done)
	}()

	p.Emit(t.Context(), TranslationFailed, "", TranslationFailedData{Reason: "retries_exhausted"})
	p.Emit(t.Context(), TranslationFailed, "", TranslationFailedData{Reason: "non_retryable"})
	p.Unsubscribe("tally")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Drain did not return after unsubscribe")
	}
	if got := tally.Counts()[TranslationFailed]; got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

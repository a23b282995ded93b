package events

import (
	"context"
	"encoding/json"
	"maps"
	"sync"

	"github.com/pitabwire/util"
)

// Tally implements queue.SubscribeWorker: it logs every event received from
// the bus and keeps per-type counters for the health endpoint.
type Tally struct {
	mu     sync.Mutex
	counts map[EventType]int64
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[EventType]int64)}
}

// Handle is called by frame's pub/sub for each event message.
func (t *Tally) Handle(ctx context.Context, _ map[string]string, message []byte) error {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		util.Log(ctx).WithError(err).Error("event tally: unmarshal envelope")
		return err
	}

	t.Record(env)
	util.Log(ctx).
		WithField("event_id", env.ID).
		WithField("event_type", string(env.Type)).
		WithField("session_id", env.SessionID).
		Debug("event received")
	return nil
}

// Record counts env.
func (t *Tally) Record(env Envelope) {
	t.mu.Lock()
	t.counts[env.Type]++
	t.mu.Unlock()
}

// Drain records envelopes from a local subscription until it is closed or
// ctx ends.
func (t *Tally) Drain(ctx context.Context, ch <-chan Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-ch:
			if !ok {
				return
			}
			t.Record(env)
		}
	}
}

// Counts returns a snapshot of the counters.
func (t *Tally) Counts() map[EventType]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.counts)
}

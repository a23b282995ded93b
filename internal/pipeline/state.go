package pipeline

import (
	"fmt"
	"sync"
)

// State is the position of the continuous loop within one utterance.
type State string

const (
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateTranscribing State = "transcribing"
	StateTranslating  State = "translating"
	StateSynthesizing State = "synthesizing"
	StatePlaying      State = "playing"
	StateStopped      State = "stopped"
)

// transitions lists the legal successors of every state. Any state may drop
// to idle after a failed utterance or stop on cancellation.
var transitions = map[State][]State{
	StateIdle:         {StateListening, StateStopped},
	StateListening:    {StateTranscribing, StateIdle, StateStopped},
	StateTranscribing: {StateTranslating, StateIdle, StateStopped},
	StateTranslating:  {StateSynthesizing, StateIdle, StateStopped},
	StateSynthesizing: {StatePlaying, StateIdle, StateStopped},
	StatePlaying:      {StateListening, StateIdle, StateStopped},
	StateStopped:      nil,
}

// ValidateTransitions checks that every target is a known state and every
// non-terminal state can reach stopped directly.
func ValidateTransitions(table map[State][]State) error {
	if _, ok := table[StateIdle]; !ok {
		return fmt.Errorf("transition table: initial state %q missing", StateIdle)
	}
	for from, targets := range table {
		canStop := from == StateStopped
		for _, to := range targets {
			if _, ok := table[to]; !ok {
				return fmt.Errorf("transition table: %q -> %q: target not found", from, to)
			}
			if to == StateStopped {
				canStop = true
			}
		}
		if !canStop {
			return fmt.Errorf("transition table: %q cannot stop", from)
		}
	}
	return nil
}

// Machine tracks the current state and rejects illegal transitions.
type Machine struct {
	mu    sync.RWMutex
	table map[State][]State
	state State
}

// NewMachine creates a machine in the idle state after validating table.
func NewMachine(table map[State][]State) (*Machine, error) {
	if err := ValidateTransitions(table); err != nil {
		return nil, err
	}
	return &Machine{table: table, state: StateIdle}, nil
}

// Transition moves to next if the table allows it.
func (m *Machine) Transition(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range m.table[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal transition %q -> %q", m.state, next)
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Reset forces the machine into s.
func (m *Machine) Reset(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

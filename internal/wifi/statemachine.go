// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package wifi

import (
	"sync"

	"grimm.is/netman/internal/errors"
)

// State is one phase of the connection lifecycle.
type State string

const (
	StateIdle           State = "idle"
	StateScanning       State = "scanning"
	StateNetworksListed State = "networks_listed"
	StateSelecting      State = "selecting"
	StateAuthenticating State = "authenticating"
	StateAssociating    State = "associating"
	StateConnected      State = "connected"
	StateFailed         State = "failed"
)

// transitions is the allowed edge set. Failed is reachable from every
// post-Idle state; disconnect settles Idle from anywhere and is handled
// separately in Reset.
var transitions = map[State][]State{
	StateIdle:           {StateScanning, StateAuthenticating},
	StateScanning:       {StateNetworksListed, StateFailed},
	StateNetworksListed: {StateSelecting, StateScanning, StateFailed},
	StateSelecting:      {StateAuthenticating, StateFailed},
	StateAuthenticating: {StateAssociating, StateFailed},
	StateAssociating:    {StateConnected, StateFailed},
	StateConnected:      {StateScanning, StateFailed},
	StateFailed:         {StateScanning, StateAuthenticating},
}

// Machine tracks the connection state and enforces the transition table.
// It records recent transitions so failures can be explained after the
// fact.
type Machine struct {
	mu      sync.Mutex
	state   State
	reason  error
	history []State
}

// NewMachine starts in Idle.
func NewMachine() *Machine {
	return &Machine{state: StateIdle, history: []State{StateIdle}}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reason returns the error that put the machine in Failed, or nil.
func (m *Machine) Reason() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

// History returns the transitions taken since the last Reset.
func (m *Machine) History() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

// To moves to the next state if the transition table allows it.
func (m *Machine) To(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			if next != StateFailed {
				m.reason = nil
			}
			m.history = append(m.history, next)
			return nil
		}
	}
	return errors.Errorf(errors.KindConflict,
		"cannot move from %s to %s", m.state, next)
}

// Fail moves to Failed recording the reason. Valid from every state
// except Idle.
func (m *Machine) Fail(reason error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return
	}
	m.state = StateFailed
	m.reason = reason
	m.history = append(m.history, StateFailed)
}

// Reset settles the machine in Idle from any state and clears history.
// Used by disconnect and cancellation.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
	m.reason = nil
	m.history = []State{StateIdle}
}

// Package call provides the lifecycle state machine for a single voice call.
package call

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a call.
type State int

const (
	// StateIdle - No call started yet.
	StateIdle State = iota
	// StateConnecting - start() accepted, waiting for the channel to establish.
	StateConnecting
	// StateActive - Call established, transcript events flowing.
	StateActive
	// StateEnded - Terminal. Reached via terminate signal or explicit stop.
	StateEnded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateActive:
		return "ACTIVE"
	case StateEnded:
		return "ENDED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal.
func (s State) IsTerminal() bool {
	return s == StateEnded
}

// Errors for rejected transitions.
var (
	ErrAlreadyStarted = errors.New("call already started")
	ErrNotConnecting  = errors.New("call is not connecting")
	ErrCallEnded      = errors.New("call already ended")
)

// CompletionFunc is invoked exactly once when the call enters ENDED,
// regardless of whether ENDED was reached via the channel's terminate
// signal or an explicit stop.
type CompletionFunc func()

// Lifecycle manages the state machine for a single call.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE → CONNECTING → ACTIVE → ENDED
//	                      │
//	                      ├── terminate signal ──→ ENDED
//	                      └── Stop() ────────────→ ENDED
//
// Rules:
//   - Start() is rejected in any state other than IDLE.
//   - ENDED is a sink: further start/stop/signal calls are no-ops.
//   - The completion callback fires exactly once, on the transition into
//     ENDED, never again.
type Lifecycle struct {
	mu         sync.Mutex
	state      State
	notified   bool
	onComplete CompletionFunc
}

// NewLifecycle creates a new call lifecycle in IDLE state. onComplete may be
// nil if the caller only needs state tracking.
func NewLifecycle(onComplete CompletionFunc) *Lifecycle {
	return &Lifecycle{
		state:      StateIdle,
		onComplete: onComplete,
	}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// IsEnded returns true if the call reached the terminal state.
func (l *Lifecycle) IsEnded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == StateEnded
}

// Start transitions IDLE → CONNECTING. Rejected in any other state.
func (l *Lifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateIdle:
		l.state = StateConnecting
		return nil
	case StateEnded:
		return ErrCallEnded
	default:
		return ErrAlreadyStarted
	}
}

// Established handles the channel's call-established signal,
// CONNECTING → ACTIVE. Ignored once ended.
func (l *Lifecycle) Established() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateConnecting:
		l.state = StateActive
		return nil
	case StateEnded:
		return ErrCallEnded
	default:
		return ErrNotConnecting
	}
}

// Terminated handles the channel's call-terminated signal, → ENDED.
// Idempotent: a signal arriving after Stop() is a no-op.
func (l *Lifecycle) Terminated() {
	l.end()
}

// Stop is the user-initiated path to ENDED. It does not wait for the
// channel's own terminate signal and tolerates that signal arriving later.
func (l *Lifecycle) Stop() {
	l.end()
}

// Abort transitions to ENDED without raising the completion notification.
// For calls that never connected: the caller already has a synchronous
// error and must not receive an asynchronous completion on top of it.
func (l *Lifecycle) Abort() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateEnded
	l.notified = true
}

// end performs the terminal transition and raises the one completion
// notification. The notified latch, not the state check alone, guarantees
// exactly-once even if transitions race.
func (l *Lifecycle) end() {
	l.mu.Lock()
	if l.state == StateEnded {
		l.mu.Unlock()
		return
	}
	l.state = StateEnded
	fire := !l.notified
	l.notified = true
	cb := l.onComplete
	l.mu.Unlock()

	if fire && cb != nil {
		cb()
	}
}

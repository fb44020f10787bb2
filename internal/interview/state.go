// Package interview implements the interaction controller: the state
// machine that owns the capture and silence-monitor lifecycle, drives
// question playback, and exchanges typed messages with the session
// channel.
package interview

import (
	"errors"
	"fmt"
)

// State represents the controller's interaction state.
type State int

const (
	// StateIdle - No interview started yet.
	StateIdle State = iota
	// StateSetup - Start requested, waiting for the first question.
	StateSetup
	// StateSpeaking - Question audio playing, microphone off.
	StateSpeaking
	// StateListening - Capture and silence monitor active.
	StateListening
	// StateThinking - Answer delivered, waiting for the next question.
	StateThinking
	// StateCompleted - Interview over. Terminal state.
	StateCompleted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSetup:
		return "SETUP"
	case StateSpeaking:
		return "SPEAKING"
	case StateListening:
		return "LISTENING"
	case StateThinking:
		return "THINKING"
	case StateCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal.
func (s State) IsTerminal() bool {
	return s == StateCompleted
}

// Errors for invalid controller operations.
var (
	ErrAlreadyStarted = errors.New("interview already started")
	ErrCompleted      = errors.New("interview is completed")
)

// validTransitions lists the allowed targets per state. Completion is
// reachable from every non-terminal state and therefore appears in all
// of them.
var validTransitions = map[State][]State{
	StateIdle:      {StateSetup, StateCompleted},
	StateSetup:     {StateSpeaking, StateCompleted},
	StateSpeaking:  {StateListening, StateCompleted},
	StateListening: {StateThinking, StateCompleted},
	StateThinking:  {StateSpeaking, StateCompleted},
	StateCompleted: {},
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Package fsm defines the interview session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StatePresenting    State = "presenting"
	StateAnswering     State = "answering"
	StateTransitioning State = "transitioning"
	StateCompleted     State = "completed"
)

const (
	EventInput    Event = "input"
	EventSubmit   Event = "submit"
	EventSkip     Event = "skip"
	EventAdvance  Event = "advance"
	EventComplete Event = "complete"
	EventEnd      Event = "end"
)

// Transition returns the state reached by applying event to current.
func Transition(current State, event Event) (State, error) {
	if event == EventEnd {
		return StateCompleted, nil
	}

	switch current {
	case StatePresenting:
		switch event {
		case EventInput:
			return StateAnswering, nil
		case EventSubmit, EventSkip:
			return StateTransitioning, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAnswering:
		switch event {
		case EventInput:
			return StateAnswering, nil
		case EventSubmit, EventSkip:
			return StateTransitioning, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTransitioning:
		switch event {
		case EventAdvance:
			return StatePresenting, nil
		case EventComplete:
			return StateCompleted, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCompleted:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// AcceptsInput reports whether answer edits, recording toggles, and submit/skip are allowed.
func AcceptsInput(state State) bool {
	return state == StatePresenting || state == StateAnswering
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}

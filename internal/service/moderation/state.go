package moderation

import (
	"errors"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type State string

const (
	StateEditing   State = "editing"
	StatePending   State = "pending"
	StatePublished State = "published"
	StateRejected  State = "rejected"
)

type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
)

var ErrInvalidTransition = errors.New("invalid moderation transition")

var transitions = map[State]map[Event]State{
	StateEditing: {
		EventSubmit: StatePending,
	},
	StatePending: {
		EventSubmit:  StatePending,
		EventApprove: StatePublished,
		EventReject:  StateRejected,
	},
	StateRejected: {
		EventSubmit: StatePending,
	},
	// Published clinics skip review on later submissions.
	StatePublished: {
		EventSubmit: StatePublished,
	},
}

// Next returns the state reached by applying ev in from.
func Next(from State, ev Event) (State, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: cannot %s a clinic in state %s", ErrInvalidTransition, ev, from)
}

// StateOf derives the moderation state of a clinic. A nil clinic has never
// been submitted.
func StateOf(c *model.Clinic) State {
	switch {
	case c == nil:
		return StateEditing
	case c.EverPublished() || c.ModerationStatus == model.ModerationApproved:
		return StatePublished
	case c.ModerationStatus == model.ModerationRejected:
		return StateRejected
	default:
		return StatePending
	}
}

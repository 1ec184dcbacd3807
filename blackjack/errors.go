package blackjack

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyShoe is returned when a card is requested from an exhausted shoe
	// that is not allowed to reshuffle itself.
	ErrEmptyShoe = errors.New("shoe is empty")

	// ErrInvalidState is returned when a terminal or malformed situation is
	// presented as a decision point.
	ErrInvalidState = errors.New("invalid decision state")

	// ErrIllegalAction is returned when a policy picks an action outside the
	// legal set for the current decision.
	ErrIllegalAction = errors.New("illegal action")
)

// StateError records the situation at the time a round failed. It unwraps to
// one of the sentinel errors above.
type StateError struct {
	Err    error
	Player Hand
	Dealer Card
	Action Action
	Legal  ActionSet
	Reason string
}

func (e *StateError) Error() string {
	msg := fmt.Sprintf("%v: player=%s dealer=%s", e.Err, e.Player, e.Dealer)
	if e.Legal != 0 {
		msg += fmt.Sprintf(" legal=%s", e.Legal)
	}
	if errors.Is(e.Err, ErrIllegalAction) {
		msg += fmt.Sprintf(" action=%s", e.Action)
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *StateError) Unwrap() error {
	return e.Err
}

package blackjack

import (
	"fmt"
	"strings"
)

// Action is a player decision. The set is closed; NumActions bounds it.
type Action uint8

const (
	Stand Action = iota
	Hit
	Double
	Split
	Surrender
)

// NumActions is the number of distinct actions.
const NumActions = 5

// AllActions lists every action in canonical order.
var AllActions = [NumActions]Action{Stand, Hit, Double, Split, Surrender}

func (a Action) String() string {
	switch a {
	case Stand:
		return "stand"
	case Hit:
		return "hit"
	case Double:
		return "double"
	case Split:
		return "split"
	case Surrender:
		return "surrender"
	default:
		return "unknown"
	}
}

// Short returns the single letter form used in state keys and tables.
func (a Action) Short() string {
	switch a {
	case Stand:
		return "S"
	case Hit:
		return "H"
	case Double:
		return "D"
	case Split:
		return "P"
	case Surrender:
		return "R"
	default:
		return "?"
	}
}

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool {
	return a < NumActions
}

// ParseAction accepts either the long or the single letter form.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "stand":
		return Stand, nil
	case "h", "hit":
		return Hit, nil
	case "d", "double":
		return Double, nil
	case "p", "split":
		return Split, nil
	case "r", "surrender":
		return Surrender, nil
	default:
		return 0, fmt.Errorf("unknown action %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler using the long form.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid action %d", uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionSet is a bitmask of actions.
type ActionSet uint8

// NewActionSet returns a set holding the given actions.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s = s.With(a)
	}
	return s
}

// With returns the set with a added.
func (s ActionSet) With(a Action) ActionSet {
	return s | 1<<a
}

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	return a.Valid() && s&(1<<a) != 0
}

// Len returns the number of actions in the set.
func (s ActionSet) Len() int {
	n := 0
	for _, a := range AllActions {
		if s.Has(a) {
			n++
		}
	}
	return n
}

// Actions returns the members in canonical order.
func (s ActionSet) Actions() []Action {
	out := make([]Action, 0, NumActions)
	for _, a := range AllActions {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// String renders the set as concatenated short forms, e.g. "SHD".
func (s ActionSet) String() string {
	var b strings.Builder
	for _, a := range AllActions {
		if s.Has(a) {
			b.WriteString(a.Short())
		}
	}
	return b.String()
}

// ParseActionSet parses the String form.
func ParseActionSet(str string) (ActionSet, error) {
	var s ActionSet
	for _, r := range str {
		a, err := ParseAction(string(r))
		if err != nil {
			return 0, err
		}
		s = s.With(a)
	}
	return s, nil
}

package solver

import (
	"errors"
	"fmt"
	"math"
	rand "math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/lox/blackjackbot/blackjack"
)

// ErrDivergence reports a non-finite action value. Training stops rather than
// persisting a poisoned table.
var ErrDivergence = errors.New("action value diverged")

// Entry holds the value estimate and visit count of every action at a state.
// Unvisited actions carry the table's initial value.
type Entry struct {
	Values [blackjack.NumActions]float64 `json:"values"`
	Visits [blackjack.NumActions]uint64  `json:"visits"`
}

// Total returns the number of updates applied across all actions.
func (e Entry) Total() uint64 {
	var n uint64
	for _, v := range e.Visits {
		n += v
	}
	return n
}

func (e Entry) finite() bool {
	for _, v := range e.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Table maps decision states to action value estimates. It is safe for
// concurrent readers; the trainer is the only writer.
type Table struct {
	mu       sync.RWMutex
	entries  map[blackjack.StateKey]*Entry
	initial  float64
	priority []blackjack.Action
}

// NewTable returns an empty table. priority orders actions for tie breaking;
// actions it omits are appended in canonical order.
func NewTable(initial float64, priority []blackjack.Action) *Table {
	return &Table{
		entries:  make(map[blackjack.StateKey]*Entry),
		initial:  initial,
		priority: completePriority(priority),
	}
}

func completePriority(priority []blackjack.Action) []blackjack.Action {
	out := make([]blackjack.Action, 0, blackjack.NumActions)
	var seen blackjack.ActionSet
	for _, a := range priority {
		if a.Valid() && !seen.Has(a) {
			out = append(out, a)
			seen = seen.With(a)
		}
	}
	for _, a := range blackjack.AllActions {
		if !seen.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// Initial returns the value assumed for unvisited actions.
func (t *Table) Initial() float64 { return t.initial }

// Priority returns the tie breaking order.
func (t *Table) Priority() []blackjack.Action {
	return slices.Clone(t.priority)
}

// Len returns the number of states with at least one update.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Table) fresh() *Entry {
	e := &Entry{}
	for i := range e.Values {
		e.Values[i] = t.initial
	}
	return e
}

// Lookup returns a copy of the entry for key.
func (t *Table) Lookup(key blackjack.StateKey) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.entries[key]; ok {
		return *e, true
	}
	return *t.fresh(), false
}

// Value returns the estimate for a at key and whether it was ever updated.
func (t *Table) Value(key blackjack.StateKey, a blackjack.Action) (float64, bool) {
	if !a.Valid() {
		return 0, false
	}
	e, _ := t.Lookup(key)
	return e.Values[a], e.Visits[a] > 0
}

// Best returns the legal action with the highest estimate. Ties go to the
// earliest action in priority order, so unseen states resolve to the first
// legal priority action.
func (t *Table) Best(key blackjack.StateKey, legal blackjack.ActionSet) blackjack.Action {
	e, _ := t.Lookup(key)
	return bestOf(e, legal, t.priority)
}

func bestOf(e Entry, legal blackjack.ActionSet, priority []blackjack.Action) blackjack.Action {
	best := blackjack.Stand
	found := false
	var bestValue float64
	for _, a := range priority {
		if !legal.Has(a) {
			continue
		}
		if v := e.Values[a]; !found || v > bestValue {
			best, bestValue, found = a, v, true
		}
	}
	return best
}

// Explore returns a uniformly random legal action with probability eps and
// the greedy action otherwise. No randomness is consumed when eps is zero.
func (t *Table) Explore(key blackjack.StateKey, legal blackjack.ActionSet, eps float64, rng *rand.Rand) blackjack.Action {
	if eps > 0 && rng.Float64() < eps {
		actions := legal.Actions()
		if len(actions) > 0 {
			return actions[rng.IntN(len(actions))]
		}
	}
	return t.Best(key, legal)
}

// Update moves the estimate for (key, a) towards target. A learning rate of
// zero or less uses the sample average step 1/n.
func (t *Table) Update(key blackjack.StateKey, a blackjack.Action, target, lr float64) error {
	if !a.Valid() {
		return fmt.Errorf("update %s: %w", key, blackjack.ErrIllegalAction)
	}
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return fmt.Errorf("update %s %s: target %v: %w", key, a, target, ErrDivergence)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		e = t.fresh()
		t.entries[key] = e
	}
	n := e.Visits[a] + 1
	step := lr
	if step <= 0 {
		step = 1 / float64(n)
	}
	v := e.Values[a] + step*(target-e.Values[a])
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("update %s %s: value %v: %w", key, a, v, ErrDivergence)
	}
	e.Values[a] = v
	e.Visits[a] = n
	return nil
}

// Put replaces the entry stored for key.
func (t *Table) Put(key blackjack.StateKey, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := e
	t.entries[key] = &cp
}

// Keys returns the stored keys sorted by their text form.
func (t *Table) Keys() []blackjack.StateKey {
	t.mu.RLock()
	keys := make([]blackjack.StateKey, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.mu.RUnlock()

	slices.SortFunc(keys, func(a, b blackjack.StateKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// Entries returns a copy of every stored entry.
func (t *Table) Entries() map[blackjack.StateKey]Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[blackjack.StateKey]Entry, len(t.entries))
	for k, e := range t.entries {
		out[k] = *e
	}
	return out
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable(t.initial, t.priority)
	for k, e := range t.Entries() {
		c.Put(k, e)
	}
	return c
}

// Validate reports the first state holding a non-finite value.
func (t *Table) Validate() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, e := range t.entries {
		if !e.finite() {
			return fmt.Errorf("state %s: %w", k, ErrDivergence)
		}
	}
	return nil
}

// RestoreTable builds a table from persisted entries, rejecting non-finite
// values.
func RestoreTable(initial float64, priority []blackjack.Action, entries map[blackjack.StateKey]Entry) (*Table, error) {
	if math.IsNaN(initial) || math.IsInf(initial, 0) {
		return nil, fmt.Errorf("initial value %v: %w", initial, ErrDivergence)
	}
	t := NewTable(initial, priority)
	for k, e := range entries {
		if !e.finite() {
			return nil, fmt.Errorf("state %s: %w", k, ErrDivergence)
		}
		t.Put(k, e)
	}
	return t, nil
}

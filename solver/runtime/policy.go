// Package runtime exposes trained tables read-only for play, evaluation and
// advice.
package runtime

import (
	"errors"
	"fmt"
	"os"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/solver"
	"github.com/lox/blackjackbot/solver/ldbstore"
)

// Policy is a frozen greedy policy over a trained table. It is safe for
// concurrent use.
type Policy struct {
	table *solver.Table
	rules blackjack.Rules
	runID string
}

// New freezes a copy of table so later training cannot change decisions.
func New(table *solver.Table, rules blackjack.Rules, runID string) *Policy {
	return &Policy{table: table.Clone(), rules: rules, runID: runID}
}

// Load reads a policy from a JSON policy file or a LevelDB directory.
func Load(path string) (*Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return loadLevelDB(path)
	}

	pf, err := solver.LoadPolicyFile(path)
	if err != nil {
		return nil, err
	}
	table, err := pf.Table()
	if err != nil {
		return nil, err
	}
	return &Policy{table: table, rules: pf.Rules, runID: pf.RunID}, nil
}

func loadLevelDB(path string) (*Policy, error) {
	store, err := ldbstore.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	table, meta, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := meta.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("policy rules: %w", err)
	}
	return &Policy{table: table, rules: meta.Rules, runID: meta.RunID}, nil
}

// Rules returns the rules the policy was trained under.
func (p *Policy) Rules() blackjack.Rules { return p.rules }

// RunID returns the training run that produced the policy, if recorded.
func (p *Policy) RunID() string { return p.runID }

// Len returns the number of trained states.
func (p *Policy) Len() int { return p.table.Len() }

// Keys returns the trained states in text order.
func (p *Policy) Keys() []blackjack.StateKey { return p.table.Keys() }

// Decide implements blackjack.Policy with the greedy action.
func (p *Policy) Decide(key blackjack.StateKey, legal blackjack.ActionSet) blackjack.Action {
	return p.table.Best(key, legal)
}

// Lookup returns the stored entry for key.
func (p *Policy) Lookup(key blackjack.StateKey) (solver.Entry, bool) {
	return p.table.Lookup(key)
}

// Recommendation is a greedy decision with its estimated value.
type Recommendation struct {
	Key    blackjack.StateKey
	Action blackjack.Action
	Value  float64
	Visits uint64
	// Source is "table" for a trained state, "fallback" when borrowed from a
	// similar state and "default" when nothing was trained.
	Source string
}

// ErrNoLegalAction is returned when asked to recommend from an empty set.
var ErrNoLegalAction = errors.New("no legal action")

// Recommend returns the greedy action for key. Untrained states borrow the
// best trained action with the same total and softness.
func (p *Policy) Recommend(key blackjack.StateKey) (Recommendation, error) {
	if key.Legal == 0 {
		return Recommendation{}, ErrNoLegalAction
	}
	if e, ok := p.table.Lookup(key); ok {
		a := p.table.Best(key, key.Legal)
		return Recommendation{Key: key, Action: a, Value: e.Values[a], Visits: e.Visits[a], Source: "table"}, nil
	}
	if rec, ok := p.Fallback(key); ok {
		return rec, nil
	}
	a := p.table.Best(key, key.Legal)
	return Recommendation{Key: key, Action: a, Value: p.table.Initial(), Source: "default"}, nil
}

// Fallback scans trained states sharing the total and softness of key and
// returns the highest valued visited action that is legal for key.
func (p *Policy) Fallback(key blackjack.StateKey) (Recommendation, bool) {
	var best Recommendation
	found := false
	priority := p.table.Priority()
	for _, k := range p.table.Keys() {
		if k.Total != key.Total || k.Soft != key.Soft {
			continue
		}
		e, _ := p.table.Lookup(k)
		for _, a := range priority {
			if !key.Legal.Has(a) || e.Visits[a] == 0 {
				continue
			}
			if !found || e.Values[a] > best.Value {
				best = Recommendation{Key: k, Action: a, Value: e.Values[a], Visits: e.Visits[a], Source: "fallback"}
				found = true
			}
		}
	}
	return best, found
}

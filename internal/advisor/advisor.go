// Package advisor recommends actions for live hands from a trained policy
// and keeps a CSV log of the advice given.
package advisor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/solver/runtime"
)

// ErrTerminalHand is returned for hands that have no decision left.
var ErrTerminalHand = errors.New("hand has no decision left")

// Query describes a live decision.
type Query struct {
	Hand   blackjack.Hand
	Dealer blackjack.Card
	// Splits made earlier in the round; FromSplit marks a hand produced by
	// one.
	Splits    int
	FromSplit bool
}

// Option is one legal action with its trained value.
type Option struct {
	Action  blackjack.Action
	Value   float64
	Visits  uint64
	Trained bool
}

// Advice is the recommendation for a query.
type Advice struct {
	Query
	Key    blackjack.StateKey
	Action blackjack.Action
	Value  float64
	Source string
	// Borrowed is the trained state a fallback recommendation came from.
	Borrowed blackjack.StateKey
	Options  []Option
}

type Advisor struct {
	policy *runtime.Policy
}

func New(policy *runtime.Policy) *Advisor {
	return &Advisor{policy: policy}
}

// Rules returns the rules of the underlying policy.
func (a *Advisor) Rules() blackjack.Rules {
	return a.policy.Rules()
}

// Advise returns the recommended action and the value of every legal
// alternative, best first.
func (a *Advisor) Advise(q Query) (Advice, error) {
	total := q.Hand.Total()
	if total >= 21 || q.Hand.IsBust() {
		return Advice{}, fmt.Errorf("%s totals %d: %w", q.Hand, total, ErrTerminalHand)
	}
	legal := a.policy.Rules().LegalActions(q.Hand, q.Splits, q.FromSplit)
	key, err := blackjack.Encode(q.Hand, q.Dealer, legal, q.Splits)
	if err != nil {
		return Advice{}, err
	}
	rec, err := a.policy.Recommend(key)
	if err != nil {
		return Advice{}, err
	}

	entry, _ := a.policy.Lookup(key)
	options := make([]Option, 0, legal.Len())
	for _, act := range legal.Actions() {
		options = append(options, Option{
			Action:  act,
			Value:   entry.Values[act],
			Visits:  entry.Visits[act],
			Trained: entry.Visits[act] > 0,
		})
	}
	slices.SortStableFunc(options, func(x, y Option) int {
		switch {
		case x.Value > y.Value:
			return -1
		case x.Value < y.Value:
			return 1
		}
		return 0
	})

	adv := Advice{
		Query:   q,
		Key:     key,
		Action:  rec.Action,
		Value:   rec.Value,
		Source:  rec.Source,
		Options: options,
	}
	if rec.Source == "fallback" {
		adv.Borrowed = rec.Key
	}
	return adv, nil
}

// Package weakspots replays a trained policy and lists the decisions that
// lose the most money on average.
package weakspots

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/internal/randutil"
	"github.com/lox/blackjackbot/solver"
	"github.com/lox/blackjackbot/solver/runtime"
)

// Config controls a weak spot analysis.
type Config struct {
	Rounds    int
	Seed      int64
	MinVisits int
	Top       int
	// Coarse groups decisions by total, softness and dealer card only,
	// ignoring which actions were legal and how many splits preceded them.
	Coarse bool
}

func DefaultConfig() Config {
	return Config{
		Rounds:    50_000,
		Seed:      123,
		MinVisits: 50,
		Top:       40,
	}
}

func (c Config) Validate() error {
	if c.Rounds <= 0 {
		return errors.New("rounds must be > 0")
	}
	if c.MinVisits < 1 {
		return errors.New("min visits must be >= 1")
	}
	if c.Top < 0 {
		return errors.New("top cannot be negative")
	}
	return nil
}

// Spot is the observed average return of one decision.
type Spot struct {
	Key    blackjack.StateKey
	Action blackjack.Action
	Visits int
	Mean   float64
	// Estimate is the trained value of the action, zero for coarse spots.
	Estimate float64
}

// Label renders the decision for reports.
func (s Spot) Label(coarse bool) string {
	kind := "hard"
	if s.Key.Soft {
		kind = "soft"
	}
	dealer := fmt.Sprint(s.Key.Dealer)
	if s.Key.Dealer == 1 {
		dealer = "A"
	}
	if coarse {
		return fmt.Sprintf("%s %d vs %s", kind, s.Key.Total, dealer)
	}
	return fmt.Sprintf("%s %d vs %s [%s]", kind, s.Key.Total, dealer, s.Key)
}

type spotKey struct {
	key    blackjack.StateKey
	action blackjack.Action
}

type aggregate struct {
	sum   float64
	count int
}

// Analyze plays cfg.Rounds rounds with the greedy policy and returns the
// worst decisions first.
func Analyze(ctx context.Context, policy *runtime.Policy, cfg Config) ([]Spot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rules := policy.Rules()
	sim, err := blackjack.NewSimulator(rules)
	if err != nil {
		return nil, err
	}
	shoe, err := blackjack.NewShoe(rules, randutil.New(cfg.Seed))
	if err != nil {
		return nil, err
	}

	stats := make(map[spotKey]*aggregate)
	for i := 0; i < cfg.Rounds; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if shoe.NeedsReshuffle() {
			shoe.Reshuffle()
		}
		round, err := sim.Play(shoe, policy, 1)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i, err)
		}

		returns := solver.Returns(round.Trajectory)
		for j, step := range round.Trajectory.Steps {
			k := spotKey{key: step.Key, action: step.Action}
			if cfg.Coarse {
				k.key = blackjack.StateKey{Total: step.Key.Total, Soft: step.Key.Soft, Dealer: step.Key.Dealer}
			}
			agg := stats[k]
			if agg == nil {
				agg = &aggregate{}
				stats[k] = agg
			}
			agg.sum += returns[j]
			agg.count++
		}
	}

	spots := make([]Spot, 0, len(stats))
	for k, agg := range stats {
		if agg.count < cfg.MinVisits {
			continue
		}
		spot := Spot{Key: k.key, Action: k.action, Visits: agg.count, Mean: agg.sum / float64(agg.count)}
		if !cfg.Coarse {
			if e, ok := policy.Lookup(k.key); ok {
				spot.Estimate = e.Values[k.action]
			}
		}
		spots = append(spots, spot)
	}

	slices.SortFunc(spots, func(a, b Spot) int {
		switch {
		case a.Mean < b.Mean:
			return -1
		case a.Mean > b.Mean:
			return 1
		}
		if c := strings.Compare(a.Key.String(), b.Key.String()); c != 0 {
			return c
		}
		return int(a.Action) - int(b.Action)
	})
	if cfg.Top > 0 && len(spots) > cfg.Top {
		spots = spots[:cfg.Top]
	}
	return spots, nil
}

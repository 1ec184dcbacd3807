// Package evaluation measures the expected profit of a fixed policy by
// simulating independent rounds in parallel.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/internal/randutil"
	"github.com/lox/blackjackbot/internal/statistics"
)

const cancelCheckEvery = 1024

// BlockSize is the number of rounds dealt from one seeded stream.
const BlockSize = 4096

// Config controls an evaluation run.
type Config struct {
	Rounds int
	Bet    float64
	Seed   int64
	// Workers is the number of goroutines playing blocks. It does not
	// change the result. Zero uses GOMAXPROCS.
	Workers    int
	Confidence float64
	// CurveEvery records the cumulative profit every n rounds. Zero
	// disables the curve.
	CurveEvery int
}

// DefaultConfig evaluates one million rounds with a 95% interval.
func DefaultConfig() Config {
	return Config{
		Rounds:     1_000_000,
		Bet:        1,
		Seed:       1,
		Confidence: 0.95,
	}
}

// Validate ensures the evaluation parameters are usable.
func (c Config) Validate() error {
	if c.Rounds <= 0 {
		return errors.New("rounds must be > 0")
	}
	if !(c.Bet > 0) || math.IsInf(c.Bet, 0) {
		return errors.New("bet must be > 0")
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return errors.New("confidence must be within (0, 1)")
	}
	if c.CurveEvery < 0 {
		return errors.New("curve interval cannot be negative")
	}
	return nil
}

// CurvePoint is the cumulative profit, in base bets, after Round rounds.
type CurvePoint struct {
	Round      int
	Cumulative float64
}

// Result summarises an evaluation. Profit figures are per unit of bet unless
// named otherwise.
type Result struct {
	Stats       *statistics.Statistics
	Bet         float64
	Workers     int
	Confidence  float64
	Mean        float64
	CILow       float64
	CIHigh      float64
	TotalProfit float64 // In currency, Sum * Bet
	Curve       []CurvePoint
	Duration    time.Duration
}

type blockPart struct {
	stats statistics.Statistics
	curve []CurvePoint
}

// Evaluate plays cfg.Rounds rounds with policy and reports the mean profit
// with a confidence interval. The policy must be safe for concurrent use.
//
// Rounds are dealt in fixed blocks of BlockSize, each from its own stream
// derived from the seed and the block index. Workers only decide which
// goroutine plays a block, so results depend on the seed alone.
func Evaluate(ctx context.Context, rules blackjack.Rules, policy blackjack.Policy, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, errors.New("policy is required")
	}
	sim, err := blackjack.NewSimulator(rules)
	if err != nil {
		return nil, err
	}

	blocks := (cfg.Rounds + BlockSize - 1) / BlockSize
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > blocks {
		workers = blocks
	}

	start := time.Now()
	parts := make([]blockPart, blocks)
	var next atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				b := int(next.Add(1) - 1)
				if b >= blocks {
					return nil
				}
				first := b * BlockSize
				n := min(BlockSize, cfg.Rounds-first)
				if err := runBlock(ctx, sim, rules, policy, cfg, randutil.Stream(cfg.Seed, b), first, n, &parts[b]); err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge in block order so totals do not depend on scheduling.
	stats := &statistics.Statistics{}
	var curve []CurvePoint
	var carried float64
	for b := range parts {
		for _, pt := range parts[b].curve {
			curve = append(curve, CurvePoint{Round: pt.Round, Cumulative: carried + pt.Cumulative})
		}
		carried += parts[b].stats.Sum
		stats.Merge(&parts[b].stats)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("evaluation statistics: %w", err)
	}

	lo, hi := stats.ConfidenceInterval(cfg.Confidence)
	return &Result{
		Stats:       stats,
		Bet:         cfg.Bet,
		Workers:     workers,
		Confidence:  cfg.Confidence,
		Mean:        stats.Mean(),
		CILow:       lo,
		CIHigh:      hi,
		TotalProfit: stats.Sum * cfg.Bet,
		Curve:       curve,
		Duration:    time.Since(start),
	}, nil
}

func runBlock(ctx context.Context, sim *blackjack.Simulator, rules blackjack.Rules, policy blackjack.Policy, cfg Config, seed int64, first, n int, part *blockPart) error {
	shoe, err := blackjack.NewShoe(rules, randutil.New(seed))
	if err != nil {
		return err
	}

	var cumulative float64
	for i := 0; i < n; i++ {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if shoe.NeedsReshuffle() {
			shoe.Reshuffle()
		}
		round, err := sim.Play(shoe, policy, cfg.Bet)
		if err != nil {
			return fmt.Errorf("round %d: %w", first+i, err)
		}
		res := ResultFromRound(round)
		part.stats.Add(res)

		cumulative += res.Profit
		if cfg.CurveEvery > 0 && (first+i+1)%cfg.CurveEvery == 0 {
			part.curve = append(part.curve, CurvePoint{Round: first + i + 1, Cumulative: cumulative})
		}
	}
	return nil
}

// ResultFromRound converts a simulated round into a statistics sample in
// units of the base bet.
func ResultFromRound(r blackjack.Round) statistics.RoundResult {
	res := statistics.RoundResult{
		Profit:  r.Profit / r.Bet,
		Natural: r.Natural,
		Hands:   len(r.Hands),
		Splits:  len(r.Hands) - 1,
	}
	for _, h := range r.Hands {
		if h.Doubled {
			res.Doubles++
		}
		switch h.Outcome {
		case blackjack.Surrendered:
			res.Surrenders++
		case blackjack.Bust:
			res.Busts++
		}
	}
	return res
}

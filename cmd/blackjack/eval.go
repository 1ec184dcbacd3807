package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/internal/config"
	"github.com/lox/blackjackbot/internal/evaluation"
	"github.com/lox/blackjackbot/solver/runtime"
)

type EvalCmd struct {
	Policy     string  `help:"policy file or LevelDB directory" type:"path"`
	Baseline   string  `help:"evaluate a fixed action instead of a trained policy" enum:"none,stand,hit" default:"none"`
	Rounds     int     `help:"number of rounds to simulate (0 keeps config)" default:"0"`
	Seed       int64   `help:"random seed (0 keeps config)" default:"0"`
	Workers    int     `help:"parallel workers; 0 keeps config, which defaults to GOMAXPROCS" default:"0"`
	Bet        float64 `help:"base bet per round (0 keeps config)" default:"0"`
	Confidence float64 `help:"confidence level of the interval (0 keeps config)" default:"0"`
	CurveEvery int     `help:"log cumulative profit every N rounds (0 keeps config)" default:"0"`
}

func (cmd *EvalCmd) Run(ctx context.Context, g *Globals, logger zerolog.Logger) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}

	var (
		rules  blackjack.Rules
		policy blackjack.Policy
		source string
	)
	switch {
	case cmd.Baseline != "none":
		a, err := blackjack.ParseAction(cmd.Baseline)
		if err != nil {
			return err
		}
		rules, policy, source = cfg.Rules, blackjack.FixedPolicy(a), "baseline:"+cmd.Baseline
	case cmd.Policy != "":
		p, err := runtime.Load(cmd.Policy)
		if err != nil {
			return fmt.Errorf("load policy: %w", err)
		}
		rules, policy, source = p.Rules(), p, cmd.Policy
		logger.Info().Str("path", cmd.Policy).Str("run_id", p.RunID()).Int("states", p.Len()).Msg("policy loaded")
	default:
		return errors.New("either --policy or --baseline is required")
	}

	ec := cfg.Evaluation
	if cmd.Rounds > 0 {
		ec.Rounds = cmd.Rounds
	}
	if cmd.Seed != 0 {
		ec.Seed = cmd.Seed
	}
	if cmd.Workers > 0 {
		ec.Workers = cmd.Workers
	}
	if cmd.Bet > 0 {
		ec.Bet = cmd.Bet
	}
	if cmd.Confidence > 0 {
		ec.Confidence = cmd.Confidence
	}
	if cmd.CurveEvery > 0 {
		ec.CurveEvery = cmd.CurveEvery
	}

	logger.Info().Str("policy", source).Int("rounds", ec.Rounds).Int64("seed", ec.Seed).Int("workers", ec.Workers).Msg("starting evaluation")
	res, err := evaluation.Evaluate(ctx, rules, policy, ec)
	if err != nil {
		return err
	}

	for _, pt := range res.Curve {
		logger.Info().Int("round", pt.Round).Float64("cumulative_profit", pt.Cumulative).Msg("curve")
	}

	s := res.Stats
	logger.Info().
		Int("rounds", s.Rounds).
		Int("workers", res.Workers).
		Float64("mean_profit", res.Mean).
		Float64("std_dev", s.StdDev()).
		Float64("std_err", s.StdError()).
		Float64("ci_low", res.CILow).
		Float64("ci_high", res.CIHigh).
		Float64("confidence", res.Confidence).
		Float64("total_profit", res.TotalProfit).
		Float64("win_rate", s.WinRate()).
		Float64("loss_rate", s.LossRate()).
		Float64("push_rate", s.PushRate()).
		Int("naturals", s.Naturals).
		Int("doubles", s.Doubles).
		Int("splits", s.Splits).
		Int("surrenders", s.Surrenders).
		Float64("median", s.Median()).
		Dur("duration", res.Duration).
		Msg("evaluation complete")

	fmt.Printf("Expected profit: %+.4f per unit bet (%.0f%% CI [%+.4f, %+.4f]) over %d rounds\n",
		res.Mean, res.Confidence*100, res.CILow, res.CIHigh, s.Rounds)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime/pprof"

	"github.com/rs/zerolog"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/internal/config"
	"github.com/lox/blackjackbot/solver"
	"github.com/lox/blackjackbot/solver/ldbstore"
)

type TrainCmd struct {
	Out             string  `help:"path to write the policy file" default:"policy.json" type:"path"`
	LDB             string  `name:"ldb" help:"also write the table to a LevelDB directory" type:"path"`
	Preset          string  `help:"rules preset (default|single-deck-h17); replaces the config rules"`
	Chunks          int     `help:"number of training chunks (0 keeps config)" default:"0"`
	ChunkSize       int     `help:"rounds per chunk (0 keeps config)" default:"0"`
	Seed            int64   `help:"random seed (0 keeps config)" default:"0"`
	LearningRate    float64 `help:"constant step size; 0 selects sample averages, negative keeps config" default:"-1"`
	Epsilon         float64 `help:"initial exploration rate (negative keeps config)" default:"-1"`
	Tolerance       float64 `help:"stop early once chunk profits move less than this (negative keeps config)" default:"-1"`
	CheckpointPath  string  `help:"path to write periodic checkpoints" type:"path"`
	CheckpointEvery int     `help:"checkpoint interval in chunks (0 keeps config)" default:"0"`
	ResumeFrom      string  `help:"resume training from checkpoint file" type:"existingfile"`
	WarmStart       string  `help:"initialise the table from an earlier policy file" type:"existingfile"`
	CPUProfile      string  `name:"cpuprofile" help:"write CPU profile to file"`
}

func (cmd *TrainCmd) Run(ctx context.Context, g *Globals, logger zerolog.Logger) error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}

	if cmd.CPUProfile != "" {
		f, err := os.Create(cmd.CPUProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		logger.Info().Str("path", cmd.CPUProfile).Msg("CPU profiling enabled")
	}

	trainer, err := cmd.buildTrainer(cfg, logger)
	if err != nil {
		return err
	}
	trainer.SetLogger(logger)

	if cmd.CheckpointPath != "" {
		trainer.EnableCheckpoints(cmd.CheckpointPath, checkpointInterval(cfg.CheckpointEvery, cmd.CheckpointEvery))
	}

	progress := func(r solver.ChunkReport) {
		logger.Info().
			Int("chunk", r.Chunk).
			Int("of", r.Chunks).
			Int64("episodes", r.Episodes).
			Float64("epsilon", r.Epsilon).
			Float64("mean_profit", r.MeanProfit).
			Float64("rolling_profit", r.RollingProfit).
			Int("states", r.States).
			Int("shuffles", r.Shuffles).
			Dur("duration", r.Duration).
			Msg("progress")
	}

	err = trainer.Run(ctx, progress)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn().Int("completed_chunks", trainer.Chunk()).Msg("training interrupted, saving partial policy")
	case err != nil:
		return err
	}

	pf := trainer.PolicyFile()
	if err := pf.Save(cmd.Out); err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	logger.Info().
		Str("path", cmd.Out).
		Str("run_id", trainer.RunID()).
		Int("states", len(pf.Entries)).
		Int64("episodes", trainer.Episodes()).
		Msg("policy saved")

	if cmd.LDB != "" {
		if err := exportLevelDB(cmd.LDB, trainer.Table(), trainer.RunID(), trainer.Rules()); err != nil {
			return err
		}
		logger.Info().Str("path", cmd.LDB).Msg("leveldb store written")
	}
	return nil
}

func (cmd *TrainCmd) buildTrainer(cfg *config.Config, logger zerolog.Logger) (*solver.Trainer, error) {
	if cmd.ResumeFrom != "" {
		trainer, err := solver.LoadTrainerFromCheckpoint(cmd.ResumeFrom)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		if cmd.Chunks > 0 {
			if err := trainer.SetTotalChunks(cmd.Chunks); err != nil {
				return nil, err
			}
		}
		if cmd.Preset != "" || cmd.WarmStart != "" {
			logger.Warn().Msg("cannot change rules or warm start when resuming from checkpoint; keeping original")
		}
		if cmd.ChunkSize > 0 || cmd.Seed != 0 || cmd.LearningRate >= 0 || cmd.Epsilon >= 0 || cmd.Tolerance >= 0 {
			logger.Warn().Msg("training parameters are fixed by the checkpoint; ignoring overrides")
		}
		train := trainer.TrainingConfig()
		logger.Info().
			Int("chunks", train.Chunks).
			Int("resume_chunk", trainer.Chunk()).
			Int("chunk_size", train.ChunkSize).
			Int64("seed", trainer.Seed()).
			Str("checkpoint", cmd.ResumeFrom).
			Msg("resuming training run")
		return trainer, nil
	}

	rules := cfg.Rules
	if cmd.Preset != "" {
		preset, err := config.Preset(cmd.Preset)
		if err != nil {
			return nil, err
		}
		rules = preset
	}

	train := cfg.Training
	if cmd.Chunks > 0 {
		train.Chunks = cmd.Chunks
	}
	if cmd.ChunkSize > 0 {
		train.ChunkSize = cmd.ChunkSize
	}
	if cmd.Seed != 0 {
		train.Seed = cmd.Seed
	}
	if cmd.LearningRate >= 0 {
		train.LearningRate = cmd.LearningRate
	}
	if cmd.Epsilon >= 0 {
		train.Epsilon.Initial = cmd.Epsilon
	}
	if cmd.Tolerance >= 0 {
		train.Tolerance = cmd.Tolerance
	}

	trainer, err := solver.NewTrainer(rules, train)
	if err != nil {
		return nil, err
	}

	if cmd.WarmStart != "" {
		pf, err := solver.LoadPolicyFile(cmd.WarmStart)
		if err != nil {
			return nil, fmt.Errorf("load warm start: %w", err)
		}
		if !sameRules(pf.Rules, rules) {
			logger.Warn().Str("path", cmd.WarmStart).Msg("warm start policy was trained under different rules")
		}
		table, err := pf.Table()
		if err != nil {
			return nil, err
		}
		if err := trainer.WarmStart(table); err != nil {
			return nil, err
		}
		logger.Info().Str("path", cmd.WarmStart).Int("states", table.Len()).Msg("warm start loaded")
	}

	logger.Info().
		Int("chunks", train.Chunks).
		Int("chunk_size", train.ChunkSize).
		Int64("seed", trainer.Seed()).
		Float64("learning_rate", train.LearningRate).
		Float64("epsilon", train.Epsilon.Initial).
		Int("decks", rules.Decks).
		Bool("h17", rules.DealerHitsSoft17).
		Msg("starting training run")
	return trainer, nil
}

func exportLevelDB(path string, table *solver.Table, runID string, rules blackjack.Rules) error {
	store, err := ldbstore.Open(path)
	if err != nil {
		return fmt.Errorf("open leveldb: %w", err)
	}
	meta := ldbstore.Meta{RunID: runID, Rules: rules, InitialValue: table.Initial()}
	if err := store.Save(table, meta); err != nil {
		store.Close()
		return fmt.Errorf("write leveldb: %w", err)
	}
	return store.Close()
}

// sameRules compares rules with their tie-break order normalised.
func sameRules(a, b blackjack.Rules) bool {
	a.Priority, b.Priority = a.PriorityOrder(), b.PriorityOrder()
	return reflect.DeepEqual(a, b)
}

// checkpointInterval picks the flag over the config file. Zero from both
// checkpoints after every chunk.
func checkpointInterval(configured, flag int) int {
	switch {
	case flag > 0:
		return flag
	case configured > 0:
		return configured
	default:
		return 1
	}
}

package solver

import (
	"errors"
	"fmt"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/internal/fileutil"
)

const checkpointFileVersion = 1

type checkpointSnapshot struct {
	Version      int                          `json:"version"`
	RunID        string                       `json:"run_id"`
	Seed         int64                        `json:"seed"`
	Chunk        int                          `json:"chunk"`
	Episodes     int64                        `json:"episodes"`
	RNGState     []byte                       `json:"rng_state"`
	Rules        blackjack.Rules              `json:"rules"`
	Training     TrainingConfig               `json:"training"`
	History      []float64                    `json:"history"`
	Stable       int                          `json:"stable"`
	InitialValue float64                      `json:"initial_value"`
	Entries      map[blackjack.StateKey]Entry `json:"entries"`
}

// SaveCheckpoint writes a snapshot of the trainer state to the provided
// path. Training resumed from it continues exactly as an uninterrupted run.
func (t *Trainer) SaveCheckpoint(path string) error {
	snap, err := t.buildCheckpoint()
	if err != nil {
		return err
	}
	if err := fileutil.WriteJSONAtomic(path, snap); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	t.logger.Debug().Str("path", path).Int("chunk", t.chunk).Msg("checkpoint written")
	return nil
}

// LoadTrainerFromCheckpoint restores a trainer from a previously saved
// checkpoint.
func LoadTrainerFromCheckpoint(path string) (*Trainer, error) {
	var snap checkpointSnapshot
	if err := fileutil.ReadJSON(path, &snap); err != nil {
		return nil, err
	}
	if snap.Version != checkpointFileVersion {
		return nil, errors.New("unsupported checkpoint version")
	}

	training := snap.Training
	training.Seed = snap.Seed
	trainer, err := NewTrainer(snap.Rules, training)
	if err != nil {
		return nil, err
	}
	table, err := RestoreTable(snap.InitialValue, snap.Rules.PriorityOrder(), snap.Entries)
	if err != nil {
		return nil, err
	}

	// The shoe shares the generator, so restoring it in place rewinds both
	// the shoe and exploration streams.
	if err := trainer.pcg.UnmarshalBinary(snap.RNGState); err != nil {
		return nil, fmt.Errorf("restore rng: %w", err)
	}

	trainer.table = table
	trainer.runID = snap.RunID
	trainer.chunk = snap.Chunk
	trainer.episodes = snap.Episodes
	trainer.history = snap.History
	trainer.stable = snap.Stable
	return trainer, nil
}

func (t *Trainer) buildCheckpoint() (*checkpointSnapshot, error) {
	state, err := t.pcg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("capture rng: %w", err)
	}
	return &checkpointSnapshot{
		Version:      checkpointFileVersion,
		RunID:        t.runID,
		Seed:         t.seed,
		Chunk:        t.chunk,
		Episodes:     t.episodes,
		RNGState:     state,
		Rules:        t.rules,
		Training:     t.trainCfg,
		History:      append([]float64(nil), t.history...),
		Stable:       t.stable,
		InitialValue: t.table.Initial(),
		Entries:      t.table.Entries(),
	}, nil
}

package solver

import (
	"errors"
	"math"
)

// TrainingConfig aggregates the parameters of a self-play training run.
type TrainingConfig struct {
	// Chunks caps the number of training chunks.
	Chunks int `json:"chunks"`

	// ChunkSize is the number of rounds played per chunk.
	ChunkSize int `json:"chunk_size"`

	Epsilon Schedule `json:"epsilon"`

	// LearningRate is the constant update step. Zero selects the sample
	// average step 1/n per (state, action).
	LearningRate float64 `json:"learning_rate"`

	// InitialValue seeds never-updated actions.
	InitialValue float64 `json:"initial_value"`

	// Seed drives the shoe and exploration. Zero picks a seed from the clock.
	Seed int64 `json:"seed"`

	// Bet is the base wager per round. Values are learned per unit of bet.
	Bet float64 `json:"bet"`

	// Tolerance enables early stopping once epsilon sits at its floor and the
	// mean profit of consecutive chunks moves less than Tolerance for Patience
	// chunks in a row. Zero disables it.
	Tolerance float64 `json:"tolerance"`
	Patience  int     `json:"patience"`
}

// DefaultTrainingConfig returns a ten million round run.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Chunks:    100,
		ChunkSize: 100_000,
		Epsilon: Schedule{
			Initial: 0.3,
			Decay:   0.95,
			Floor:   0.01,
		},
		Seed:     1,
		Bet:      1,
		Patience: 5,
	}
}

// Validate ensures the training parameters are safe to use.
func (c TrainingConfig) Validate() error {
	if c.Chunks <= 0 {
		return errors.New("chunks must be > 0")
	}
	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be > 0")
	}
	if err := c.Epsilon.Validate(); err != nil {
		return err
	}
	if c.LearningRate < 0 || c.LearningRate > 1 || math.IsNaN(c.LearningRate) {
		return errors.New("learning rate must be within [0, 1]")
	}
	if math.IsNaN(c.InitialValue) || math.IsInf(c.InitialValue, 0) {
		return errors.New("initial value must be finite")
	}
	if !(c.Bet > 0) || math.IsInf(c.Bet, 0) {
		return errors.New("bet must be > 0")
	}
	if c.Tolerance < 0 {
		return errors.New("tolerance cannot be negative")
	}
	if c.Tolerance > 0 && c.Patience <= 0 {
		return errors.New("patience must be > 0 when tolerance is set")
	}
	return nil
}

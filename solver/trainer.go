package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	rand "math/rand/v2"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/internal/randutil"
)

// cancelCheckEvery bounds how many rounds run between context checks.
const cancelCheckEvery = 1024

// ChunkReport summarises one completed training chunk.
type ChunkReport struct {
	Chunk         int
	Chunks        int
	Episodes      int64
	Epsilon       float64
	MeanProfit    float64
	RollingProfit float64
	States        int
	Shuffles      int
	Duration      time.Duration
	Converged     bool
}

// Trainer runs chunked epsilon-greedy Monte Carlo self-play. It owns the only
// writable handle to its table.
type Trainer struct {
	rules    blackjack.Rules
	trainCfg TrainingConfig
	sim      *blackjack.Simulator
	table    *Table
	pcg      *rand.PCG
	rng      *rand.Rand
	shoe     *blackjack.Shoe
	seed     int64
	runID    string

	chunk    int
	episodes int64
	history  []float64
	stable   int
	last     ChunkReport

	clock           quartz.Clock
	logger          zerolog.Logger
	checkpointPath  string
	checkpointEvery int
}

// NewTrainer constructs a trainer for the given rules and training config.
func NewTrainer(rules blackjack.Rules, trainCfg TrainingConfig) (*Trainer, error) {
	if err := trainCfg.Validate(); err != nil {
		return nil, err
	}
	sim, err := blackjack.NewSimulator(rules)
	if err != nil {
		return nil, err
	}

	seed := trainCfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pcg := randutil.NewPCG(seed)
	rng := rand.New(pcg)
	shoe, err := blackjack.NewShoe(rules, rng)
	if err != nil {
		return nil, err
	}

	return &Trainer{
		rules:    rules,
		trainCfg: trainCfg,
		sim:      sim,
		table:    NewTable(trainCfg.InitialValue, rules.PriorityOrder()),
		pcg:      pcg,
		rng:      rng,
		shoe:     shoe,
		seed:     seed,
		runID:    uuid.NewString(),
		clock:    quartz.NewReal(),
		logger:   zerolog.Nop(),
	}, nil
}

// EnableCheckpoints configures the trainer to write a checkpoint every n
// completed chunks and once more when the run ends. An interval below one
// writes nothing.
func (t *Trainer) EnableCheckpoints(path string, every int) {
	t.checkpointPath = path
	t.checkpointEvery = every
}

// SetLogger attaches a logger; the default discards output.
func (t *Trainer) SetLogger(logger zerolog.Logger) {
	t.logger = logger.With().Str("run_id", t.runID).Logger()
}

// SetClock replaces the clock used to time chunks.
func (t *Trainer) SetClock(clock quartz.Clock) {
	t.clock = clock
}

// SetTotalChunks extends or shortens the run, e.g. after resuming.
func (t *Trainer) SetTotalChunks(chunks int) error {
	if chunks < t.chunk {
		return fmt.Errorf("chunks %d is below completed chunk %d", chunks, t.chunk)
	}
	t.trainCfg.Chunks = chunks
	return nil
}

// WarmStart replaces the table with a copy of a previously trained one. It
// is only valid before the first chunk.
func (t *Trainer) WarmStart(table *Table) error {
	if t.chunk > 0 || t.episodes > 0 {
		return errors.New("warm start is only possible before training begins")
	}
	if err := table.Validate(); err != nil {
		return err
	}
	t.table = table.Clone()
	return nil
}

// Table exposes the trainer's table. Callers must not mutate it while Run is
// active.
func (t *Trainer) Table() *Table { return t.table }

// Rules returns the rules the trainer plays under.
func (t *Trainer) Rules() blackjack.Rules { return t.rules }

// TrainingConfig returns the active training parameters.
func (t *Trainer) TrainingConfig() TrainingConfig { return t.trainCfg }

// Seed returns the effective seed, resolved from the clock when the config
// asked for zero.
func (t *Trainer) Seed() int64 { return t.seed }

// RunID identifies this training run across checkpoints.
func (t *Trainer) RunID() string { return t.runID }

// Chunk returns the number of completed chunks.
func (t *Trainer) Chunk() int { return t.chunk }

// Episodes returns the number of rounds played so far.
func (t *Trainer) Episodes() int64 { return t.episodes }

// LastReport returns the report of the most recent chunk.
func (t *Trainer) LastReport() ChunkReport { return t.last }

// Run trains until the configured number of chunks completes or the profit
// curve stabilises. Cancellation abandons the chunk in progress; only chunk
// boundaries are checkpointed.
func (t *Trainer) Run(ctx context.Context, progress func(ChunkReport)) error {
	for t.chunk < t.trainCfg.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		report, err := t.runChunk(ctx)
		if err != nil {
			return err
		}
		t.last = report

		t.logger.Debug().
			Int("chunk", report.Chunk).
			Float64("epsilon", report.Epsilon).
			Float64("mean_profit", report.MeanProfit).
			Int("states", report.States).
			Dur("duration", report.Duration).
			Msg("chunk complete")

		if t.checkpointPath != "" && t.checkpointEvery > 0 && t.chunk%t.checkpointEvery == 0 {
			if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
				return err
			}
		}
		if progress != nil {
			progress(report)
		}
		if report.Converged {
			t.logger.Info().
				Int("chunk", report.Chunk).
				Float64("rolling_profit", report.RollingProfit).
				Msg("profit stabilised, stopping early")
			break
		}
	}

	if t.checkpointPath != "" && t.checkpointEvery > 0 {
		if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trainer) runChunk(ctx context.Context) (ChunkReport, error) {
	start := t.clock.Now()
	eps := t.trainCfg.Epsilon.At(t.chunk)
	bet := t.trainCfg.Bet
	lr := t.trainCfg.LearningRate
	shufflesBefore := t.shoe.Shuffles()

	// Every chunk starts from a fresh shoe so a checkpoint only needs the
	// generator state.
	t.shoe.Reshuffle()

	explorer := blackjack.PolicyFunc(func(key blackjack.StateKey, legal blackjack.ActionSet) blackjack.Action {
		return t.table.Explore(key, legal, eps, t.rng)
	})

	var sum float64
	for i := 0; i < t.trainCfg.ChunkSize; i++ {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return ChunkReport{}, err
			}
		}
		if t.shoe.NeedsReshuffle() {
			t.shoe.Reshuffle()
		}

		round, err := t.sim.Play(t.shoe, explorer, bet)
		if err != nil {
			return ChunkReport{}, fmt.Errorf("chunk %d round %d: %w", t.chunk, i, err)
		}
		sum += round.Profit / bet

		returns := Returns(round.Trajectory)
		for j, step := range round.Trajectory.Steps {
			if err := t.table.Update(step.Key, step.Action, returns[j], lr); err != nil {
				return ChunkReport{}, fmt.Errorf("chunk %d round %d: %w", t.chunk, i, err)
			}
		}
	}
	if err := t.table.Validate(); err != nil {
		return ChunkReport{}, err
	}

	mean := sum / float64(t.trainCfg.ChunkSize)
	t.episodes += int64(t.trainCfg.ChunkSize)
	t.history = append(t.history, mean)
	t.chunk++

	report := ChunkReport{
		Chunk:         t.chunk,
		Chunks:        t.trainCfg.Chunks,
		Episodes:      t.episodes,
		Epsilon:       eps,
		MeanProfit:    mean,
		RollingProfit: t.rolling(),
		States:        t.table.Len(),
		Shuffles:      t.shoe.Shuffles() - shufflesBefore,
		Duration:      t.clock.Since(start),
		Converged:     t.observeConvergence(eps),
	}
	return report, nil
}

// rolling averages the chunk means over the patience window.
func (t *Trainer) rolling() float64 {
	window := t.trainCfg.Patience
	if window <= 0 {
		window = 5
	}
	if window > len(t.history) {
		window = len(t.history)
	}
	if window == 0 {
		return 0
	}
	var sum float64
	for _, v := range t.history[len(t.history)-window:] {
		sum += v
	}
	return sum / float64(window)
}

func (t *Trainer) observeConvergence(eps float64) bool {
	tol := t.trainCfg.Tolerance
	if tol <= 0 || len(t.history) < 2 {
		return false
	}
	if eps > t.trainCfg.Epsilon.Floor {
		t.stable = 0
		return false
	}
	n := len(t.history)
	if math.Abs(t.history[n-1]-t.history[n-2]) < tol {
		t.stable++
	} else {
		t.stable = 0
	}
	return t.stable >= t.trainCfg.Patience
}

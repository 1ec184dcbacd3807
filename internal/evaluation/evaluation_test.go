package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/solver"
	"github.com/lox/blackjackbot/solver/runtime"
)

func testConfig(rounds, workers int) Config {
	cfg := DefaultConfig()
	cfg.Rounds = rounds
	cfg.Workers = workers
	cfg.Seed = 17
	return cfg
}

func TestEvaluateDeterministic(t *testing.T) {
	rules := blackjack.DefaultRules()
	cfg := testConfig(20_000, 4)

	a, err := Evaluate(context.Background(), rules, blackjack.FixedPolicy(blackjack.Stand), cfg)
	require.NoError(t, err)
	b, err := Evaluate(context.Background(), rules, blackjack.FixedPolicy(blackjack.Stand), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Stats, b.Stats)
	assert.Equal(t, a.Mean, b.Mean)
	assert.Equal(t, 20_000, a.Stats.Rounds)
	assert.Equal(t, 4, a.Workers)
}

func TestEvaluateIndependentOfWorkerCount(t *testing.T) {
	rules := blackjack.DefaultRules()
	policy := blackjack.FixedPolicy(blackjack.Stand)

	cfg := testConfig(3*BlockSize+517, 1)
	cfg.CurveEvery = 1000
	serial, err := Evaluate(context.Background(), rules, policy, cfg)
	require.NoError(t, err)

	for _, workers := range []int{0, 2, 4} {
		cfg.Workers = workers
		res, err := Evaluate(context.Background(), rules, policy, cfg)
		require.NoError(t, err)
		assert.Equal(t, serial.Stats, res.Stats, "workers=%d", workers)
		assert.Equal(t, serial.Mean, res.Mean, "workers=%d", workers)
		assert.Equal(t, serial.Curve, res.Curve, "workers=%d", workers)
	}
	assert.Equal(t, 3*BlockSize+517, serial.Stats.Rounds)
}

func TestEvaluateConfidenceInterval(t *testing.T) {
	res, err := Evaluate(context.Background(), blackjack.DefaultRules(), blackjack.FixedPolicy(blackjack.Stand), testConfig(50_000, 2))
	require.NoError(t, err)

	assert.Less(t, res.CILow, res.Mean)
	assert.Greater(t, res.CIHigh, res.Mean)
	assert.InDelta(t, res.Stats.Sum, res.TotalProfit, 1e-9)
	assert.Equal(t, 0, res.Stats.Busts, "standing never busts")
	assert.Equal(t, res.Stats.Rounds, res.Stats.Hands, "no splits when always standing")
}

func TestPolicyOrdering(t *testing.T) {
	if testing.Short() {
		t.Skip("simulates 200k rounds")
	}
	rules := blackjack.DefaultRules()
	cfg := testConfig(100_000, 0)

	stand, err := Evaluate(context.Background(), rules, blackjack.FixedPolicy(blackjack.Stand), cfg)
	require.NoError(t, err)
	hit, err := Evaluate(context.Background(), rules, blackjack.FixedPolicy(blackjack.Hit), cfg)
	require.NoError(t, err)

	assert.Greater(t, stand.Mean, -0.25)
	assert.Less(t, stand.Mean, -0.05)
	assert.Less(t, hit.Mean, stand.Mean)
	assert.Less(t, hit.CIHigh, stand.CILow, "intervals separate")
}

func TestTrainedPolicyWithinHouseEdgeBand(t *testing.T) {
	if testing.Short() {
		t.Skip("trains on 4M rounds")
	}
	rules := blackjack.SingleDeckH17()
	train := solver.DefaultTrainingConfig()
	train.Chunks = 40
	train.ChunkSize = 100_000
	train.Seed = 3

	trainer, err := solver.NewTrainer(rules, train)
	require.NoError(t, err)
	require.NoError(t, trainer.Run(context.Background(), nil))
	require.GreaterOrEqual(t, trainer.Episodes(), int64(1_000_000))

	policy := runtime.New(trainer.Table(), rules, trainer.RunID())
	res, err := Evaluate(context.Background(), rules, policy, testConfig(1_000_000, 0))
	require.NoError(t, err)

	assert.Greater(t, res.Mean, -0.03)
	assert.Less(t, res.Mean, 0.01)
}

func TestEvaluateCurve(t *testing.T) {
	cfg := testConfig(1000, 3)
	cfg.CurveEvery = 100

	res, err := Evaluate(context.Background(), blackjack.DefaultRules(), blackjack.FixedPolicy(blackjack.Stand), cfg)
	require.NoError(t, err)

	require.Len(t, res.Curve, 10)
	for i, pt := range res.Curve {
		assert.Equal(t, (i+1)*100, pt.Round)
	}
	assert.InDelta(t, res.Stats.Sum, res.Curve[len(res.Curve)-1].Cumulative, 1e-9)
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Evaluate(ctx, blackjack.DefaultRules(), blackjack.FixedPolicy(blackjack.Stand), testConfig(10_000, 2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluatePropagatesPolicyErrors(t *testing.T) {
	// Splitting is only legal on pairs; the first non-pair hand fails.
	_, err := Evaluate(context.Background(), blackjack.DefaultRules(), blackjack.FixedPolicy(blackjack.Split), testConfig(1000, 2))
	assert.ErrorIs(t, err, blackjack.ErrIllegalAction)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Rounds = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Confidence = 1
	assert.Error(t, cfg.Validate())

	_, err := Evaluate(context.Background(), blackjack.DefaultRules(), nil, DefaultConfig())
	assert.Error(t, err)
}

func TestResultFromRound(t *testing.T) {
	r := blackjack.Round{
		Bet:    2,
		Profit: -3,
		Hands: []blackjack.HandResult{
			{Outcome: blackjack.Bust, Doubled: true},
			{Outcome: blackjack.Win},
		},
	}
	res := ResultFromRound(r)
	assert.Equal(t, -1.5, res.Profit)
	assert.Equal(t, 2, res.Hands)
	assert.Equal(t, 1, res.Splits)
	assert.Equal(t, 1, res.Doubles)
	assert.Equal(t, 1, res.Busts)
}

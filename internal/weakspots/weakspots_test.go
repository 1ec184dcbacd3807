package weakspots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/solver"
	"github.com/lox/blackjackbot/solver/runtime"
)

func standingPolicy() *runtime.Policy {
	return runtime.New(solver.NewTable(0, nil), blackjack.DefaultRules(), "")
}

func hittingPolicy(t *testing.T) *runtime.Policy {
	rules := blackjack.DefaultRules()
	table := solver.NewTable(0, nil)
	for _, key := range blackjack.AllStateKeys(rules) {
		require.NoError(t, table.Update(key, blackjack.Hit, 1, 0))
	}
	return runtime.New(table, rules, "")
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Rounds = 5000
	cfg.MinVisits = 20
	cfg.Top = 10
	return cfg
}

func TestAnalyzeOrdersWorstFirst(t *testing.T) {
	spots, err := Analyze(context.Background(), standingPolicy(), smallConfig())
	require.NoError(t, err)
	require.NotEmpty(t, spots)
	assert.LessOrEqual(t, len(spots), 10)

	for i, s := range spots {
		assert.Equal(t, blackjack.Stand, s.Action)
		assert.GreaterOrEqual(t, s.Visits, 20)
		if i > 0 {
			assert.LessOrEqual(t, spots[i-1].Mean, s.Mean)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a, err := Analyze(context.Background(), standingPolicy(), smallConfig())
	require.NoError(t, err)
	b, err := Analyze(context.Background(), standingPolicy(), smallConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyzeFindsHittingOnStiffTotals(t *testing.T) {
	cfg := smallConfig()
	cfg.Top = 1
	spots, err := Analyze(context.Background(), hittingPolicy(t), cfg)
	require.NoError(t, err)
	require.Len(t, spots, 1)

	worst := spots[0]
	assert.Equal(t, blackjack.Hit, worst.Action)
	assert.GreaterOrEqual(t, int(worst.Key.Total), 12)
	assert.Less(t, worst.Mean, -0.5)
	assert.Equal(t, 1.0, worst.Estimate, "estimate comes from the table")
}

func TestAnalyzeCoarseGrouping(t *testing.T) {
	cfg := smallConfig()
	cfg.Coarse = true
	cfg.Top = 0
	spots, err := Analyze(context.Background(), standingPolicy(), cfg)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, s := range spots {
		assert.Zero(t, s.Key.Legal)
		assert.Zero(t, s.Key.Splits)
		label := s.Label(true)
		assert.False(t, seen[label], "duplicate coarse spot %s", label)
		seen[label] = true
	}
}

func TestSpotLabel(t *testing.T) {
	key, err := blackjack.ParseStateKey("S18/1/SHD/0")
	require.NoError(t, err)
	s := Spot{Key: key, Action: blackjack.Stand}
	assert.Equal(t, "soft 18 vs A", s.Label(true))
	assert.Equal(t, "soft 18 vs A [S18/1/SHD/0]", s.Label(false))
}

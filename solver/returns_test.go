package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/blackjackbot/blackjack"
)

func TestReturnsSingleHand(t *testing.T) {
	tr := blackjack.Trajectory{
		Steps: []blackjack.Step{
			{Action: blackjack.Hit, Hand: 0, Spawned: -1},
			{Action: blackjack.Hit, Hand: 0, Spawned: -1},
			{Action: blackjack.Stand, Hand: 0, Spawned: -1},
		},
		HandProfit: []float64{-1},
	}
	assert.Equal(t, []float64{-1, -1, -1}, Returns(tr))
}

func TestReturnsCreditSplitsWithChildren(t *testing.T) {
	// Hand 0 splits into 1, later resplits into 2; hand 1 splits into 3.
	tr := blackjack.Trajectory{
		Steps: []blackjack.Step{
			{Action: blackjack.Split, Hand: 0, Spawned: 1},
			{Action: blackjack.Split, Hand: 0, Spawned: 2},
			{Action: blackjack.Double, Hand: 0, Spawned: -1},
			{Action: blackjack.Stand, Hand: 2, Spawned: -1},
			{Action: blackjack.Split, Hand: 1, Spawned: 3},
			{Action: blackjack.Hit, Hand: 1, Spawned: -1},
			{Action: blackjack.Stand, Hand: 3, Spawned: -1},
		},
		HandProfit: []float64{2, -1, 1, -1},
	}

	got := Returns(tr)
	assert.Equal(t, []float64{1, 3, 2, 1, -2, -1, -1}, got)
}

func TestReturnsNaturalHasNoSteps(t *testing.T) {
	tr := blackjack.Trajectory{HandProfit: []float64{1.5}}
	assert.Empty(t, Returns(tr))
}

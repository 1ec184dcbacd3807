package solver

import "github.com/lox/blackjackbot/blackjack"

// Returns computes the return credited to every decision of a round, in
// base-bet units. A decision is credited with the final profit of the hand it
// was made on plus, for a split, everything earned by the hands that split
// produced. Walking the steps backwards lets each split fold its child's
// total into the parent before earlier decisions of the parent are reached.
func Returns(tr blackjack.Trajectory) []float64 {
	running := make([]float64, len(tr.HandProfit))
	copy(running, tr.HandProfit)

	out := make([]float64, len(tr.Steps))
	for i := len(tr.Steps) - 1; i >= 0; i-- {
		step := tr.Steps[i]
		if step.Spawned >= 0 && step.Spawned < len(running) {
			running[step.Hand] += running[step.Spawned]
		}
		out[i] = running[step.Hand]
	}
	return out
}

// Package statistics accumulates per-round blackjack results and summarises
// them with confidence intervals.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// RoundResult is the outcome of one round from the player's side.
type RoundResult struct {
	Profit     float64 // Net result in units of the base bet
	Natural    bool    // Either side had blackjack
	Hands      int     // Hands played, more than one after splits
	Doubles    int
	Splits     int
	Surrenders int
	Busts      int
}

// Statistics tracks an evaluation run. The zero value is ready to use.
type Statistics struct {
	Rounds int
	Sum    float64
	SumSq  float64 // Sum of squares for variance calculation
	Min    float64
	Max    float64

	Wins     int // Rounds with positive profit
	Losses   int // Rounds with negative profit
	Pushes   int
	Naturals int

	Hands      int
	Doubles    int
	Splits     int
	Surrenders int
	Busts      int

	// Histogram counts rounds by exact profit. A round only takes a handful
	// of distinct values for a given payout, so medians and percentiles
	// stay exact without keeping every value.
	Histogram map[float64]int
}

// Add incorporates a round.
func (s *Statistics) Add(r RoundResult) {
	if s.Rounds == 0 || r.Profit < s.Min {
		s.Min = r.Profit
	}
	if s.Rounds == 0 || r.Profit > s.Max {
		s.Max = r.Profit
	}
	s.Rounds++
	s.Sum += r.Profit
	s.SumSq += r.Profit * r.Profit

	switch {
	case r.Profit > 0:
		s.Wins++
	case r.Profit < 0:
		s.Losses++
	default:
		s.Pushes++
	}
	if r.Natural {
		s.Naturals++
	}
	s.Hands += r.Hands
	s.Doubles += r.Doubles
	s.Splits += r.Splits
	s.Surrenders += r.Surrenders
	s.Busts += r.Busts

	if s.Histogram == nil {
		s.Histogram = make(map[float64]int)
	}
	s.Histogram[r.Profit]++
}

// Merge folds other into s. Merging the same parts in the same order always
// produces the same totals.
func (s *Statistics) Merge(other *Statistics) {
	if other == nil || other.Rounds == 0 {
		return
	}
	if s.Rounds == 0 || other.Min < s.Min {
		s.Min = other.Min
	}
	if s.Rounds == 0 || other.Max > s.Max {
		s.Max = other.Max
	}
	s.Rounds += other.Rounds
	s.Sum += other.Sum
	s.SumSq += other.SumSq
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Pushes += other.Pushes
	s.Naturals += other.Naturals
	s.Hands += other.Hands
	s.Doubles += other.Doubles
	s.Splits += other.Splits
	s.Surrenders += other.Surrenders
	s.Busts += other.Busts

	if s.Histogram == nil {
		s.Histogram = make(map[float64]int, len(other.Histogram))
	}
	for k, v := range other.Histogram {
		s.Histogram[k] += v
	}
}

// Mean returns the average profit per round.
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.Sum / float64(s.Rounds)
}

// Variance returns the sample variance of the per-round profit.
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	v := (s.SumSq - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
	if v < 0 {
		// Rounding when every round has the same result.
		return 0
	}
	return v
}

// StdDev returns the sample standard deviation.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval returns the two sided Student-t interval for the mean
// at the given level, e.g. 0.95. Fewer than two rounds yield an unbounded
// interval.
func (s *Statistics) ConfidenceInterval(level float64) (float64, float64) {
	mean := s.Mean()
	if s.Rounds < 2 || level <= 0 || level >= 1 {
		return math.Inf(-1), math.Inf(1)
	}
	tDist := distuv.StudentsT{
		Nu:    float64(s.Rounds - 1),
		Mu:    0,
		Sigma: 1,
	}
	margin := tDist.Quantile(0.5+level/2) * s.StdError()
	return mean - margin, mean + margin
}

// ConfidenceInterval95 is ConfidenceInterval(0.95).
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	return s.ConfidenceInterval(0.95)
}

// WinRate returns the fraction of rounds with positive profit.
func (s *Statistics) WinRate() float64 {
	return s.rate(s.Wins)
}

// LossRate returns the fraction of rounds with negative profit.
func (s *Statistics) LossRate() float64 {
	return s.rate(s.Losses)
}

// PushRate returns the fraction of rounds that broke even.
func (s *Statistics) PushRate() float64 {
	return s.rate(s.Pushes)
}

func (s *Statistics) rate(n int) float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(n) / float64(s.Rounds)
}

// Median returns the median per-round profit.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0) using
// linear interpolation between neighbouring ranks.
func (s *Statistics) Percentile(p float64) float64 {
	if s.Rounds == 0 {
		return 0
	}
	keys := make([]float64, 0, len(s.Histogram))
	for k := range s.Histogram {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	index := p * float64(s.Rounds-1)
	lower := int(index)
	weight := index - float64(lower)
	lo := valueAtRank(keys, s.Histogram, lower)
	if weight == 0 || lower+1 >= s.Rounds {
		return lo
	}
	hi := valueAtRank(keys, s.Histogram, lower+1)
	return lo*(1-weight) + hi*weight
}

func valueAtRank(keys []float64, hist map[float64]int, rank int) float64 {
	seen := 0
	for _, k := range keys {
		seen += hist[k]
		if rank < seen {
			return k
		}
	}
	return keys[len(keys)-1]
}

// Validate performs consistency checks on the accumulated data.
func (s *Statistics) Validate() error {
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if s.Wins+s.Losses+s.Pushes != s.Rounds {
		return fmt.Errorf("wins (%d) + losses (%d) + pushes (%d) does not match rounds (%d)",
			s.Wins, s.Losses, s.Pushes, s.Rounds)
	}
	total := 0
	for _, v := range s.Histogram {
		total += v
	}
	if total != s.Rounds {
		return fmt.Errorf("histogram total (%d) does not match rounds (%d)", total, s.Rounds)
	}
	if s.Hands < s.Rounds {
		return fmt.Errorf("hands (%d) below rounds (%d)", s.Hands, s.Rounds)
	}
	if math.IsNaN(s.Sum) || math.IsInf(s.Sum, 0) {
		return fmt.Errorf("non-finite profit sum %v", s.Sum)
	}
	return nil
}

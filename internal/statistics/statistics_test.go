package statistics

import (
	"math"
	"testing"
)

func TestStatistics_Empty(t *testing.T) {
	stats := &Statistics{}

	if stats.Mean() != 0 {
		t.Errorf("Expected mean of 0 for empty stats, got %f", stats.Mean())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for empty stats, got %f", stats.Variance())
	}
	if stats.StdError() != 0 {
		t.Errorf("Expected stderr of 0 for empty stats, got %f", stats.StdError())
	}
	if stats.Median() != 0 {
		t.Errorf("Expected median of 0 for empty stats, got %f", stats.Median())
	}
	if lo, hi := stats.ConfidenceInterval95(); !math.IsInf(lo, -1) || !math.IsInf(hi, 1) {
		t.Errorf("Expected unbounded interval for empty stats, got [%f, %f]", lo, hi)
	}
	if err := stats.Validate(); err == nil {
		t.Error("Expected validation error for empty stats")
	}
}

func TestStatistics_KnownValues(t *testing.T) {
	stats := &Statistics{}
	for _, p := range []float64{1, -1, 1.5, 0, -1, 1} {
		stats.Add(RoundResult{Profit: p, Hands: 1, Natural: p == 1.5})
	}

	if stats.Rounds != 6 {
		t.Fatalf("Expected 6 rounds, got %d", stats.Rounds)
	}
	if math.Abs(stats.Mean()-0.25) > 1e-12 {
		t.Errorf("Expected mean 0.25, got %f", stats.Mean())
	}
	// Squares sum to 6.25; (6.25 - 6*0.0625) / 5 = 1.175.
	if math.Abs(stats.Variance()-1.175) > 1e-12 {
		t.Errorf("Expected variance 1.175, got %f", stats.Variance())
	}
	if stats.Min != -1 || stats.Max != 1.5 {
		t.Errorf("Expected min -1 max 1.5, got %f %f", stats.Min, stats.Max)
	}
	if stats.Wins != 3 || stats.Losses != 2 || stats.Pushes != 1 {
		t.Errorf("Unexpected outcome counts: %d/%d/%d", stats.Wins, stats.Losses, stats.Pushes)
	}
	if stats.Naturals != 1 {
		t.Errorf("Expected 1 natural, got %d", stats.Naturals)
	}
	// Sorted: -1 -1 0 1 1 1.5, median between 0 and 1.
	if stats.Median() != 0.5 {
		t.Errorf("Expected median 0.5, got %f", stats.Median())
	}
	if stats.Percentile(0) != -1 || stats.Percentile(1) != 1.5 {
		t.Errorf("Unexpected extremes %f %f", stats.Percentile(0), stats.Percentile(1))
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

func TestStatistics_ConfidenceIntervalUsesStudentT(t *testing.T) {
	stats := &Statistics{}
	stats.Add(RoundResult{Profit: 1, Hands: 1})
	stats.Add(RoundResult{Profit: -1, Hands: 1})

	// Two samples: t(0.975, 1) = 12.706, stderr = sqrt(2)/sqrt(2) = 1.
	lo, hi := stats.ConfidenceInterval95()
	if math.Abs(hi-12.7062) > 1e-3 || math.Abs(lo+12.7062) > 1e-3 {
		t.Errorf("Expected about +-12.706, got [%f, %f]", lo, hi)
	}

	lo90, hi90 := stats.ConfidenceInterval(0.90)
	if !(hi90 < hi && lo90 > lo) {
		t.Errorf("Expected the 90%% interval inside the 95%% interval")
	}
}

func TestStatistics_MergeMatchesSequential(t *testing.T) {
	profits := []float64{1, -1, -1, 0.5, -0.5, 2, -2, 1.5, 0, -1, 1, 1}

	all := &Statistics{}
	a := &Statistics{}
	b := &Statistics{}
	for i, p := range profits {
		r := RoundResult{Profit: p, Hands: 1 + i%2, Splits: i % 2}
		all.Add(r)
		if i < 5 {
			a.Add(r)
		} else {
			b.Add(r)
		}
	}

	merged := &Statistics{}
	merged.Merge(a)
	merged.Merge(b)
	merged.Merge(&Statistics{})

	if merged.Rounds != all.Rounds || merged.Hands != all.Hands || merged.Splits != all.Splits {
		t.Fatalf("Counts differ: %+v vs %+v", merged, all)
	}
	if math.Abs(merged.Mean()-all.Mean()) > 1e-12 {
		t.Errorf("Mean differs: %f vs %f", merged.Mean(), all.Mean())
	}
	if math.Abs(merged.Variance()-all.Variance()) > 1e-12 {
		t.Errorf("Variance differs: %f vs %f", merged.Variance(), all.Variance())
	}
	if merged.Min != all.Min || merged.Max != all.Max {
		t.Errorf("Extremes differ")
	}
	if merged.Median() != all.Median() {
		t.Errorf("Median differs: %f vs %f", merged.Median(), all.Median())
	}
	if err := merged.Validate(); err != nil {
		t.Errorf("Merged stats invalid: %v", err)
	}
}

func TestStatistics_ConstantResultsHaveZeroVariance(t *testing.T) {
	stats := &Statistics{}
	for i := 0; i < 1000; i++ {
		stats.Add(RoundResult{Profit: 0.1, Hands: 1})
	}
	if v := stats.Variance(); v < 0 || v > 1e-12 {
		t.Errorf("Expected near-zero variance, got %g", v)
	}
}

func TestStatistics_PercentilesKeepSixToFivePayouts(t *testing.T) {
	stats := &Statistics{}
	for _, p := range []float64{1.2, -1, 1.2, 0.6, 1.2} {
		stats.Add(RoundResult{Profit: p, Natural: p == 1.2, Hands: 1})
	}

	// Sorted: -1 0.6 1.2 1.2 1.2.
	if stats.Median() != 1.2 {
		t.Errorf("Expected median 1.2, got %f", stats.Median())
	}
	if stats.Percentile(1) != stats.Max {
		t.Errorf("Expected top percentile %f, got %f", stats.Max, stats.Percentile(1))
	}
	if got := stats.Percentile(0.25); got != 0.6 {
		t.Errorf("Expected lower quartile 0.6, got %f", got)
	}
	if len(stats.Histogram) != 3 {
		t.Errorf("Expected 3 distinct profits, got %d", len(stats.Histogram))
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

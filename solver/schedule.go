package solver

import (
	"errors"
	"math"
)

// Schedule decays the exploration rate geometrically per chunk down to a
// floor.
type Schedule struct {
	Initial float64 `json:"initial"`
	Decay   float64 `json:"decay"`
	Floor   float64 `json:"floor"`
}

// At returns the exploration rate used during the given zero based chunk.
func (s Schedule) At(chunk int) float64 {
	eps := s.Initial * math.Pow(s.Decay, float64(chunk))
	if eps < s.Floor {
		return s.Floor
	}
	return eps
}

// Validate ensures the schedule stays within [0, 1] and never increases.
func (s Schedule) Validate() error {
	if s.Initial < 0 || s.Initial > 1 {
		return errors.New("epsilon initial must be within [0, 1]")
	}
	if s.Floor < 0 || s.Floor > 1 {
		return errors.New("epsilon floor must be within [0, 1]")
	}
	if s.Decay <= 0 || s.Decay > 1 {
		return errors.New("epsilon decay must be within (0, 1]")
	}
	return nil
}

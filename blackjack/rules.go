package blackjack

import (
	"errors"
	"fmt"
)

// Rules captures the house rules and shoe configuration for a table. Every
// simulator and trainer receives Rules explicitly; nothing is global.
type Rules struct {
	// Decks is the number of 52-card decks merged into the shoe.
	Decks int `json:"decks"`

	// Penetration is the fraction of the shoe dealt before a reshuffle is due.
	Penetration float64 `json:"penetration"`

	// BlackjackPayout is the multiple of the bet paid for a natural.
	BlackjackPayout float64 `json:"blackjack_payout"`

	// DealerHitsSoft17 switches the dealer from S17 to H17.
	DealerHitsSoft17 bool `json:"dealer_hits_soft17"`

	AllowDouble      bool `json:"allow_double"`
	DoubleAfterSplit bool `json:"double_after_split"`
	AllowSplit       bool `json:"allow_split"`

	// MaxSplits bounds the number of split actions per round (hands = MaxSplits+1).
	MaxSplits int `json:"max_splits"`

	// SplitByValue lets any two ten-valued cards be split, not only equal ranks.
	SplitByValue bool `json:"split_by_value"`

	// HitSplitAces allows further actions on hands created by splitting aces.
	HitSplitAces bool `json:"hit_split_aces"`
	ResplitAces  bool `json:"resplit_aces"`

	// AllowSurrender enables late surrender on the first two cards.
	AllowSurrender bool `json:"allow_surrender"`

	// AutoReshuffle refills an exhausted shoe instead of failing the draw.
	AutoReshuffle bool `json:"auto_reshuffle"`

	// Priority breaks ties between equally valued actions, first wins.
	Priority []Action `json:"priority"`
}

// DefaultPriority is the tie-break order used when Rules.Priority is empty.
var DefaultPriority = []Action{Stand, Hit, Double, Split, Surrender}

// DefaultRules returns a six deck S17 table paying 3:2 with double after
// split, up to three splits and one card to split aces.
func DefaultRules() Rules {
	return Rules{
		Decks:            6,
		Penetration:      0.75,
		BlackjackPayout:  1.5,
		DealerHitsSoft17: false,
		AllowDouble:      true,
		DoubleAfterSplit: true,
		AllowSplit:       true,
		MaxSplits:        3,
		SplitByValue:     true,
		HitSplitAces:     false,
		ResplitAces:      false,
		AllowSurrender:   false,
		AutoReshuffle:    true,
		Priority:         append([]Action(nil), DefaultPriority...),
	}
}

// SingleDeckH17 returns a single deck table where the dealer hits soft 17.
func SingleDeckH17() Rules {
	r := DefaultRules()
	r.Decks = 1
	r.DealerHitsSoft17 = true
	return r
}

// Validate ensures the rules are internally consistent.
func (r Rules) Validate() error {
	if r.Decks <= 0 {
		return errors.New("decks must be > 0")
	}
	if r.Penetration <= 0 || r.Penetration > 1 {
		return fmt.Errorf("penetration must be in (0, 1], got %v", r.Penetration)
	}
	if r.BlackjackPayout <= 0 {
		return errors.New("blackjack payout must be > 0")
	}
	if r.MaxSplits < 0 {
		return errors.New("max splits cannot be negative")
	}
	if r.AllowSplit && r.MaxSplits == 0 {
		return errors.New("max splits must be > 0 when splitting is allowed")
	}
	seen := ActionSet(0)
	for _, a := range r.Priority {
		if !a.Valid() {
			return fmt.Errorf("priority contains invalid action %d", a)
		}
		if seen.Has(a) {
			return fmt.Errorf("priority lists %s twice", a)
		}
		seen = seen.With(a)
	}
	return nil
}

// Enabled returns every action the table permits somewhere.
func (r Rules) Enabled() ActionSet {
	s := NewActionSet(Stand, Hit)
	if r.AllowDouble {
		s = s.With(Double)
	}
	if r.AllowSplit {
		s = s.With(Split)
	}
	if r.AllowSurrender {
		s = s.With(Surrender)
	}
	return s
}

// PriorityOrder returns the tie-break order, falling back to DefaultPriority
// and appending any action the configured order omits.
func (r Rules) PriorityOrder() []Action {
	order := make([]Action, 0, NumActions)
	var seen ActionSet
	for _, a := range r.Priority {
		if a.Valid() && !seen.Has(a) {
			order = append(order, a)
			seen = seen.With(a)
		}
	}
	for _, a := range DefaultPriority {
		if !seen.Has(a) {
			order = append(order, a)
			seen = seen.With(a)
		}
	}
	return order
}

// CanSplitHand reports whether the two cards form a splittable pair.
func (r Rules) CanSplitHand(h Hand) bool {
	if r.SplitByValue {
		return h.IsValuePair()
	}
	return h.IsPair()
}

// LegalActions returns the actions available for a live hand. splits is the
// number of splits already made this round and fromSplit marks hands that
// were created by a split.
func (r Rules) LegalActions(h Hand, splits int, fromSplit bool) ActionSet {
	if fromSplit && len(h) > 0 && h[0].IsAce() && !r.HitSplitAces {
		return r.splitAceActions(h, splits)
	}
	s := NewActionSet(Stand, Hit)
	if len(h) != 2 {
		return s
	}
	if r.AllowDouble && (!fromSplit || r.DoubleAfterSplit) {
		s = s.With(Double)
	}
	if r.AllowSplit && splits < r.MaxSplits && r.CanSplitHand(h) {
		if !(fromSplit && h[0].IsAce() && !r.ResplitAces) {
			s = s.With(Split)
		}
	}
	if r.AllowSurrender && splits == 0 && !fromSplit {
		s = s.With(Surrender)
	}
	return s
}

// splitAceActions covers hands from split aces when they may not be hit. The
// only choice left is to resplit another ace, otherwise the hand stands.
func (r Rules) splitAceActions(h Hand, splits int) ActionSet {
	s := NewActionSet(Stand)
	if len(h) == 2 && r.AllowSplit && r.ResplitAces && splits < r.MaxSplits && r.CanSplitHand(h) {
		s = s.With(Split)
	}
	return s
}

// dealerStands reports whether the dealer stops drawing on h.
func (r Rules) dealerStands(h Hand) bool {
	total := h.Total()
	if total > 17 {
		return true
	}
	if total == 17 {
		return !(r.DealerHitsSoft17 && h.Soft())
	}
	return false
}

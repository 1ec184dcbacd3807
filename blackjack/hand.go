package blackjack

import "strings"

// Hand is an ordered set of cards held by the player or the dealer.
type Hand []Card

// NewHand returns a hand holding copies of the provided cards.
func NewHand(cards ...Card) Hand {
	h := make(Hand, len(cards), len(cards)+4)
	copy(h, cards)
	return h
}

// Add returns the hand with c appended.
func (h Hand) Add(c Card) Hand {
	return append(h, c)
}

// Hard returns the total with every ace counted as 1.
func (h Hand) Hard() int {
	total := 0
	for _, c := range h {
		total += c.Value()
	}
	return total
}

func (h Hand) hasAce() bool {
	for _, c := range h {
		if c.IsAce() {
			return true
		}
	}
	return false
}

// Total returns the best total not exceeding 21, counting one ace as 11 when
// that does not bust. Busted hands report their hard total.
func (h Hand) Total() int {
	hard := h.Hard()
	if hard <= 11 && h.hasAce() {
		return hard + 10
	}
	return hard
}

// Soft reports whether an ace is currently counted as 11.
func (h Hand) Soft() bool {
	return h.Hard() <= 11 && h.hasAce()
}

// IsBlackjack reports a two card 21. Whether it pays as a natural depends on
// the hand not coming from a split, which the simulator tracks.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && h.Total() == 21
}

// IsBust reports whether the hand exceeds 21.
func (h Hand) IsBust() bool {
	return h.Hard() > 21
}

// IsPair reports whether the hand holds exactly two cards of the same rank.
func (h Hand) IsPair() bool {
	return len(h) == 2 && h[0].Rank == h[1].Rank
}

// IsValuePair reports whether the hand holds exactly two cards of equal point
// value, so that a ten and a king count as a pair.
func (h Hand) IsValuePair() bool {
	return len(h) == 2 && h[0].Value() == h[1].Value()
}

func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

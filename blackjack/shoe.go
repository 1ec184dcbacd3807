package blackjack

import (
	"errors"
	"fmt"
	"math"
	rand "math/rand/v2"
)

// CardSource is anything the simulator can draw cards from.
type CardSource interface {
	Draw() (Card, error)
}

// Shoe holds one or more shuffled decks and tracks how deep it has been dealt.
type Shoe struct {
	base     []Card
	cards    []Card
	next     int
	cut      int
	auto     bool
	rng      *rand.Rand
	shuffles int
}

// NewShoe builds and shuffles a shoe according to the rules. The rng is the
// only source of randomness, so a seeded rng gives a reproducible deal order.
func NewShoe(rules Rules, rng *rand.Rand) (*Shoe, error) {
	if rng == nil {
		return nil, errors.New("shoe requires a random source")
	}
	if rules.Decks <= 0 {
		return nil, fmt.Errorf("decks must be > 0, got %d", rules.Decks)
	}
	if rules.Penetration <= 0 || rules.Penetration > 1 {
		return nil, fmt.Errorf("penetration must be in (0, 1], got %v", rules.Penetration)
	}

	size := rules.Decks * 52
	s := &Shoe{
		base:  make([]Card, 0, size),
		cards: make([]Card, size),
		cut:   int(math.Round(float64(size) * rules.Penetration)),
		auto:  rules.AutoReshuffle,
		rng:   rng,
	}
	for d := 0; d < rules.Decks; d++ {
		for suit := Spades; suit <= Clubs; suit++ {
			for rank := Ace; rank <= King; rank++ {
				s.base = append(s.base, NewCard(rank, suit))
			}
		}
	}
	s.Reshuffle()
	return s, nil
}

// Reshuffle returns every card to the shoe and shuffles uniformly. The new
// order depends only on the state of the random source.
func (s *Shoe) Reshuffle() {
	copy(s.cards, s.base)
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
	s.next = 0
	s.shuffles++
}

// Draw removes and returns the next card. An exhausted shoe either
// reshuffles itself or fails with ErrEmptyShoe, depending on the rules.
func (s *Shoe) Draw() (Card, error) {
	if s.next >= len(s.cards) {
		if !s.auto {
			return Card{}, ErrEmptyShoe
		}
		s.Reshuffle()
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

// NeedsReshuffle reports whether the cut card has been reached.
func (s *Shoe) NeedsReshuffle() bool {
	return s.next >= s.cut
}

// Remaining returns the number of undealt cards.
func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}

// Size returns the total number of cards in a full shoe.
func (s *Shoe) Size() int {
	return len(s.cards)
}

// Shuffles returns how many times the shoe has been shuffled, including the
// initial shuffle.
func (s *Shoe) Shuffles() int {
	return s.shuffles
}

// StackedSource deals a fixed sequence of cards. It is intended for replaying
// known deals and for tests.
type StackedSource struct {
	cards []Card
	next  int
}

// NewStackedSource returns a source dealing cards in the given order.
func NewStackedSource(cards ...Card) *StackedSource {
	return &StackedSource{cards: append([]Card(nil), cards...)}
}

// Draw returns the next stacked card or ErrEmptyShoe.
func (s *StackedSource) Draw() (Card, error) {
	if s.next >= len(s.cards) {
		return Card{}, ErrEmptyShoe
	}
	c := s.cards[s.next]
	s.next++
	return c, nil
}

// Dealt returns the number of cards drawn so far.
func (s *StackedSource) Dealt() int {
	return s.next
}

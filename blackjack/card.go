package blackjack

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit identifies one of the four suits. Suits never affect play.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

func (s Suit) String() string {
	switch s {
	case Spades:
		return "s"
	case Hearts:
		return "h"
	case Diamonds:
		return "d"
	case Clubs:
		return "c"
	default:
		return "?"
	}
}

// Rank is the card rank from Ace (1) to King (13).
type Rank uint8

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// Value returns the blackjack point value with aces counted as 1.
func (r Rank) Value() int {
	if r >= Ten {
		return 10
	}
	return int(r)
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		if r >= Two && r <= Nine {
			return strconv.Itoa(int(r))
		}
		return "?"
	}
}

// Card is a single playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard returns a card of the given rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Value returns the point value of the card with aces counted as 1.
func (c Card) Value() int {
	return c.Rank.Value()
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Valid reports whether the card has a rank and suit within range.
func (c Card) Valid() bool {
	return c.Rank >= Ace && c.Rank <= King && c.Suit <= Clubs
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// ParseRank parses the rank portion of user input. It accepts A, 2-10, T, J,
// Q, K and the value 11 as an alias for an ace.
func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "A", "ACE", "1", "11":
		return Ace, nil
	case "T", "10":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > 9 {
		return 0, fmt.Errorf("invalid rank %q", s)
	}
	return Rank(n), nil
}

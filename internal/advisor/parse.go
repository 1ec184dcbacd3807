package advisor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/blackjackbot/blackjack"
)

// ParseHand reads a hand such as "10,6", "A,7", "[10, 6]" or "K Q". Aces may
// be written as A, 1 or 11. Suits are irrelevant to decisions and are
// assigned in rotation.
func ParseHand(s string) (blackjack.Hand, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) < 2 {
		return nil, errors.New("a hand needs at least two cards")
	}

	hand := make(blackjack.Hand, 0, len(fields))
	for i, f := range fields {
		rank, err := blackjack.ParseRank(f)
		if err != nil {
			return nil, err
		}
		hand = append(hand, blackjack.NewCard(rank, blackjack.Suit(i%4)))
	}
	return hand, nil
}

// ParseUpcard reads the dealer upcard, 2 to 11 with 11 or A for an ace.
func ParseUpcard(s string) (blackjack.Card, error) {
	rank, err := blackjack.ParseRank(s)
	if err != nil {
		return blackjack.Card{}, fmt.Errorf("dealer upcard must be 2-11 or A: %w", err)
	}
	return blackjack.NewCard(rank, blackjack.Spades), nil
}

// Result is the player's reported outcome of an advised hand.
type Result string

const (
	ResultNone Result = ""
	ResultWin  Result = "w"
	ResultLoss Result = "l"
	ResultPush Result = "p"
)

// ParseResult accepts w, l, p and their long forms.
func ParseResult(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ResultNone, nil
	case "w", "win", "won":
		return ResultWin, nil
	case "l", "loss", "lose", "lost":
		return ResultLoss, nil
	case "p", "push":
		return ResultPush, nil
	default:
		return ResultNone, fmt.Errorf("unknown result %q (use w, l or p)", s)
	}
}

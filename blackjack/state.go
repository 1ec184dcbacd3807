package blackjack

import (
	"fmt"
	"strconv"
	"strings"
)

// StateKey is the canonical encoding of a player decision. Two situations
// that differ only by suit or card order share a key. Keys are comparable and
// used directly as map keys.
type StateKey struct {
	// Total is the best player total (4..20).
	Total uint8
	// Soft is set when an ace is counted as 11.
	Soft bool
	// Pair is the card value of a splittable pair (1 for aces), zero otherwise.
	Pair uint8
	// Dealer is the dealer upcard value, 1 for an ace.
	Dealer uint8
	// Legal is the set of actions available at this decision.
	Legal ActionSet
	// Splits is the number of splits already made this round.
	Splits uint8
}

// Encode maps a live decision to its StateKey. Terminal or malformed inputs
// fail with ErrInvalidState.
func Encode(hand Hand, dealerUp Card, legal ActionSet, splits int) (StateKey, error) {
	invalid := func(reason string) (StateKey, error) {
		return StateKey{}, &StateError{Err: ErrInvalidState, Player: hand, Dealer: dealerUp, Legal: legal, Reason: reason}
	}
	if len(hand) < 2 {
		return invalid("hand needs at least two cards")
	}
	for _, c := range hand {
		if !c.Valid() {
			return invalid("hand holds an invalid card")
		}
	}
	if !dealerUp.Valid() {
		return invalid("invalid dealer upcard")
	}
	total := hand.Total()
	if total < 4 || total >= 21 {
		return invalid(fmt.Sprintf("total %d is not a decision point", total))
	}
	if legal == 0 || !legal.Has(Stand) {
		return invalid("legal set must include stand")
	}
	if splits < 0 || splits > 255 {
		return invalid("split count out of range")
	}

	key := StateKey{
		Total:  uint8(total),
		Soft:   hand.Soft(),
		Dealer: uint8(dealerUp.Value()),
		Legal:  legal,
		Splits: uint8(splits),
	}
	// A pair that cannot be split plays exactly like any other two card total.
	if legal.Has(Split) && hand.IsValuePair() {
		key.Pair = uint8(hand[0].Value())
	}
	return key, nil
}

// String renders keys as "H16/10/SHD/0", "S18/1/SH/0" or "P8/6/SHDP/0". The
// leading letter is H (hard), S (soft) or P (pair), followed by the total or
// the pair value, the dealer upcard, the legal actions and the split count.
func (k StateKey) String() string {
	var b strings.Builder
	switch {
	case k.Pair != 0:
		b.WriteByte('P')
		b.WriteString(strconv.Itoa(int(k.Pair)))
	case k.Soft:
		b.WriteByte('S')
		b.WriteString(strconv.Itoa(int(k.Total)))
	default:
		b.WriteByte('H')
		b.WriteString(strconv.Itoa(int(k.Total)))
	}
	fmt.Fprintf(&b, "/%d/%s/%d", k.Dealer, k.Legal, k.Splits)
	return b.String()
}

// MarshalText implements encoding.TextMarshaler so keys can index JSON maps.
func (k StateKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *StateKey) UnmarshalText(text []byte) error {
	parsed, err := ParseStateKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseStateKey parses the String form of a key.
func ParseStateKey(s string) (StateKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 || len(parts[0]) < 2 {
		return StateKey{}, fmt.Errorf("malformed state key %q", s)
	}
	n, err := strconv.Atoi(parts[0][1:])
	if err != nil {
		return StateKey{}, fmt.Errorf("state key %q: %w", s, err)
	}
	var k StateKey
	switch parts[0][0] {
	case 'H':
		k.Total = uint8(n)
	case 'S':
		k.Total = uint8(n)
		k.Soft = true
	case 'P':
		if n < 1 || n > 10 {
			return StateKey{}, fmt.Errorf("state key %q: pair value out of range", s)
		}
		k.Pair = uint8(n)
		k.Total, k.Soft = pairTotal(n)
	default:
		return StateKey{}, fmt.Errorf("state key %q: unknown prefix %q", s, parts[0][0])
	}
	if k.Total < 4 || k.Total > 20 {
		return StateKey{}, fmt.Errorf("state key %q: total out of range", s)
	}
	dealer, err := strconv.Atoi(parts[1])
	if err != nil || dealer < 1 || dealer > 10 {
		return StateKey{}, fmt.Errorf("state key %q: invalid dealer upcard", s)
	}
	k.Dealer = uint8(dealer)
	if k.Legal, err = ParseActionSet(parts[2]); err != nil {
		return StateKey{}, fmt.Errorf("state key %q: %w", s, err)
	}
	splits, err := strconv.Atoi(parts[3])
	if err != nil || splits < 0 || splits > 255 {
		return StateKey{}, fmt.Errorf("state key %q: invalid split count", s)
	}
	k.Splits = uint8(splits)
	return k, nil
}

func pairTotal(value int) (uint8, bool) {
	if value == 1 {
		return 12, true
	}
	return uint8(2 * value), false
}

// AllStateKeys enumerates the key space under the rules. It is a superset of
// the keys the simulator produces and is used for exhaustive table checks.
func AllStateKeys(rules Rules) []StateKey {
	var keys []StateKey
	seen := make(map[StateKey]struct{})
	add := func(k StateKey) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	maxSplits := 0
	if rules.AllowSplit {
		maxSplits = rules.MaxSplits
	}

	for dealer := Ace; dealer <= Ten; dealer++ {
		up := NewCard(dealer, Spades)
		for splits := 0; splits <= maxSplits; splits++ {
			for _, fromSplit := range []bool{false, true} {
				if fromSplit != (splits > 0) {
					continue
				}
				// Two card hands, including pairs.
				for a := Ace; a <= Ten; a++ {
					for b := a; b <= King; b++ {
						h := NewHand(NewCard(a, Spades), NewCard(b, Hearts))
						if h.Total() >= 21 {
							continue
						}
						legal := rules.LegalActions(h, splits, fromSplit)
						if k, err := Encode(h, up, legal, splits); err == nil {
							add(k)
						}
					}
				}
				// Three or more cards: only stand/hit remain legal.
				for total := 4; total <= 20; total++ {
					for _, soft := range []bool{false, true} {
						if soft && total < 13 {
							continue
						}
						add(StateKey{
							Total:  uint8(total),
							Soft:   soft,
							Dealer: uint8(dealer.Value()),
							Legal:  NewActionSet(Stand, Hit),
							Splits: uint8(splits),
						})
					}
				}
			}
		}
	}
	return keys
}

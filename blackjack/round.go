package blackjack

import (
	"errors"
	"fmt"
)

// Policy chooses an action for a decision. Implementations must return a
// member of legal; anything else fails the round with ErrIllegalAction.
type Policy interface {
	Decide(key StateKey, legal ActionSet) Action
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(key StateKey, legal ActionSet) Action

// Decide calls f.
func (f PolicyFunc) Decide(key StateKey, legal ActionSet) Action {
	return f(key, legal)
}

// FixedPolicy always plays the same action.
type FixedPolicy Action

// Decide returns the fixed action regardless of the state.
func (p FixedPolicy) Decide(StateKey, ActionSet) Action {
	return Action(p)
}

// Outcome classifies how a player hand was settled.
type Outcome uint8

const (
	Push Outcome = iota
	Win
	Loss
	Bust
	NaturalWin
	Surrendered
)

func (o Outcome) String() string {
	switch o {
	case Push:
		return "push"
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Bust:
		return "bust"
	case NaturalWin:
		return "blackjack"
	case Surrendered:
		return "surrender"
	default:
		return "unknown"
	}
}

// HandResult is the settled state of one player hand.
type HandResult struct {
	Cards     Hand
	Bet       float64
	Profit    float64
	Outcome   Outcome
	Doubled   bool
	FromSplit bool
}

// Step is one decision taken during a round.
type Step struct {
	Key    StateKey
	Action Action
	// Hand is the index of the hand the decision was made on.
	Hand int
	// Spawned is the index of the hand created by a split, or -1.
	Spawned int
}

// Trajectory is the ordered record of decisions in a round together with the
// realised profit of each hand in units of the base bet. Rewards are not
// attached to individual steps; credit assignment happens in the learner.
type Trajectory struct {
	Steps      []Step
	HandProfit []float64
}

// Len returns the number of decisions recorded.
func (t Trajectory) Len() int {
	return len(t.Steps)
}

// Round is the result of one simulated round.
type Round struct {
	Bet        float64
	Profit     float64
	Natural    bool
	Dealer     Hand
	Hands      []HandResult
	Trajectory Trajectory
}

// Simulator plays rounds of blackjack under a fixed set of rules. It holds no
// mutable state, so one simulator can serve many goroutines as long as each
// supplies its own card source.
type Simulator struct {
	rules Rules
}

// NewSimulator validates the rules and returns a simulator.
func NewSimulator(rules Rules) (*Simulator, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return &Simulator{rules: rules}, nil
}

// Rules returns the rules the simulator plays by.
func (s *Simulator) Rules() Rules {
	return s.rules
}

type seat struct {
	cards       Hand
	bet         float64
	fromSplit   bool
	splitAces   bool
	doubled     bool
	surrendered bool
	done        bool
}

type roundState struct {
	rules   Rules
	src     CardSource
	policy  Policy
	up      Card
	seats   []*seat
	pending []int
	splits  int
	steps   []Step
}

// Play deals and resolves one round, consulting policy at every decision.
// Cards are consumed from src; exhaustion surfaces as ErrEmptyShoe.
func (s *Simulator) Play(src CardSource, policy Policy, bet float64) (Round, error) {
	if bet <= 0 {
		return Round{}, errors.New("bet must be > 0")
	}
	if policy == nil {
		return Round{}, errors.New("policy is required")
	}

	var deal [4]Card
	for i := range deal {
		c, err := src.Draw()
		if err != nil {
			return Round{}, fmt.Errorf("initial deal: %w", err)
		}
		deal[i] = c
	}
	player := NewHand(deal[0], deal[2])
	dealer := NewHand(deal[1], deal[3])

	round := Round{Bet: bet, Dealer: dealer}

	playerBJ, dealerBJ := player.IsBlackjack(), dealer.IsBlackjack()
	if playerBJ || dealerBJ {
		res := HandResult{Cards: player, Bet: bet}
		switch {
		case playerBJ && dealerBJ:
			res.Outcome = Push
		case playerBJ:
			res.Outcome = NaturalWin
			res.Profit = bet * s.rules.BlackjackPayout
		default:
			res.Outcome = Loss
			res.Profit = -bet
		}
		round.Natural = true
		round.Hands = []HandResult{res}
		round.Profit = res.Profit
		round.Trajectory.HandProfit = []float64{res.Profit / bet}
		return round, nil
	}

	st := &roundState{
		rules:   s.rules,
		src:     src,
		policy:  policy,
		up:      deal[1],
		seats:   []*seat{{cards: player, bet: bet}},
		pending: []int{0},
	}
	for len(st.pending) > 0 {
		idx := st.pending[len(st.pending)-1]
		st.pending = st.pending[:len(st.pending)-1]
		if err := st.playHand(idx); err != nil {
			return Round{}, err
		}
	}

	live := false
	for _, h := range st.seats {
		if !h.surrendered && !h.cards.IsBust() {
			live = true
			break
		}
	}
	if live {
		for !s.rules.dealerStands(dealer) {
			c, err := src.Draw()
			if err != nil {
				return Round{}, fmt.Errorf("dealer draw: %w", err)
			}
			dealer = dealer.Add(c)
		}
	}
	round.Dealer = dealer

	round.Hands = make([]HandResult, len(st.seats))
	round.Trajectory.HandProfit = make([]float64, len(st.seats))
	for i, h := range st.seats {
		res := settle(h, dealer)
		round.Hands[i] = res
		round.Profit += res.Profit
		round.Trajectory.HandProfit[i] = res.Profit / bet
	}
	round.Trajectory.Steps = st.steps
	return round, nil
}

func (st *roundState) draw() (Card, error) {
	c, err := st.src.Draw()
	if err != nil {
		return Card{}, fmt.Errorf("player draw: %w", err)
	}
	return c, nil
}

// playHand runs decisions for one hand until it stands, busts, doubles,
// surrenders or reaches 21. Split hands are pushed onto the work list.
func (st *roundState) playHand(idx int) error {
	h := st.seats[idx]
	for !h.done {
		total := h.cards.Total()
		if total >= 21 {
			h.done = true
			break
		}

		legal := st.rules.LegalActions(h.cards, st.splits, h.fromSplit)
		if h.splitAces && !st.rules.HitSplitAces && !legal.Has(Split) {
			h.done = true
			break
		}
		key, err := Encode(h.cards, st.up, legal, st.splits)
		if err != nil {
			return err
		}
		action := st.policy.Decide(key, legal)
		if !legal.Has(action) {
			return &StateError{Err: ErrIllegalAction, Player: h.cards, Dealer: st.up, Action: action, Legal: legal}
		}
		step := Step{Key: key, Action: action, Hand: idx, Spawned: -1}

		switch action {
		case Stand:
			h.done = true
		case Hit:
			c, err := st.draw()
			if err != nil {
				return err
			}
			h.cards = h.cards.Add(c)
		case Double:
			c, err := st.draw()
			if err != nil {
				return err
			}
			h.cards = h.cards.Add(c)
			h.bet *= 2
			h.doubled = true
			h.done = true
		case Split:
			first, second := h.cards[0], h.cards[1]
			c1, err := st.draw()
			if err != nil {
				return err
			}
			c2, err := st.draw()
			if err != nil {
				return err
			}
			st.splits++
			h.cards = NewHand(first, c1)
			h.fromSplit = true
			child := &seat{cards: NewHand(second, c2), bet: h.bet, fromSplit: true}
			if first.IsAce() {
				h.splitAces = true
				child.splitAces = true
			}
			st.seats = append(st.seats, child)
			step.Spawned = len(st.seats) - 1
			st.pending = append(st.pending, step.Spawned)
		case Surrender:
			h.surrendered = true
			h.done = true
		}
		st.steps = append(st.steps, step)
	}
	return nil
}

func settle(h *seat, dealer Hand) HandResult {
	res := HandResult{Cards: h.cards, Bet: h.bet, Doubled: h.doubled, FromSplit: h.fromSplit}
	player := h.cards.Total()
	switch {
	case h.surrendered:
		res.Outcome = Surrendered
		res.Profit = -h.bet / 2
	case h.cards.IsBust():
		res.Outcome = Bust
		res.Profit = -h.bet
	case dealer.IsBust() || player > dealer.Total():
		res.Outcome = Win
		res.Profit = h.bet
	case player == dealer.Total():
		res.Outcome = Push
	default:
		res.Outcome = Loss
		res.Profit = -h.bet
	}
	return res
}

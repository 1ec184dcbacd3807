package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coder/quartz"

	"github.com/lox/blackjackbot/blackjack"
)

const helpText = `Enter a hand and the dealer upcard, e.g.
  A,7 6          soft 18 against a six
  8,8 vs 10      pair of eights against a ten
  10,6 9 split=1 a hand produced by one earlier split
Then report the outcome with w, l or p, or just enter the next hand.
Other commands: rules, help, quit`

// Session turns input lines into advice and logs every decision. It holds
// the most recent advice until a result arrives or the next hand is entered.
type Session struct {
	advisor *Advisor
	log     *SessionLog
	clock   quartz.Clock
	styles  Styles
	pending *Record
}

// NewSession creates a session. log may be nil to disable logging.
func NewSession(advisor *Advisor, log *SessionLog, clock quartz.Clock) *Session {
	return &Session{
		advisor: advisor,
		log:     log,
		clock:   clock,
		styles:  DefaultStyles(),
	}
}

// Handle processes one line. It reports quit when the user asked to leave.
func (s *Session) Handle(line string) (string, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false, nil
	}
	cmd := strings.ToLower(line)

	switch cmd {
	case "q", "quit", "exit":
		return "", true, s.Flush()
	case "help", "?":
		return helpText, false, nil
	case "rules":
		return describeRules(s.advisor.Rules()), false, nil
	}

	if result, err := ParseResult(strings.TrimPrefix(cmd, "result ")); err == nil && result != ResultNone {
		if s.pending == nil {
			return "", false, fmt.Errorf("no advice to attach a result to")
		}
		s.pending.Result = result
		if err := s.Flush(); err != nil {
			return "", false, err
		}
		return s.styles.Info.Render("result recorded"), false, nil
	}

	q, handIn, dealerIn, err := parseQuery(line)
	if err != nil {
		return "", false, err
	}
	adv, err := s.advisor.Advise(q)
	if err != nil {
		return "", false, err
	}
	if err := s.Flush(); err != nil {
		return "", false, err
	}
	s.pending = &Record{
		Time:        s.clock.Now(),
		HandInput:   handIn,
		DealerInput: dealerIn,
		Advice:      adv,
	}
	return s.render(adv), false, nil
}

// Flush logs the pending advice, with or without a result.
func (s *Session) Flush() error {
	if s.pending == nil {
		return nil
	}
	rec := *s.pending
	s.pending = nil
	if s.log == nil {
		return nil
	}
	return s.log.Append(rec)
}

func parseQuery(line string) (Query, string, string, error) {
	var q Query
	var rest []string
	for _, f := range strings.Fields(line) {
		lower := strings.ToLower(f)
		switch {
		case lower == "vs":
			continue
		case strings.HasPrefix(lower, "split="):
			n, err := strconv.Atoi(strings.TrimPrefix(lower, "split="))
			if err != nil || n < 0 {
				return Query{}, "", "", fmt.Errorf("invalid split count %q", f)
			}
			q.Splits = n
			q.FromSplit = n > 0
		default:
			rest = append(rest, f)
		}
	}
	if len(rest) < 2 {
		return Query{}, "", "", fmt.Errorf("expected a hand and a dealer upcard, try 'help'")
	}

	dealerIn := rest[len(rest)-1]
	handIn := strings.Join(rest[:len(rest)-1], " ")
	hand, err := ParseHand(handIn)
	if err != nil {
		return Query{}, "", "", err
	}
	dealer, err := ParseUpcard(dealerIn)
	if err != nil {
		return Query{}, "", "", err
	}
	q.Hand = hand
	q.Dealer = dealer
	return q, handIn, dealerIn, nil
}

func (s *Session) render(adv Advice) string {
	var b strings.Builder
	kind := "hard"
	if adv.Key.Soft {
		kind = "soft"
	}
	state := fmt.Sprintf("%s %d", kind, adv.Key.Total)
	if adv.Key.Pair != 0 {
		state += fmt.Sprintf(" (pair of %s)", cardValueLabel(adv.Key.Pair))
	}
	fmt.Fprintf(&b, "%s vs %s %s\n", state, cardValueLabel(adv.Key.Dealer), s.styles.Info.Render("["+adv.Key.String()+"]"))
	fmt.Fprintf(&b, "-> %s %s\n",
		s.styles.Action.Render(strings.ToUpper(adv.Action.String())),
		s.styles.Value.Render(fmt.Sprintf("(EV %+.4f, %s)", adv.Value, adv.Source)))
	if adv.Source == "fallback" {
		b.WriteString(s.styles.Warning.Render(fmt.Sprintf("state not trained; borrowed from %s", adv.Borrowed)))
		b.WriteByte('\n')
	}
	for _, opt := range adv.Options {
		visits := "untrained"
		if opt.Trained {
			visits = fmt.Sprintf("%d visits", opt.Visits)
		}
		fmt.Fprintf(&b, "   %-9s %+.4f  %s\n", opt.Action, opt.Value, s.styles.Info.Render(visits))
	}
	return strings.TrimRight(b.String(), "\n")
}

func cardValueLabel(v uint8) string {
	if v == 1 {
		return "A"
	}
	return strconv.Itoa(int(v))
}

func describeRules(r blackjack.Rules) string {
	dealer := "S17"
	if r.DealerHitsSoft17 {
		dealer = "H17"
	}
	return fmt.Sprintf("%d decks, blackjack pays %.2g:1, dealer %s, double %t, DAS %t, split %t (max %d), surrender %t",
		r.Decks, r.BlackjackPayout, dealer, r.AllowDouble, r.DoubleAfterSplit, r.AllowSplit, r.MaxSplits, r.AllowSurrender)
}

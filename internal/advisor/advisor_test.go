package advisor

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/blackjack"
	"github.com/lox/blackjackbot/solver"
	"github.com/lox/blackjackbot/solver/runtime"
)

func testPolicy(t *testing.T) *runtime.Policy {
	t.Helper()
	table := solver.NewTable(-1, nil)
	update := func(s string, a blackjack.Action, v float64) {
		key, err := blackjack.ParseStateKey(s)
		require.NoError(t, err)
		require.NoError(t, table.Update(key, a, v, 0))
	}
	update("S18/6/SHD/0", blackjack.Stand, 0.28)
	update("S18/6/SHD/0", blackjack.Hit, 0.1)
	update("S18/6/SHD/0", blackjack.Double, 0.38)
	update("P8/10/SHDP/0", blackjack.Split, -0.48)
	update("P8/10/SHDP/0", blackjack.Stand, -0.54)
	update("H16/9/SHD/0", blackjack.Hit, -0.45)
	return runtime.New(table, blackjack.DefaultRules(), "test")
}

func TestParseHand(t *testing.T) {
	cases := map[string][]int{
		"10,6":    {10, 6},
		"A,7":     {11, 7},
		"[10, 6]": {10, 6},
		"K Q":     {10, 10},
		"11,2,3":  {11, 2, 3},
		" t , 9 ": {10, 9},
		"a,a":     {11, 11},
	}
	for in, want := range cases {
		hand, err := ParseHand(in)
		require.NoError(t, err, in)
		require.Len(t, hand, len(want), in)
		for i, c := range hand {
			v := c.Value()
			if c.IsAce() {
				v = 11
			}
			assert.Equal(t, want[i], v, "%s card %d", in, i)
		}
	}

	for _, bad := range []string{"", "10", "10,x", "0,5", "12,3"} {
		_, err := ParseHand(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseUpcardAndResult(t *testing.T) {
	c, err := ParseUpcard("11")
	require.NoError(t, err)
	assert.True(t, c.IsAce())

	c, err = ParseUpcard("10")
	require.NoError(t, err)
	assert.Equal(t, 10, c.Value())

	_, err = ParseUpcard("1x")
	assert.Error(t, err)

	r, err := ParseResult("Win")
	require.NoError(t, err)
	assert.Equal(t, ResultWin, r)
	_, err = ParseResult("maybe")
	assert.Error(t, err)
}

func TestAdvise(t *testing.T) {
	adv := New(testPolicy(t))

	hand, err := ParseHand("A,7")
	require.NoError(t, err)
	dealer, err := ParseUpcard("6")
	require.NoError(t, err)

	advice, err := adv.Advise(Query{Hand: hand, Dealer: dealer})
	require.NoError(t, err)
	assert.Equal(t, "S18/6/SHD/0", advice.Key.String())
	assert.Equal(t, blackjack.Double, advice.Action)
	assert.Equal(t, "table", advice.Source)
	require.Len(t, advice.Options, 3)
	assert.Equal(t, blackjack.Double, advice.Options[0].Action)
	assert.Equal(t, blackjack.Stand, advice.Options[1].Action)
	assert.Equal(t, blackjack.Hit, advice.Options[2].Action)

	// A third card removes double; the two card soft 18 lends its best legal action.
	hand, err = ParseHand("A,4,3")
	require.NoError(t, err)
	advice, err = adv.Advise(Query{Hand: hand, Dealer: blackjack.NewCard(blackjack.Seven, blackjack.Clubs)})
	require.NoError(t, err)
	assert.Equal(t, "fallback", advice.Source)
	assert.Equal(t, blackjack.Stand, advice.Action)
	assert.Equal(t, "S18/6/SHD/0", advice.Borrowed.String())

	hand, err = ParseHand("8,8")
	require.NoError(t, err)
	advice, err = adv.Advise(Query{Hand: hand, Dealer: blackjack.NewCard(blackjack.King, blackjack.Clubs)})
	require.NoError(t, err)
	assert.Equal(t, blackjack.Split, advice.Action)

	hand, err = ParseHand("K,A")
	require.NoError(t, err)
	_, err = adv.Advise(Query{Hand: hand, Dealer: dealer})
	assert.ErrorIs(t, err, ErrTerminalHand)
}

func TestSessionLogsDecisions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.csv")
	log, err := OpenSessionLog(path)
	require.NoError(t, err)

	session := NewSession(New(testPolicy(t)), log, quartz.NewMock(t))

	out, quit, err := session.Handle("A,7 vs 6")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out, "DOUBLE")
	assert.Contains(t, out, "soft 18")

	out, _, err = session.Handle("w")
	require.NoError(t, err)
	assert.Contains(t, out, "result recorded")

	_, _, err = session.Handle("l")
	assert.Error(t, err, "result without pending advice")

	_, _, err = session.Handle("10,6 9")
	require.NoError(t, err)
	_, _, err = session.Handle("bogus")
	assert.Error(t, err)

	_, quit, err = session.Handle("quit")
	require.NoError(t, err)
	assert.True(t, quit)
	require.NoError(t, log.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, logHeader, rows[0])
	assert.Equal(t, "A,7", rows[1][1])
	assert.Equal(t, "D", rows[1][8])
	assert.Equal(t, "w", rows[1][11])
	assert.Equal(t, "H16/9/SHD/0", rows[2][3])
	assert.Equal(t, "", rows[2][11])

	// Reopening appends without a second header.
	log, err = OpenSessionLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "hand_input"))
}

func TestSessionSplitOption(t *testing.T) {
	session := NewSession(New(testPolicy(t)), nil, quartz.NewMock(t))

	out, _, err := session.Handle("8,8 10 split=3")
	require.NoError(t, err)
	assert.Contains(t, out, "H16/10/SHD/3", "split limit reached, so the pair is played as 16")

	_, _, err = session.Handle("8,8 10 split=x")
	assert.Error(t, err)

	out, _, err = session.Handle("help")
	require.NoError(t, err)
	assert.Contains(t, out, "dealer upcard")
}

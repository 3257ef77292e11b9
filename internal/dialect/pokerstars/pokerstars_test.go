package pokerstars_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handreplay/internal/dialect/pokerstars"
	"github.com/lox/handreplay/internal/fixtures"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/poker"
)

func TestParseCashHand(t *testing.T) {
	t.Parallel()

	hand, err := pokerstars.Parser{}.Parse(fixtures.Hand("pokerstars_cash"))
	require.NoError(t, err)

	assert.Equal(t, "245781234567", hand.HandID)
	assert.Equal(t, "Alcyone IV", hand.TableName)
	assert.Equal(t, 6, hand.MaxPlayers)
	assert.Equal(t, 3, hand.ButtonSeat)
	assert.Equal(t, hh.NoLimit, hand.BettingLimit)
	assert.Equal(t, int64(25), hand.SmallBlind)
	assert.Equal(t, int64(50), hand.BigBlind)
	assert.Equal(t, "USD", hand.Currency)
	assert.True(t, hand.Context.NeedsCentsConversion)
	assert.Equal(t, 2023, hand.Timestamp.Year())

	require.Len(t, hand.Players, 4)
	hero, ok := hand.Player(hh.NewPlayerID("Hero"))
	require.True(t, ok)
	assert.Equal(t, int64(12000), hero.StartingStack)
	assert.Equal(t, hh.Button, hero.Position)
	assert.Equal(t, poker.MustParseCards("Ah Ad"), hero.HoleCards)
	assert.Equal(t, hero.ID, hand.Hero)

	v1, _ := hand.Player(hh.NewPlayerID("Villain1"))
	v2, _ := hand.Player(hh.NewPlayerID("Villain2"))
	v3, _ := hand.Player(hh.NewPlayerID("Villain3"))
	assert.Equal(t, hh.SmallBlind, v1.Position)
	assert.Equal(t, hh.BigBlind, v2.Position)
	assert.Equal(t, hh.StatusSittingOut, v3.Status)
	assert.Equal(t, poker.MustParseCards("Kc Kd"), v2.HoleCards)

	require.Len(t, hand.Streets, 5)
	assert.Equal(t, hh.Showdown, hand.Streets[4].Street)
	assert.Equal(t, poker.MustParseCards("Ac 7d 2s Kh 9c"), hand.Board())

	raise := hand.Streets[0].Actions[2]
	assert.Equal(t, hh.Raise, raise.Kind)
	assert.Equal(t, int64(100), raise.Amount)
	assert.Equal(t, int64(150), raise.RaiseTo)

	assert.Equal(t, int64(10075), hand.TotalPot)
	assert.Equal(t, int64(250), hand.Rake)
	assert.Equal(t, map[hh.PlayerID]int64{hero.ID: 9825}, hand.Showdown.Winnings)
	assert.Equal(t, []hh.PlayerID{hero.ID}, hand.Showdown.Winners)
	assert.Len(t, hand.Showdown.Revealed, 2)
}

func TestSummaryEndsAtBlankLine(t *testing.T) {
	t.Parallel()

	// A foreign export glued on after a blank line must not be read as summary.
	text := strings.TrimSpace(fixtures.Hand("pokerstars_cash")) +
		"\n\nTotal pot $5 | Rake $1\nSeat 1: Alpha ( $2 )\n"
	hand, err := pokerstars.Parser{}.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, int64(10075), hand.TotalPot)
	assert.Equal(t, int64(250), hand.Rake)
	assert.Len(t, hand.Players, 4)
}

func TestParseTournamentHand(t *testing.T) {
	t.Parallel()

	hand, err := pokerstars.Parser{}.Parse(fixtures.Hand("pokerstars_tournament"))
	require.NoError(t, err)

	assert.True(t, hand.Context.Tournament)
	assert.False(t, hand.Context.NeedsCentsConversion)
	assert.Equal(t, "3456789012", hand.Context.TournamentID)
	assert.Equal(t, int64(50), hand.SmallBlind)
	assert.Equal(t, int64(100), hand.BigBlind)
	assert.Equal(t, int64(10), hand.Ante)

	carol, _ := hand.Player(hh.NewPlayerID("Carol"))
	assert.Equal(t, int64(200), carol.Bounty)
	assert.Equal(t, carol.ID, hand.Hero)

	pre := hand.Streets[0].Actions
	last := pre[len(pre)-1]
	assert.Equal(t, hh.UncalledReturn, last.Kind)
	assert.Equal(t, hh.NewPlayerID("Bob"), last.Player)
	assert.Equal(t, int64(1000), last.Amount)

	ante := pre[0]
	assert.Equal(t, hh.PostAnte, ante.Kind)
	assert.True(t, ante.Dead)

	shove := pre[5]
	assert.Equal(t, hh.Raise, shove.Kind)
	assert.True(t, shove.AllIn)
	assert.Equal(t, int64(1490), shove.RaiseTo)

	assert.Equal(t, int64(5500), hand.TotalPot)
	assert.Equal(t, int64(0), hand.Rake)
	assert.Equal(t, int64(5500), hand.Showdown.Winnings[carol.ID])
}

func TestDeadBlinds(t *testing.T) {
	t.Parallel()

	text := strings.Replace(fixtures.Hand("pokerstars_cash"),
		"Villain2: posts big blind $0.50",
		"Villain2: posts big blind $0.50\nVillain3: posts small & big blinds $0.75", 1)
	text = strings.Replace(text, "Seat 4: Villain3 ($25 in chips) is sitting out", "Seat 4: Villain3 ($25 in chips)", 1)
	text = strings.Replace(text, "Villain1: folds", "Villain1: folds\nVillain3: folds", 1)
	text = strings.Replace(text, "Total pot $100.75", "Total pot $101.50", 1)
	text = strings.Replace(text, "$98.25", "$99", -1)

	hand, err := pokerstars.Parser{}.Parse(text)
	require.NoError(t, err)

	var posts []hh.Action
	for _, a := range hand.Streets[0].Actions {
		if a.Player == hh.NewPlayerID("Villain3") && a.Kind == hh.PostBlind {
			posts = append(posts, a)
		}
	}
	require.Len(t, posts, 2)
	assert.True(t, posts[0].Dead)
	assert.Equal(t, int64(25), posts[0].Amount)
	assert.False(t, posts[1].Dead)
	assert.Equal(t, int64(50), posts[1].Amount)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cash := fixtures.Hand("pokerstars_cash")
	tests := []struct {
		name   string
		text   string
		line   int
		reason string
	}{
		{
			name:   "unrecognized action",
			text:   strings.Replace(cash, "Villain1: folds", "Villain1: dances", 1),
			line:   12,
			reason: "unrecognized line",
		},
		{
			name:   "unknown player",
			text:   strings.Replace(cash, "Villain1: folds", "Stranger: folds", 1),
			line:   12,
			reason: "unknown player",
		},
		{
			name:   "bad amount",
			text:   strings.Replace(cash, "Hero: bets $2", "Hero: bets $2.001", 1),
			line:   16,
			reason: "sub-cent",
		},
		{
			name:   "run twice",
			text:   strings.Replace(cash, "*** RIVER *** [Ac 7d 2s Kh] [9c]", "*** FIRST RIVER *** [Ac 7d 2s Kh] [9c]", 1),
			line:   23,
			reason: "more than once",
		},
		{
			name:   "board mismatch",
			text:   strings.Replace(cash, "Board [Ac 7d 2s Kh 9c]", "Board [Ac 7d 2s Kh 9d]", 1),
			line:   32,
			reason: "does not match",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand, err := pokerstars.Parser{}.Parse(tt.text)
			assert.Nil(t, hand)

			var pe *hh.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, hh.SitePokerStars, pe.Site)
			assert.Equal(t, "245781234567", pe.HandID)
			assert.Equal(t, tt.line, pe.Line)
			assert.Contains(t, pe.Error(), tt.reason)
		})
	}
}

func TestDuplicateCardsRejected(t *testing.T) {
	t.Parallel()

	text := strings.Replace(fixtures.Hand("pokerstars_cash"), "[Kc Kd]", "[Kc Ad]", -1)
	_, err := pokerstars.Parser{}.Parse(text)

	var pe *hh.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "appears twice")
}

func TestUnsupportedGame(t *testing.T) {
	t.Parallel()

	text := strings.Replace(fixtures.Hand("pokerstars_cash"), "Hold'em No Limit", "Omaha Pot Limit", 1)
	_, err := pokerstars.Parser{}.Parse(text)

	var pe *hh.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
	assert.Contains(t, pe.Reason, "unsupported game")
}

package winamax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handreplay/internal/dialect/winamax"
	"github.com/lox/handreplay/internal/fixtures"
	hh "github.com/lox/handreplay/internal/handhistory"
)

func TestParseCashHand(t *testing.T) {
	t.Parallel()

	hand, err := winamax.Parser{}.Parse(fixtures.Hand("winamax_cash"))
	require.NoError(t, err)

	assert.Equal(t, "18567765-354-1586863787", hand.HandID)
	assert.Equal(t, "Nice 08", hand.TableName)
	assert.Equal(t, 5, hand.MaxPlayers)
	assert.Equal(t, "EUR", hand.Currency)
	assert.Equal(t, int64(1), hand.SmallBlind)
	assert.Equal(t, int64(2), hand.BigBlind)

	hero, _ := hand.Player(hh.NewPlayerID("Hero"))
	assert.Equal(t, int64(214), hero.StartingStack)
	assert.Equal(t, hh.Button, hero.Position)

	raise := hand.Streets[0].Actions[2]
	assert.Equal(t, hh.Raise, raise.Kind)
	assert.Equal(t, int64(6), raise.RaiseTo)
	assert.Equal(t, int64(4), raise.Amount)

	flop := hand.Streets[1].Actions
	ret := flop[len(flop)-1]
	assert.Equal(t, hh.UncalledReturn, ret.Kind)
	assert.Equal(t, int64(10), ret.Amount)

	assert.Equal(t, int64(14), hand.TotalPot)
	assert.Equal(t, int64(0), hand.Rake)
	assert.Equal(t, int64(14), hand.Showdown.Winnings[hero.ID])
}

func TestTournamentStakes(t *testing.T) {
	t.Parallel()

	ctx, err := winamax.Parser{}.DetectGameContext(
		`Winamax Poker - Tournament "Freeroll" buyIn: 0€ + 0€ level: 3 - HandId: #1234-5-6 - Holdem no limit (10/40/80) - 2020/04/14 11:29:47 UTC`)
	require.NoError(t, err)
	assert.True(t, ctx.Tournament)
	assert.False(t, ctx.NeedsCentsConversion)
	assert.Equal(t, "Freeroll", ctx.TournamentID)
}

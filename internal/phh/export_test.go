package phh_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handreplay/internal/dialect"
	"github.com/lox/handreplay/internal/fixtures"
	"github.com/lox/handreplay/internal/phh"
	"github.com/lox/handreplay/internal/replay"
	"github.com/lox/handreplay/poker"
)

func export(t *testing.T, name string) *phh.HandHistory {
	t.Helper()
	_, hand, err := dialect.Parse(fixtures.Hand(name))
	require.NoError(t, err)
	snaps, err := replay.Build(hand)
	require.NoError(t, err)
	out, err := phh.FromHand(hand, snaps)
	require.NoError(t, err)
	return out
}

func TestFromHandCash(t *testing.T) {
	t.Parallel()

	out := export(t, "pokerstars_cash")

	assert.Equal(t, "NT", out.Variant)
	assert.Equal(t, "245781234567", out.HandID)
	assert.Equal(t, []string{"Villain1", "Villain2", "Hero"}, out.Players)
	assert.Equal(t, []int{1, 2, 3}, out.Seats)
	assert.Equal(t, []int64{0, 0, 0}, out.Antes)
	assert.Equal(t, []int64{25, 50, 0}, out.BlindsOrStraddles)
	assert.Equal(t, int64(50), out.MinBet)
	assert.Equal(t, []int64{10000, 7550, 12000}, out.StartingStacks)
	assert.Equal(t, []int64{9975, 2525, 16800}, out.FinishingStacks)
	assert.Equal(t, []int64{0, 0, 9825}, out.Winnings)
	assert.Equal(t, int64(250), out.Rake)
	assert.Equal(t, "USD", out.Currency)

	assert.Equal(t, []string{
		"d dh p1 ????",
		"d dh p2 KcKd",
		"d dh p3 AhAd",
		"p3 cbr 150",
		"p1 f",
		"p2 cc",
		"d db Ac7d2s",
		"p2 cc",
		"p3 cbr 200",
		"p2 cc",
		"d db Kh",
		"p2 cc",
		"p3 cbr 500",
		"p2 cbr 1500",
		"p3 cc",
		"d db 9c",
		"p2 cbr 3175",
		"p3 cc",
		"p2 sm KcKd",
		"p3 sm AhAd",
	}, out.Actions)
}

func TestFromHandTournamentAntes(t *testing.T) {
	t.Parallel()

	out := export(t, "ggpoker_sidepots")

	assert.Equal(t, []string{"Ann", "Ben", "Cid", "Hero"}, out.Players)
	assert.Equal(t, []int64{20, 20, 20, 20}, out.Antes)
	assert.Equal(t, []int64{100, 200, 0, 0}, out.BlindsOrStraddles)
	assert.Equal(t, []int64{0, 0, 0, 7580}, out.Winnings)
	assert.Equal(t, "98765432", out.Event)
	assert.Equal(t, "d dh p4 AsAh", out.Actions[3])
}

func TestFormatCards(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AhKh", phh.FormatCards(poker.MustParseCards("Ah Kh"), 2))
	assert.Equal(t, "????", phh.FormatCards(nil, 2))
	assert.Equal(t, "2c3d4h", phh.FormatCards(poker.MustParseCards("2c 3d 4h"), 0))
}

func TestEncodeHandHistory(t *testing.T) {
	t.Parallel()

	hand := &phh.HandHistory{
		Variant:           "NT",
		Table:             "default",
		SeatCount:         3,
		Seats:             []int{1, 2, 3},
		Antes:             []int64{0, 0, 0},
		BlindsOrStraddles: []int64{1, 2, 0},
		MinBet:            2,
		StartingStacks:    []int64{200, 200, 200},
		FinishingStacks:   []int64{200, 200, 200},
		Winnings:          []int64{0, 0, 0},
		Actions: []string{
			"d dh p1 AhKh",
			"d dh p2 7c2d",
			"d dh p3 QsJs",
			"p1 cbr 6",
			"p2 f",
			"p3 cc",
		},
		Players: []string{"alice", "bob", "charlie"},
		HandID:  "hand-00042",
		Time:    "15:22:00",
		Day:     14,
		Month:   11,
		Year:    2025,
	}

	var buf bytes.Buffer
	require.NoError(t, phh.Encode(&buf, hand))

	want := "" +
		"variant = \"NT\"\n" +
		"table = \"default\"\n" +
		"seat_count = 3\n" +
		"seats = [1, 2, 3]\n" +
		"antes = [0, 0, 0]\n" +
		"blinds_or_straddles = [1, 2, 0]\n" +
		"min_bet = 2\n" +
		"starting_stacks = [200, 200, 200]\n" +
		"finishing_stacks = [200, 200, 200]\n" +
		"winnings = [0, 0, 0]\n" +
		"actions = [\"d dh p1 AhKh\", \"d dh p2 7c2d\", \"d dh p3 QsJs\", \"p1 cbr 6\", \"p2 f\", \"p3 cc\"]\n" +
		"players = [\"alice\", \"bob\", \"charlie\"]\n" +
		"hand = \"hand-00042\"\n" +
		"time = \"15:22:00\"\n" +
		"day = 14\n" +
		"month = 11\n" +
		"year = 2025\n"
	assert.Equal(t, want, buf.String())

	assert.Error(t, phh.Encode(&buf, nil))
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	hands := []*phh.HandHistory{export(t, "pokerstars_cash"), export(t, "winamax_cash")}

	var buf bytes.Buffer
	require.NoError(t, phh.EncodeSession(&buf, hands))
	assert.True(t, strings.HasPrefix(buf.String(), "[1]\n"))
	assert.Contains(t, buf.String(), "\n[2]\n")

	decoded, err := phh.DecodeSession(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, hands[0].Actions, decoded[0].Actions)
	assert.Equal(t, hands[1].HandID, decoded[1].HandID)

	single, err := phh.EncodeToBytes(hands[1])
	require.NoError(t, err)
	decoded, err = phh.DecodeSession(bytes.NewReader(single))
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, hands[1].Winnings, decoded[0].Winnings)
}

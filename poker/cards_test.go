package poker

import (
	rand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardCreation(t *testing.T) {
	t.Parallel()

	aceSpades := NewCard(Ace, Spades)
	assert.Equal(t, Ace, aceSpades.Rank())
	assert.Equal(t, Spades, aceSpades.Suit())
	assert.Equal(t, "As", aceSpades.String())
	assert.Equal(t, "2c", NewCard(Two, Clubs).String())
}

func TestParseCard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Card
		wantErr bool
	}{
		{input: "As", want: NewCard(Ace, Spades)},
		{input: "2h", want: NewCard(Two, Hearts)},
		{input: "kd", want: NewCard(King, Diamonds)},
		{input: "Tc", want: NewCard(Ten, Clubs)},
		{input: "10c", want: NewCard(Ten, Clubs)},
		{input: "9S", want: NewCard(Nine, Spades)},
		{input: "Xs", wantErr: true},
		{input: "Ax", wantErr: true},
		{input: "A", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			card, err := ParseCard(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, card)
		})
	}
}

func TestParseCardsNotations(t *testing.T) {
	t.Parallel()

	want := []Card{NewCard(Ace, Spades), NewCard(King, Diamonds)}
	for _, input := range []string{"AsKd", "As Kd", "[As Kd]", "[ As, Kd ]", "As,Kd"} {
		got, err := ParseCards(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	got, err := ParseCards("[10h 9h]")
	require.NoError(t, err)
	assert.Equal(t, "Th 9h", FormatCards(got))

	_, err = ParseCards("AsK")
	require.Error(t, err)
}

func TestAll52CardsRoundTrip(t *testing.T) {
	t.Parallel()

	seen := make(map[Card]bool)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			c := NewCard(rank, suit)
			parsed, err := ParseCard(c.String())
			require.NoError(t, err)
			require.Equal(t, c, parsed)
			seen[c] = true
		}
	}
	assert.Len(t, seen, 52)
}

func TestHandOperations(t *testing.T) {
	t.Parallel()

	as := NewCard(Ace, Spades)
	kh := NewCard(King, Hearts)
	qd := NewCard(Queen, Diamonds)

	hand := NewHand(as, kh)
	assert.True(t, hand.HasCard(as))
	assert.True(t, hand.HasCard(kh))
	assert.False(t, hand.HasCard(qd))
	assert.Equal(t, 2, hand.CountCards())

	hand.AddCard(qd)
	assert.True(t, hand.HasCard(qd))
	assert.Equal(t, 3, hand.CountCards())
	assert.Len(t, hand.Cards(), 3)

	assert.Equal(t, uint16(1<<Ace), hand.GetSuitMask(Spades))
	assert.Equal(t, uint16(1<<King), hand.GetSuitMask(Hearts))
	assert.Equal(t, uint16(0), hand.GetSuitMask(Clubs))
}

func TestDeckWithoutDeadCards(t *testing.T) {
	t.Parallel()

	dead := NewHand(MustParseCards("AsKs2c")...)
	d := NewDeckWithout(dead, rand.New(rand.NewPCG(7, 7)))
	require.Equal(t, 49, d.CardsRemaining())

	dealt := d.DealRandom(49)
	require.Len(t, dealt, 49)
	var all Hand
	for _, c := range dealt {
		require.False(t, dead.HasCard(c), "dealt dead card %s", c)
		all.AddCard(c)
	}
	assert.Equal(t, 49, all.CountCards())
	assert.Nil(t, d.DealRandom(1))

	d.Reset()
	assert.Equal(t, 49, d.CardsRemaining())

	d.Exclude(NewHand(MustParseCards("Ah Ad")...))
	assert.Equal(t, 50, d.CardsRemaining())
	for _, c := range d.DealRandom(50) {
		assert.NotEqual(t, "Ah", c.String())
		assert.NotEqual(t, "Ad", c.String())
	}
}

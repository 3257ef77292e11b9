package poker

import (
	rand "math/rand/v2"
)

// Deck is a standard 52-card deck minus any dead cards.
type Deck struct {
	cards []Card
	next  int
	rng   *rand.Rand
}

// NewDeck creates a full deck using rng for shuffling.
func NewDeck(rng *rand.Rand) *Deck {
	return NewDeckWithout(0, rng)
}

// NewDeckWithout creates a deck that excludes every card in dead.
// The deck is not shuffled; call Shuffle or use DealRandom.
func NewDeckWithout(dead Hand, rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, 52), rng: rng}
	d.Exclude(dead)
	return d
}

// Exclude refills the deck in place with every card not in dead.
func (d *Deck) Exclude(dead Hand) {
	d.cards = d.cards[:0]
	d.next = 0
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			if c := NewCard(rank, suit); !dead.HasCard(c) {
				d.cards = append(d.cards, c)
			}
		}
	}
}

// Shuffle shuffles the deck using Fisher-Yates and resets dealing.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// DealRandom deals n cards by partial shuffle, without reshuffling the
// whole deck. It returns nil when fewer than n cards remain.
func (d *Deck) DealRandom(n int) []Card {
	if d.next+n > len(d.cards) {
		return nil
	}
	for i := 0; i < n; i++ {
		j := d.next + d.rng.IntN(len(d.cards)-d.next)
		d.cards[d.next], d.cards[j] = d.cards[j], d.cards[d.next]
		d.next++
	}
	return d.cards[d.next-n : d.next]
}

// Reset makes every card available again without reordering.
func (d *Deck) Reset() {
	d.next = 0
}

// CardsRemaining returns the number of cards left in the deck.
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}

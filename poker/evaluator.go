package poker

import (
	"errors"
	"fmt"
	"math/bits"
)

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the category name.
func (t HandType) String() string {
	switch t {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandValue is a totally ordered hand strength. Higher values are stronger.
//
// Layout: category in bits 20-23, then up to five significant ranks in
// descending importance, four bits each. Straights store only their top
// card, so the wheel (top card Five) sorts below every other straight.
type HandValue uint32

// Type returns the hand category.
func (v HandValue) Type() HandType {
	return HandType(v >> 20)
}

// Ranks returns the significant ranks in order of importance.
func (v HandValue) Ranks() []uint8 {
	n := significantRanks(v.Type())
	ranks := make([]uint8, n)
	for i := 0; i < n; i++ {
		ranks[i] = uint8(v>>(16-4*i)) & 0xF
	}
	return ranks
}

// Compare returns 1 if v beats other, -1 if other beats v and 0 for a tie.
func (v HandValue) Compare(other HandValue) int {
	switch {
	case v > other:
		return 1
	case v < other:
		return -1
	default:
		return 0
	}
}

// String returns a human-readable description such as "a pair of Aces".
func (v HandValue) String() string {
	r := v.Ranks()
	switch v.Type() {
	case HighCard:
		return "high card " + RankName(r[0])
	case Pair:
		return "a pair of " + RankPlural(r[0])
	case TwoPair:
		return fmt.Sprintf("two pair, %s and %s", RankPlural(r[0]), RankPlural(r[1]))
	case ThreeOfAKind:
		return "three of a kind, " + RankPlural(r[0])
	case Straight:
		return fmt.Sprintf("a straight, %s to %s", RankName(straightLow(r[0])), RankName(r[0]))
	case Flush:
		return fmt.Sprintf("a flush, %s high", RankName(r[0]))
	case FullHouse:
		return fmt.Sprintf("a full house, %s full of %s", RankPlural(r[0]), RankPlural(r[1]))
	case FourOfAKind:
		return "four of a kind, " + RankPlural(r[0])
	case StraightFlush:
		if r[0] == Ace {
			return "a Royal Flush"
		}
		return fmt.Sprintf("a straight flush, %s to %s", RankName(straightLow(r[0])), RankName(r[0]))
	default:
		return "unknown hand"
	}
}

var (
	// ErrCardCount is returned when fewer than five or more than seven cards are evaluated.
	ErrCardCount = errors.New("poker: evaluation needs 5 to 7 cards")
	// ErrDuplicateCard is returned when the same card appears twice.
	ErrDuplicateCard = errors.New("poker: duplicate card")
)

// Evaluate ranks the best five-card hand that can be made from 5-7 cards.
func Evaluate(cards []Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("%w: got %d", ErrCardCount, len(cards))
	}
	hand := NewHand(cards...)
	if hand.CountCards() != len(cards) {
		return 0, ErrDuplicateCard
	}
	return EvaluateHand(hand), nil
}

// EvaluateHand ranks a hand bitset. The caller guarantees 5-7 cards.
func EvaluateHand(hand Hand) HandValue {
	var suitMasks [4]uint16
	var rankMask uint16
	for suit := uint8(0); suit < 4; suit++ {
		mask := hand.GetSuitMask(suit)
		suitMasks[suit] = mask
		rankMask |= mask
	}
	return rankFromMasks(suitMasks, rankMask)
}

func rankFromMasks(suitMasks [4]uint16, rankMask uint16) HandValue {
	var best HandValue
	flushFound := false
	for _, suitMask := range suitMasks {
		if bits.OnesCount16(suitMask) < 5 {
			continue
		}
		var v HandValue
		if high, ok := straightHigh(suitMask); ok {
			v = makeValue(StraightFlush, high)
		} else {
			v = makeValue(Flush, findOrderedKickers(suitMask, nil, 5)...)
		}
		if v > best {
			best = v
			flushFound = true
		}
	}
	if best.Type() == StraightFlush {
		return best
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]
	quadsMask := s0 & s1 & s2 & s3
	tripCandidates := (s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)
	tripsMask := tripCandidates &^ quadsMask
	pairsMask := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ tripCandidates

	if quad := highestRank(quadsMask); quad >= 0 {
		q := uint8(quad)
		return makeValue(FourOfAKind, q, findKicker(rankMask, []uint8{q}))
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		t := uint8(trip)
		if pair := highestRank(pairsMask | (tripsMask &^ (1 << t))); pair >= 0 {
			return makeValue(FullHouse, t, uint8(pair))
		}
	}

	if flushFound {
		return best
	}

	if high, ok := straightHigh(rankMask); ok {
		return makeValue(Straight, high)
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		t := uint8(trip)
		return makeValue(ThreeOfAKind, append([]uint8{t}, findOrderedKickers(rankMask, []uint8{t}, 2)...)...)
	}

	if pair1 := highestRank(pairsMask); pair1 >= 0 {
		high := uint8(pair1)
		if pair2 := highestRank(pairsMask &^ (1 << high)); pair2 >= 0 {
			low := uint8(pair2)
			return makeValue(TwoPair, high, low, findKicker(rankMask, []uint8{high, low}))
		}
		return makeValue(Pair, append([]uint8{high}, findOrderedKickers(rankMask, []uint8{high}, 3)...)...)
	}

	return makeValue(HighCard, findOrderedKickers(rankMask, nil, 5)...)
}

func makeValue(t HandType, ranks ...uint8) HandValue {
	v := HandValue(t) << 20
	for i, r := range ranks {
		if i >= 5 {
			break
		}
		v |= HandValue(r&0xF) << (16 - 4*i)
	}
	return v
}

func significantRanks(t HandType) int {
	switch t {
	case Straight, StraightFlush:
		return 1
	case FullHouse, FourOfAKind:
		return 2
	case TwoPair:
		return 3
	case ThreeOfAKind:
		return 3
	case Pair:
		return 4
	default:
		return 5
	}
}

// highestRank returns the highest rank present in the bitmask (or -1 when empty).
func highestRank(mask uint16) int {
	if mask == 0 {
		return -1
	}
	return bits.Len16(mask) - 1
}

// findKicker finds the highest kicker excluding used ranks.
func findKicker(mask uint16, used []uint8) uint8 {
	available := mask &^ ranksMask(used)
	if available == 0 {
		return 0
	}
	return uint8(bits.Len16(available) - 1)
}

// findOrderedKickers finds the top n kickers in descending order, excluding used ranks.
func findOrderedKickers(mask uint16, used []uint8, n int) []uint8 {
	available := mask &^ ranksMask(used)
	kickers := make([]uint8, 0, n)
	for len(kickers) < n && available != 0 {
		top := uint8(bits.Len16(available) - 1)
		kickers = append(kickers, top)
		available &^= 1 << top
	}
	return kickers
}

func ranksMask(ranks []uint8) uint16 {
	var mask uint16
	for _, r := range ranks {
		mask |= 1 << r
	}
	return mask
}

// straightHigh returns the top card of the best straight in the mask.
// The wheel reports Five as its top card.
func straightHigh(mask uint16) (uint8, bool) {
	const wheelMask = 0x100F // Ace + 2-3-4-5
	mask &= 0x1FFF

	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		return uint8(bits.Len16(seq)-1) + 4, true
	}
	if mask&wheelMask == wheelMask {
		return Five, true
	}
	return 0, false
}

func straightLow(high uint8) uint8 {
	if high == Five {
		return Ace
	}
	return high - 4
}

// CompareHands compares two evaluated hands: 1 if a wins, -1 if b wins, 0 for a tie.
func CompareHands(a, b HandValue) int {
	return a.Compare(b)
}

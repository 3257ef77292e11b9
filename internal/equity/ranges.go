package equity

import (
	"fmt"
	rand "math/rand/v2"
	"strings"

	"github.com/lox/handreplay/poker"
)

// Range describes the hands an opponent may hold.
type Range interface {
	// SampleHand picks two cards from available. It reports false when no
	// hand in the range can be formed from the available cards.
	SampleHand(available []poker.Card, rng *rand.Rand) ([]poker.Card, bool)
}

// RandomRange is any two cards.
type RandomRange struct{}

// SampleHand picks two distinct cards without building a permutation.
func (RandomRange) SampleHand(available []poker.Card, rng *rand.Rand) ([]poker.Card, bool) {
	if len(available) < 2 {
		return nil, false
	}
	i := rng.IntN(len(available))
	j := rng.IntN(len(available) - 1)
	if j >= i {
		j++
	}
	return []poker.Card{available[i], available[j]}, true
}

// Presets are named ranges accepted by ParseRange.
var Presets = map[string]string{
	"tight": "TT+,AT+,KJ+,QJ,JTs,T9s",
	"loose": "22+,A2+,K2s+,K7+,Q8+,J8+,T8+,98,87s,76s,65s",
}

// class is one starting-hand class such as AKs or 77.
type class struct {
	high, low uint8
	suited    bool
	offsuit   bool
}

func (c class) matches(a, b poker.Card) bool {
	hi, lo := a.Rank(), b.Rank()
	if lo > hi {
		hi, lo = lo, hi
	}
	if hi != c.high || lo != c.low {
		return false
	}
	same := a.Suit() == b.Suit()
	switch {
	case c.suited:
		return same
	case c.offsuit:
		return !same
	default:
		return true
	}
}

// ClassRange is a set of starting-hand classes in the usual shorthand.
type ClassRange struct {
	text    string
	classes []class
}

// String returns the shorthand the range was parsed from.
func (r *ClassRange) String() string {
	return r.text
}

// SampleHand picks uniformly among the combos in the range that can be
// formed from the available cards.
func (r *ClassRange) SampleHand(available []poker.Card, rng *rand.Rand) ([]poker.Card, bool) {
	var combos [][2]poker.Card
	for i := 0; i < len(available); i++ {
		for j := i + 1; j < len(available); j++ {
			for _, c := range r.classes {
				if c.matches(available[i], available[j]) {
					combos = append(combos, [2]poker.Card{available[i], available[j]})
					break
				}
			}
		}
	}
	if len(combos) == 0 {
		return nil, false
	}
	pick := combos[rng.IntN(len(combos))]
	return pick[:], true
}

// ParseRange reads a range description. The empty string and "random"
// mean any two cards; "tight" and "loose" name presets; anything else is
// a comma separated list such as "QQ+,AKs,AJo+,76s".
func ParseRange(text string) (Range, error) {
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "", "random", "any":
		return RandomRange{}, nil
	}
	if preset, ok := Presets[strings.ToLower(text)]; ok {
		text = preset
	}

	r := &ClassRange{text: text}
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		classes, err := parseClass(tok)
		if err != nil {
			return nil, err
		}
		r.classes = append(r.classes, classes...)
	}
	if len(r.classes) == 0 {
		return nil, fmt.Errorf("empty range %q", text)
	}
	return r, nil
}

func parseClass(tok string) ([]class, error) {
	plus := strings.HasSuffix(tok, "+")
	body := strings.TrimSuffix(tok, "+")
	if len(body) < 2 || len(body) > 3 {
		return nil, fmt.Errorf("invalid range token %q", tok)
	}
	a, okA := rankOf(body[0])
	b, okB := rankOf(body[1])
	if !okA || !okB {
		return nil, fmt.Errorf("invalid ranks in range token %q", tok)
	}
	if b > a {
		a, b = b, a
	}
	var suited, offsuit bool
	if len(body) == 3 {
		switch body[2] {
		case 's', 'S':
			suited = true
		case 'o', 'O':
			offsuit = true
		default:
			return nil, fmt.Errorf("invalid suitedness in range token %q", tok)
		}
	}
	if a == b {
		if suited {
			return nil, fmt.Errorf("pairs cannot be suited: %q", tok)
		}
		top := a
		if plus {
			top = poker.Ace
		}
		var out []class
		for r := a; r <= top; r++ {
			out = append(out, class{high: r, low: r})
		}
		return out, nil
	}

	top := b
	if plus {
		top = a - 1
	}
	var out []class
	for r := b; r <= top; r++ {
		out = append(out, class{high: a, low: r, suited: suited, offsuit: offsuit})
	}
	return out, nil
}

func rankOf(b byte) (uint8, bool) {
	i := strings.IndexByte("23456789TJQKA", upper(b))
	if i < 0 {
		return 0, false
	}
	return uint8(i), true
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

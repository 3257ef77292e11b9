package replay

import (
	"sort"

	hh "github.com/lox/handreplay/internal/handhistory"
)

// Pot is a main or side pot.
type Pot struct {
	Amount    int64         `json:"amount"`
	Threshold int64         `json:"threshold"` // per-player contribution cap
	Eligible  []hh.PlayerID `json:"eligible"`
	IsSide    bool          `json:"is_side"`
}

// partition splits contributions into pots. Levels are the distinct
// contributions of players who are all-in and still in the hand, then the
// largest contribution overall. Each pot takes every player's chips between
// the previous level and its own; players still in the hand who reached the
// level are eligible. order fixes the eligible list to seat order.
func partition(order []hh.PlayerID, contrib map[hh.PlayerID]int64, folded, allIn map[hh.PlayerID]bool) []Pot {
	levelSet := make(map[int64]bool)
	var top int64
	for _, id := range order {
		c := contrib[id]
		if c > top {
			top = c
		}
		if allIn[id] && !folded[id] && c > 0 {
			levelSet[c] = true
		}
	}
	if top == 0 {
		return nil
	}
	levelSet[top] = true

	levels := make([]int64, 0, len(levelSet))
	for l := range levelSet {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []Pot
	var prev int64
	for _, level := range levels {
		pot := Pot{Threshold: level, IsSide: len(pots) > 0}
		for _, id := range order {
			c := contrib[id]
			pot.Amount += min(c, level) - min(c, prev)
			if !folded[id] && c >= level {
				pot.Eligible = append(pot.Eligible, id)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}
	return pots
}

// deductRake takes the house share from pots in creation order.
func deductRake(pots []Pot, rake int64) []Pot {
	out := make([]Pot, len(pots))
	copy(out, pots)
	for i := range out {
		if rake == 0 {
			break
		}
		take := min(rake, out[i].Amount)
		out[i].Amount -= take
		rake -= take
	}
	return out
}

// split divides amount evenly among winners. Odd chips go one at a time to
// the winners nearest clockwise from the button; clockwise lists every
// player in that order.
func split(amount int64, winners []hh.PlayerID, clockwise []hh.PlayerID) map[hh.PlayerID]int64 {
	out := make(map[hh.PlayerID]int64, len(winners))
	if len(winners) == 0 {
		return out
	}
	share := amount / int64(len(winners))
	remainder := amount % int64(len(winners))
	won := make(map[hh.PlayerID]bool, len(winners))
	for _, w := range winners {
		out[w] = share
		won[w] = true
	}
	for _, id := range clockwise {
		if remainder == 0 {
			break
		}
		if won[id] {
			out[id]++
			remainder--
		}
	}
	return out
}

package handhistory

import "sort"

// Position is a player's position relative to the button.
type Position string

const (
	Button     Position = "BTN"
	SmallBlind Position = "SB"
	BigBlind   Position = "BB"
	UTG        Position = "UTG"
	UTG1       Position = "UTG+1"
	UTG2       Position = "UTG+2"
	Middle     Position = "MP"
	Lojack     Position = "LJ"
	Hijack     Position = "HJ"
	Cutoff     Position = "CO"
	Early      Position = "EP"
	Late       Position = "LP"
)

// positionTables lists positions clockwise starting at the button, keyed by
// the number of players dealt in.
var positionTables = map[int][]Position{
	2:  {Button, BigBlind},
	6:  {Button, SmallBlind, BigBlind, UTG, Hijack, Cutoff},
	9:  {Button, SmallBlind, BigBlind, UTG, UTG1, Middle, Lojack, Hijack, Cutoff},
	10: {Button, SmallBlind, BigBlind, UTG, UTG1, UTG2, Middle, Lojack, Hijack, Cutoff},
}

// PositionsFor returns positions clockwise from the button for n players.
// Sizes without an explicit table get button, blinds and then an even
// early/middle/late split of the remaining seats.
func PositionsFor(n int) []Position {
	if table, ok := positionTables[n]; ok {
		return table
	}
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []Position{Button}
	}
	out := []Position{Button, SmallBlind, BigBlind}
	rest := n - 3
	early, late := rest/3, (rest+2)/3
	for i := 0; i < rest; i++ {
		switch {
		case i < early:
			out = append(out, Early)
		case i < rest-late:
			out = append(out, Middle)
		default:
			out = append(out, Late)
		}
	}
	return out[:n]
}

// AssignPositions sets Position on each player from the button seat.
// Seat numbers need not be contiguous; order is clockwise by seat number.
// If the button seat is empty, the next occupied seat clockwise takes it.
func AssignPositions(players []Player, buttonSeat int) {
	if len(players) == 0 {
		return
	}
	order := ClockwiseFrom(players, buttonSeat-1)
	table := PositionsFor(len(order))
	for i, idx := range order {
		players[idx].Position = table[i]
	}
}

// ClockwiseFrom returns indexes into players ordered by seat, starting at
// the first seat strictly after the given seat and wrapping around.
func ClockwiseFrom(players []Player, seat int) []int {
	idx := make([]int, len(players))
	for i := range players {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return players[idx[a]].Seat < players[idx[b]].Seat
	})
	start := 0
	for i, j := range idx {
		if players[j].Seat > seat {
			start = i
			break
		}
	}
	out := make([]int, 0, len(idx))
	out = append(out, idx[start:]...)
	return append(out, idx[:start]...)
}

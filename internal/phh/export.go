package phh

import (
	"fmt"

	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/replay"
)

// FromHand converts a replayed hand to PHH. Players sitting out are left
// out. Seats are listed in PHH order: the first seat after the button
// first and the button last. Finishing stacks and winnings come from the
// final snapshot.
func FromHand(hand *hh.HandHistory, snaps []replay.Snapshot) (*HandHistory, error) {
	if hand == nil {
		return nil, fmt.Errorf("phh: hand is nil")
	}
	if hand.GameType != hh.HoldEm || hand.BettingLimit != hh.NoLimit {
		return nil, fmt.Errorf("phh: %s %s is not supported", hand.BettingLimit, hand.GameType)
	}
	last, ok := replay.Final(snaps)
	if !ok {
		return nil, fmt.Errorf("phh: hand %s has no snapshots", hand.HandID)
	}

	var active []hh.Player
	for _, p := range hand.Players {
		if p.Status != hh.StatusSittingOut {
			active = append(active, p)
		}
	}
	index := make(map[hh.PlayerID]int, len(active))
	out := &HandHistory{
		Variant:   "NT",
		Table:     hand.TableName,
		SeatCount: hand.MaxPlayers,
		MinBet:    hand.BigBlind,
		HandID:    hand.HandID,
		Event:     hand.Context.TournamentID,
		Currency:  hand.Currency,
		Rake:      last.Rake,
	}
	for _, i := range hh.ClockwiseFrom(active, hand.ButtonSeat) {
		p := active[i]
		index[p.ID] = len(out.Players)
		out.Players = append(out.Players, p.Name)
		out.Seats = append(out.Seats, p.Seat)
		out.StartingStacks = append(out.StartingStacks, p.StartingStack)
		out.FinishingStacks = append(out.FinishingStacks, last.Stacks[p.ID])
		out.Winnings = append(out.Winnings, last.Payouts[p.ID])
		out.Actions = append(out.Actions, fmt.Sprintf("d dh p%d %s", len(out.Players), FormatCards(p.HoleCards, 2)))
	}
	n := len(out.Players)
	out.Antes = make([]int64, n)
	out.BlindsOrStraddles = make([]int64, n)

	if !hand.Timestamp.IsZero() {
		ts := hand.Timestamp
		out.Time = ts.Format("15:04:05")
		out.TimeZone = ts.Location().String()
		out.Day, out.Month, out.Year = ts.Day(), int(ts.Month()), ts.Year()
	}

	for _, street := range hand.Streets {
		if street.Street != hh.Preflop && len(street.Board) > 0 {
			out.Actions = append(out.Actions, "d db "+FormatCards(street.Board, 0))
		}
		live := make(map[hh.PlayerID]int64)
		for _, a := range street.Actions {
			seat, ok := index[a.Player]
			if !ok {
				return nil, fmt.Errorf("phh: action by %q who is not dealt in", a.Player)
			}
			player := fmt.Sprintf("p%d", seat+1)
			switch a.Kind {
			case hh.PostAnte:
				out.Antes[seat] += a.Amount
			case hh.PostBlind:
				if a.Dead {
					out.Antes[seat] += a.Amount
				} else {
					out.BlindsOrStraddles[seat] += a.Amount
					live[a.Player] += a.Amount
				}
			case hh.Fold:
				out.Actions = append(out.Actions, player+" f")
			case hh.Check:
				out.Actions = append(out.Actions, player+" cc")
			case hh.Call:
				live[a.Player] += a.Amount
				out.Actions = append(out.Actions, player+" cc")
			case hh.Bet:
				live[a.Player] += a.Amount
				out.Actions = append(out.Actions, fmt.Sprintf("%s cbr %d", player, live[a.Player]))
			case hh.Raise:
				live[a.Player] = a.RaiseTo
				out.Actions = append(out.Actions, fmt.Sprintf("%s cbr %d", player, a.RaiseTo))
			case hh.Show:
				out.Actions = append(out.Actions, fmt.Sprintf("%s sm %s", player, FormatCards(a.Cards, 2)))
			case hh.Muck:
				out.Actions = append(out.Actions, player+" sm")
			case hh.UncalledReturn:
				live[a.Player] -= a.Amount
			}
		}
	}
	return out, nil
}

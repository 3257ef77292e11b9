package handhistory

import (
	"errors"
	"fmt"

	"github.com/lox/handreplay/poker"
)

// Validate checks the structural rules every parser must honour before a
// hand is published. Money reconciliation is left to the replay engine.
func (h *HandHistory) Validate() error {
	if h.HandID == "" {
		return errors.New("missing hand id")
	}
	if len(h.Players) < 2 {
		return fmt.Errorf("need at least 2 players, got %d", len(h.Players))
	}

	ids := make(map[PlayerID]bool, len(h.Players))
	seats := make(map[int]bool, len(h.Players))
	for _, p := range h.Players {
		if p.ID == "" {
			return fmt.Errorf("seat %d has an empty player name", p.Seat)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate player %q", p.Name)
		}
		if seats[p.Seat] {
			return fmt.Errorf("duplicate seat %d", p.Seat)
		}
		if p.StartingStack < 0 {
			return fmt.Errorf("player %q has negative stack", p.Name)
		}
		ids[p.ID] = true
		seats[p.Seat] = true
	}

	var seen poker.Hand
	addCards := func(what string, cards []poker.Card) error {
		for _, c := range cards {
			if seen.HasCard(c) {
				return fmt.Errorf("card %s appears twice (%s)", c, what)
			}
			seen.AddCard(c)
		}
		return nil
	}

	boardSizes := map[Street]int{Preflop: 0, Flop: 3, Turn: 1, River: 1}
	last := Street(-1)
	for _, s := range h.Streets {
		if s.Street <= last {
			return fmt.Errorf("street %s out of order", s.Street)
		}
		last = s.Street
		if want, ok := boardSizes[s.Street]; ok && len(s.Board) != want {
			return fmt.Errorf("%s has %d board cards, want %d", s.Street, len(s.Board), want)
		}
		if err := addCards("board", s.Board); err != nil {
			return err
		}
		for _, a := range s.Actions {
			if !ids[a.Player] {
				return fmt.Errorf("%s action by unknown player %q", s.Street, a.Player)
			}
			if a.Amount < 0 || a.RaiseTo < 0 {
				return fmt.Errorf("%s action by %q has a negative amount", s.Street, a.Player)
			}
			if a.Street != s.Street {
				return fmt.Errorf("action by %q filed under %s but tagged %s", a.Player, s.Street, a.Street)
			}
		}
	}

	for _, p := range h.Players {
		if err := addCards("hole cards of "+p.Name, p.HoleCards); err != nil {
			return err
		}
	}
	for id := range h.Showdown.Winnings {
		if !ids[id] {
			return fmt.Errorf("winnings for unknown player %q", id)
		}
	}
	for id := range h.Showdown.Revealed {
		if !ids[id] {
			return fmt.Errorf("cards shown by unknown player %q", id)
		}
	}
	if h.TotalPot < 0 || h.Rake < 0 || h.Rake > h.TotalPot {
		return fmt.Errorf("invalid pot %d / rake %d", h.TotalPot, h.Rake)
	}
	return nil
}

package replay

import (
	"fmt"

	hh "github.com/lox/handreplay/internal/handhistory"
)

// Verify checks that a snapshot sequence conserves chips. Build runs it on
// every sequence it returns; it is exported so that stored or transmitted
// sequences can be rechecked.
func Verify(hand *hh.HandHistory, snaps []Snapshot) error {
	fail := func(index int, format string, args ...any) error {
		return &hh.ReplayInconsistencyError{
			HandID: hand.HandID,
			Index:  index,
			Reason: fmt.Sprintf(format, args...),
		}
	}
	if len(snaps) == 0 {
		return fail(-1, "no snapshots")
	}

	prev := make(map[hh.PlayerID]int64)
	for i, s := range snaps {
		if s.Index != i {
			return fail(i, "snapshot index %d out of order", s.Index)
		}
		for id, c := range s.Committed {
			if c < prev[id] {
				return fail(i, "%s's committed chips fell from %d to %d", id, prev[id], c)
			}
			prev[id] = c
		}
		for id, v := range s.Stacks {
			if v < 0 {
				return fail(i, "%s has a negative stack", id)
			}
		}
		if s.Kind == KindStreet || s.Kind == KindShowdown {
			if err := verifySettled(s); err != nil {
				return fail(i, "%s", err)
			}
		}
	}

	last := snaps[len(snaps)-1]
	var paid, committed, returned int64
	for _, v := range last.Payouts {
		paid += v
	}
	for _, p := range hand.Players {
		committed += last.Committed[p.ID]
		returned += last.Returned[p.ID]
	}
	if paid+last.Rake != hand.TotalPot {
		return fail(last.Index, "payouts %d plus rake %d do not match total pot %d", paid, last.Rake, hand.TotalPot)
	}
	if committed != hand.TotalPot+returned {
		return fail(last.Index, "committed %d does not match total pot %d plus returns %d", committed, hand.TotalPot, returned)
	}
	for _, p := range hand.Players {
		want := p.StartingStack - last.Committed[p.ID] + last.Returned[p.ID] + last.Payouts[p.ID]
		if got := last.Stacks[p.ID]; got != want {
			return fail(last.Index, "%s finishes with %d, expected %d", p.Name, got, want)
		}
	}
	return nil
}

// verifySettled checks a snapshot taken right after wagers were swept:
// nothing is pending and the pots partition every contribution.
func verifySettled(s Snapshot) error {
	var contributed, potted int64
	folded := make(map[hh.PlayerID]bool, len(s.Folded))
	for _, id := range s.Folded {
		folded[id] = true
	}
	for id, v := range s.Pending {
		if v != 0 {
			return fmt.Errorf("%s still has %d pending after the sweep", id, v)
		}
	}
	for id, c := range s.Committed {
		contributed += c - s.Returned[id]
	}

	var threshold int64
	for k, pot := range s.Pots {
		if pot.Threshold <= threshold {
			return fmt.Errorf("pot %d threshold %d does not exceed %d", k+1, pot.Threshold, threshold)
		}
		threshold = pot.Threshold
		potted += pot.Amount

		eligible := make(map[hh.PlayerID]bool, len(pot.Eligible))
		for _, id := range pot.Eligible {
			eligible[id] = true
		}
		for id, c := range s.Committed {
			want := !folded[id] && c-s.Returned[id] >= pot.Threshold
			if eligible[id] != want {
				return fmt.Errorf("pot %d eligibility of %s is %t", k+1, id, eligible[id])
			}
		}
	}
	if potted != contributed {
		return fmt.Errorf("pots hold %d but players contributed %d", potted, contributed)
	}
	return nil
}

package replay_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handreplay/internal/dialect"
	"github.com/lox/handreplay/internal/dialect/builder"
	"github.com/lox/handreplay/internal/fixtures"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/replay"
	"github.com/lox/handreplay/poker"
)

func parse(t *testing.T, name string) *hh.HandHistory {
	t.Helper()
	_, hand, err := dialect.Parse(fixtures.Hand(name))
	require.NoError(t, err)
	return hand
}

func build(t *testing.T, hand *hh.HandHistory) []replay.Snapshot {
	t.Helper()
	snaps, err := replay.Build(hand)
	require.NoError(t, err)
	require.NotEmpty(t, snaps)
	return snaps
}

func final(t *testing.T, snaps []replay.Snapshot) replay.Snapshot {
	t.Helper()
	last, ok := replay.Final(snaps)
	require.True(t, ok)
	return last
}

func TestBuildCashHand(t *testing.T) {
	t.Parallel()

	snaps := build(t, parse(t, "pokerstars_cash"))
	last := final(t, snaps)

	hero, v1, v2, v3 := hh.NewPlayerID("Hero"), hh.NewPlayerID("Villain1"), hh.NewPlayerID("Villain2"), hh.NewPlayerID("Villain3")
	assert.Equal(t, int64(9825), last.Payouts[hero])
	assert.Equal(t, int64(0), last.Payouts[v1])
	assert.Equal(t, int64(0), last.Payouts[v2])
	assert.Equal(t, int64(250), last.Rake)
	assert.Equal(t, []hh.PlayerID{hero}, last.Winners)

	assert.Equal(t, int64(12000-5025+9825), last.Stacks[hero])
	assert.Equal(t, int64(7550-5025), last.Stacks[v2])
	assert.Equal(t, int64(10000-25), last.Stacks[v1])
	assert.Equal(t, int64(2500), last.Stacks[v3], "sitting out")

	assert.Equal(t, replay.KindHandStart, snaps[0].Kind)
	assert.Equal(t, replay.KindPayout, last.Kind)
	assert.Equal(t, hero, last.ActivePlayer)

	var descriptions []string
	for _, s := range snaps {
		descriptions = append(descriptions, s.Description)
	}
	assert.Contains(t, descriptions, "Villain1 posts small blind $0.25")
	assert.Contains(t, descriptions, "Villain2 raises to $15")
	assert.Contains(t, descriptions, "Flop: Ac 7d 2s")
	assert.Contains(t, descriptions, "River: 9c")
	assert.Contains(t, descriptions, "Hero collects $98.25 with three of a kind, Aces")
}

func TestBuildTracksStreetState(t *testing.T) {
	t.Parallel()

	snaps := build(t, parse(t, "pokerstars_cash"))
	hero, v2 := hh.NewPlayerID("Hero"), hh.NewPlayerID("Villain2")

	var flop replay.Snapshot
	for _, s := range snaps {
		if s.Kind == replay.KindStreet && s.Street == hh.Flop {
			flop = s
			break
		}
	}
	require.Equal(t, replay.KindStreet, flop.Kind)
	assert.Len(t, flop.Board, 3)
	assert.Equal(t, int64(0), flop.Pending[hero])
	assert.Equal(t, int64(325), flop.TotalPot)
	require.Len(t, flop.Pots, 1)
	assert.Equal(t, []hh.PlayerID{v2, hero}, flop.Pots[0].Eligible)
	assert.Equal(t, []hh.PlayerID{hh.NewPlayerID("Villain1")}, flop.Folded)

	for i := 1; i < len(snaps); i++ {
		for id, c := range snaps[i].Committed {
			assert.GreaterOrEqual(t, c, snaps[i-1].Committed[id])
		}
	}
}

func TestBuildSidePots(t *testing.T) {
	t.Parallel()

	snaps := build(t, parse(t, "ggpoker_sidepots"))
	hero, ann, ben, cid := hh.NewPlayerID("Hero"), hh.NewPlayerID("Ann"), hh.NewPlayerID("Ben"), hh.NewPlayerID("Cid")

	var showdown replay.Snapshot
	for _, s := range snaps {
		if s.Kind == replay.KindShowdown {
			showdown = s
		}
	}
	require.Len(t, showdown.Pots, 3)
	assert.Equal(t, int64(4080), showdown.Pots[0].Amount)
	assert.Equal(t, []hh.PlayerID{hero, ann, ben, cid}, showdown.Pots[0].Eligible)
	assert.Equal(t, int64(1500), showdown.Pots[1].Amount)
	assert.Equal(t, []hh.PlayerID{hero, ben, cid}, showdown.Pots[1].Eligible)
	assert.Equal(t, int64(2000), showdown.Pots[2].Amount)
	assert.Equal(t, []hh.PlayerID{hero, cid}, showdown.Pots[2].Eligible)
	assert.True(t, showdown.Pots[2].IsSide)

	last := final(t, snaps)
	assert.Equal(t, int64(7580), last.Payouts[hero])
	assert.Equal(t, int64(5000-2520+7580), last.Stacks[hero])
	assert.Equal(t, int64(0), last.Stacks[ann])
}

func TestBuildComputesPayoutsWithoutSummary(t *testing.T) {
	t.Parallel()

	hand := parse(t, "pokerstars_tournament")
	hand.Showdown.Winnings = nil
	hand.Showdown.Winners = nil

	snaps := build(t, hand)
	last := final(t, snaps)

	carol, bob := hh.NewPlayerID("Carol"), hh.NewPlayerID("Bob")
	require.Len(t, last.Pots, 2)
	assert.Equal(t, int64(4500), last.Pots[0].Amount)
	assert.Equal(t, int64(1000), last.Pots[1].Amount)
	assert.Equal(t, int64(5500), last.Payouts[carol])
	assert.Equal(t, int64(1000), last.Returned[bob])
	assert.Equal(t, int64(1000), last.Stacks[bob])
	assert.Equal(t, int64(5500), last.Stacks[carol])
}

func TestBuildSplitPotOddChip(t *testing.T) {
	t.Parallel()

	b := builder.New(hh.SitePokerStars)
	b.Hand().HandID = "split"
	b.Hand().ButtonSeat = 1
	b.Hand().SmallBlind = 1
	b.Hand().BigBlind = 2
	b.Hand().Context.Tournament = true
	require.NoError(t, b.AddPlayer("Alice", 1, 100, false, 0))
	require.NoError(t, b.AddPlayer("Bob", 2, 100, false, 0))
	require.NoError(t, b.AddPlayer("Carol", 3, 100, false, 0))
	require.NoError(t, b.PostBlind("Bob", 1, false))
	require.NoError(t, b.PostBlind("Carol", 2, false))
	require.NoError(t, b.Call("Alice", 2, false))
	require.NoError(t, b.Fold("Bob", nil))
	require.NoError(t, b.Check("Carol"))
	require.NoError(t, b.StartStreet(hh.Flop, poker.MustParseCards("As Ks Qs")))
	require.NoError(t, b.StartStreet(hh.Turn, poker.MustParseCards("Js")))
	require.NoError(t, b.StartStreet(hh.River, poker.MustParseCards("Ts")))
	require.NoError(t, b.StartStreet(hh.Showdown, nil))
	require.NoError(t, b.Show("Alice", poker.MustParseCards("2c 3d")))
	require.NoError(t, b.Show("Carol", poker.MustParseCards("4c 5d")))
	hand, err := b.Finish()
	require.NoError(t, err)

	last := final(t, build(t, hand))
	alice, carol := hh.NewPlayerID("Alice"), hh.NewPlayerID("Carol")
	assert.Equal(t, int64(2), last.Payouts[alice])
	assert.Equal(t, int64(3), last.Payouts[carol], "odd chip goes to the first winner left of the button")
	assert.Equal(t, []hh.PlayerID{alice, carol}, last.Winners)
}

func TestBuildLiteralWinningsFallBackPerPlayer(t *testing.T) {
	t.Parallel()

	b := builder.New(hh.SitePokerStars)
	b.Hand().HandID = "literal-split"
	b.Hand().ButtonSeat = 1
	b.Hand().SmallBlind = 1
	b.Hand().BigBlind = 2
	b.Hand().Context.Tournament = true
	require.NoError(t, b.AddPlayer("Alice", 1, 100, false, 0))
	require.NoError(t, b.AddPlayer("Bob", 2, 100, false, 0))
	require.NoError(t, b.AddPlayer("Carol", 3, 100, false, 0))
	require.NoError(t, b.PostBlind("Bob", 1, false))
	require.NoError(t, b.PostBlind("Carol", 2, false))
	require.NoError(t, b.Call("Alice", 2, false))
	require.NoError(t, b.Fold("Bob", nil))
	require.NoError(t, b.Check("Carol"))
	require.NoError(t, b.StartStreet(hh.Flop, poker.MustParseCards("As Ks Qs")))
	require.NoError(t, b.StartStreet(hh.Turn, poker.MustParseCards("Js")))
	require.NoError(t, b.StartStreet(hh.River, poker.MustParseCards("Ts")))
	require.NoError(t, b.StartStreet(hh.Showdown, nil))
	require.NoError(t, b.Show("Alice", poker.MustParseCards("2c 3d")))
	require.NoError(t, b.Show("Carol", poker.MustParseCards("4c 5d")))
	// Only one of the two winners is printed as collecting.
	require.NoError(t, b.Collected("Alice", 2))
	b.SetTotalPot(5)
	b.SetRake(0)
	hand, err := b.Finish()
	require.NoError(t, err)

	last := final(t, build(t, hand))
	alice, carol := hh.NewPlayerID("Alice"), hh.NewPlayerID("Carol")
	assert.Equal(t, int64(2), last.Payouts[alice])
	assert.Equal(t, int64(3), last.Payouts[carol])
	assert.Equal(t, []hh.PlayerID{alice, carol}, last.Winners)
	require.NoError(t, replay.Verify(hand, build(t, hand)))

	// A printed amount that leaves chips unaccounted for is still rejected.
	hand.Showdown.Winnings[alice] = 1
	_, err = replay.Build(hand)
	var inconsistent *hh.ReplayInconsistencyError
	require.ErrorAs(t, err, &inconsistent)
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	for _, name := range fixtures.Names() {
		t.Run(name, func(t *testing.T) {
			hand := parse(t, name)
			first, err := json.Marshal(build(t, hand))
			require.NoError(t, err)
			second, err := json.Marshal(build(t, hand))
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestBuildConservesChips(t *testing.T) {
	t.Parallel()

	for _, name := range fixtures.Names() {
		t.Run(name, func(t *testing.T) {
			hand := parse(t, name)
			last := final(t, build(t, hand))

			var paid, committed, returned, start, end int64
			for _, p := range hand.Players {
				paid += last.Payouts[p.ID]
				committed += last.Committed[p.ID]
				returned += last.Returned[p.ID]
				start += p.StartingStack
				end += last.Stacks[p.ID]
			}
			assert.Equal(t, hand.TotalPot, paid+last.Rake)
			assert.Equal(t, hand.TotalPot+returned, committed)
			assert.Equal(t, start-last.Rake, end)
		})
	}
}

func TestSnapshotsDoNotShareState(t *testing.T) {
	t.Parallel()

	snaps := build(t, parse(t, "pokerstars_cash"))
	hero := hh.NewPlayerID("Hero")
	before := snaps[1].Stacks[hero]
	snaps[0].Stacks[hero] = -1
	assert.Equal(t, before, snaps[1].Stacks[hero])
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	hand := parse(t, "pokerstars_cash")
	snaps := build(t, hand)
	require.NoError(t, replay.Verify(hand, snaps))

	last := len(snaps) - 1
	snaps[last].Stacks[hh.NewPlayerID("Hero")]++
	err := replay.Verify(hand, snaps)
	var inconsistent *hh.ReplayInconsistencyError
	require.ErrorAs(t, err, &inconsistent)
	assert.Equal(t, last, inconsistent.Index)

	assert.Error(t, replay.Verify(hand, nil))
}

func TestBuildRejectsInconsistentHands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(h *hh.HandHistory)
		reason string
	}{
		{
			name: "unknown player",
			mutate: func(h *hh.HandHistory) {
				h.Streets[0].Actions[0].Player = "ghost"
			},
			reason: "unknown player",
		},
		{
			name: "total pot mismatch",
			mutate: func(h *hh.HandHistory) {
				h.TotalPot += 100
			},
			reason: "total pot",
		},
		{
			name: "payouts exceed pot",
			mutate: func(h *hh.HandHistory) {
				h.Showdown.Winnings[hh.NewPlayerID("Hero")] += 1
			},
			reason: "do not match total pot",
		},
		{
			name: "wager beyond stack",
			mutate: func(h *hh.HandHistory) {
				for i, p := range h.Players {
					if p.Name == "Villain1" {
						h.Players[i].StartingStack = 10
					}
				}
			},
			reason: "behind",
		},
		{
			name: "missing cards for computed showdown",
			mutate: func(h *hh.HandHistory) {
				h.Showdown.Winnings = nil
				h.Showdown.Revealed = nil
				for i := range h.Players {
					h.Players[i].HoleCards = nil
				}
				for i := range h.Streets {
					kept := h.Streets[i].Actions[:0]
					for _, a := range h.Streets[i].Actions {
						if a.Kind != hh.Show {
							kept = append(kept, a)
						}
					}
					h.Streets[i].Actions = kept
				}
			},
			reason: "hole cards are unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := parse(t, "pokerstars_cash")
			tt.mutate(hand)
			_, err := replay.Build(hand)
			var inconsistent *hh.ReplayInconsistencyError
			require.ErrorAs(t, err, &inconsistent)
			assert.Contains(t, inconsistent.Reason, tt.reason)
			assert.Equal(t, "245781234567", inconsistent.HandID)
		})
	}
}

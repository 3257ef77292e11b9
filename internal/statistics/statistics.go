// Package statistics summarizes per-player results across replayed hands.
package statistics

import (
	"fmt"
	"math"
	"sort"

	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/replay"
)

// bigPotBB is the pot size, in big blinds, counted as a big pot.
const bigPotBB = 50

// HandResult is one player's outcome in one hand.
type HandResult struct {
	NetBB          float64 // final stack minus starting stack, in big blinds
	Position       hh.Position
	WentToShowdown bool
	PotBB          float64 // total pot in big blinds
}

// PositionStats tracks results from one table position.
type PositionStats struct {
	Hands int
	SumBB float64
}

// Statistics accumulates one player's results.
type Statistics struct {
	Hands  int
	SumBB  float64
	SumBB2 float64   // sum of squares for variance
	Values []float64 // every result, for median and percentiles

	ShowdownWins    int
	NonShowdownWins int
	ShowdownBB      float64 // showdown wins and losses
	NonShowdownBB   float64 // everything decided before showdown
	AllBB           float64

	Positions map[hh.Position]*PositionStats

	MaxPotBB  float64
	BigPots   int
	BigPotsBB float64
}

// Mean returns the average result in big blinds per hand.
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumBB / float64(s.Hands)
}

// BBPer100 returns the win rate in big blinds per hundred hands.
func (s *Statistics) BBPer100() float64 {
	return s.Mean() * 100
}

// Variance returns the sample variance.
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumBB2 - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add records one hand.
func (s *Statistics) Add(r HandResult) {
	s.Hands++
	s.SumBB += r.NetBB
	s.SumBB2 += r.NetBB * r.NetBB
	s.Values = append(s.Values, r.NetBB)

	if r.NetBB > 0 {
		if r.WentToShowdown {
			s.ShowdownWins++
		} else {
			s.NonShowdownWins++
		}
	}
	if r.WentToShowdown {
		s.ShowdownBB += r.NetBB
	} else {
		s.NonShowdownBB += r.NetBB
	}
	s.AllBB += r.NetBB

	if r.Position != "" {
		if s.Positions == nil {
			s.Positions = make(map[hh.Position]*PositionStats)
		}
		ps := s.Positions[r.Position]
		if ps == nil {
			ps = &PositionStats{}
			s.Positions[r.Position] = ps
		}
		ps.Hands++
		ps.SumBB += r.NetBB
	}

	s.MaxPotBB = max(s.MaxPotBB, r.PotBB)
	if r.PotBB >= bigPotBB {
		s.BigPots++
		s.BigPotsBB += r.NetBB
	}
}

func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile interpolates the value at p, between 0 and 1.
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// PositionMean returns the mean result from one position.
func (s *Statistics) PositionMean(p hh.Position) float64 {
	ps := s.Positions[p]
	if ps == nil || ps.Hands == 0 {
		return 0
	}
	return ps.SumBB / float64(ps.Hands)
}

// Validate checks that the showdown split accounts for every result.
func (s *Statistics) Validate() error {
	if math.Abs(s.AllBB-s.ShowdownBB-s.NonShowdownBB) > 1e-6 {
		return fmt.Errorf("ledger mismatch: all %.6f, showdown %.6f, non-showdown %.6f",
			s.AllBB, s.ShowdownBB, s.NonShowdownBB)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("%d values recorded for %d hands", len(s.Values), s.Hands)
	}
	if wins := s.ShowdownWins + s.NonShowdownWins; wins > s.Hands {
		return fmt.Errorf("%d wins in %d hands", wins, s.Hands)
	}
	return nil
}

// Player is one player's summary.
type Player struct {
	ID   hh.PlayerID
	Name string
	*Statistics
}

// Ledger aggregates results per player across hands.
type Ledger struct {
	players map[hh.PlayerID]*Player
	hands   int
}

func NewLedger() *Ledger {
	return &Ledger{players: make(map[hh.PlayerID]*Player)}
}

// Hands returns how many hands were added.
func (l *Ledger) Hands() int {
	return l.hands
}

// AddHand records every seated player's result from a replayed hand.
// Hands without a big blind cannot be normalized and are rejected.
func (l *Ledger) AddHand(hand *hh.HandHistory, snaps []replay.Snapshot) error {
	final, ok := replay.Final(snaps)
	if !ok {
		return fmt.Errorf("hand %s has no snapshots", hand.HandID)
	}
	if hand.BigBlind <= 0 {
		return fmt.Errorf("hand %s has no big blind", hand.HandID)
	}
	bb := float64(hand.BigBlind)

	folded := make(map[hh.PlayerID]bool, len(final.Folded))
	for _, id := range final.Folded {
		folded[id] = true
	}
	contesting := 0
	for _, p := range hand.Players {
		if p.Status != hh.StatusSittingOut && !folded[p.ID] {
			contesting++
		}
	}

	for _, p := range hand.Players {
		if p.Status == hh.StatusSittingOut {
			continue
		}
		pl := l.players[p.ID]
		if pl == nil {
			pl = &Player{ID: p.ID, Name: p.Name, Statistics: &Statistics{}}
			l.players[p.ID] = pl
		}
		pl.Add(HandResult{
			NetBB:          float64(final.Stacks[p.ID]-p.StartingStack) / bb,
			Position:       p.Position,
			WentToShowdown: contesting > 1 && !folded[p.ID],
			PotBB:          float64(hand.TotalPot) / bb,
		})
	}
	l.hands++
	return nil
}

// Players returns every player, biggest winner first.
func (l *Ledger) Players() []*Player {
	out := make([]*Player, 0, len(l.players))
	for _, p := range l.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SumBB != out[j].SumBB {
			return out[i].SumBB > out[j].SumBB
		}
		return out[i].ID < out[j].ID
	})
	return out
}

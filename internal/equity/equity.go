// Package equity estimates how often a hand wins by sampling random
// runouts. Results are approximate and never feed into replay accounting.
package equity

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/handreplay/internal/randutil"
	"github.com/lox/handreplay/poker"
)

const (
	DefaultIterations = 10000
	DefaultTimeout    = 2 * time.Second
	maxWorkers        = 8
	checkEvery        = 64
)

// Request is one equity question.
type Request struct {
	Hero      []poker.Card
	Board     []poker.Card
	Opponents int   // defaults to 1
	Range     Range // applies to every opponent, nil means RandomRange
}

// Options bounds the work done for a request.
type Options struct {
	Iterations int           // maximum samples, DefaultIterations if zero
	Timeout    time.Duration // wall-clock budget, DefaultTimeout if zero, negative disables
	Workers    int           // defaults to the CPU count, capped at 8
	Seed       int64
	Clock      quartz.Clock // defaults to the real clock
}

// Result is the share of sampled runouts the hero won, tied or lost.
type Result struct {
	Win     float64 `json:"win"`
	Tie     float64 `json:"tie"`
	Lose    float64 `json:"lose"`
	Equity  float64 `json:"equity"` // win plus the hero's share of ties
	Samples int     `json:"samples"`
	Partial bool    `json:"partial"` // stopped early by the deadline or the caller
}

type tally struct {
	wins, ties, losses int
	share              float64
}

func (t *tally) add(o tally) {
	t.wins += o.wins
	t.ties += o.ties
	t.losses += o.losses
	t.share += o.share
}

func (t tally) samples() int {
	return t.wins + t.ties + t.losses
}

// Estimate samples up to opts.Iterations runouts across a pool of
// workers. When the deadline passes it returns what it has so far. When
// ctx is cancelled it returns the partial result together with the
// context error.
func Estimate(ctx context.Context, req Request, opts Options) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	if req.Opponents == 0 {
		req.Opponents = 1
	}
	if req.Range == nil {
		req.Range = RandomRange{}
	}
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = min(runtime.NumCPU(), maxWorkers)
	}
	workers = min(workers, opts.Iterations)

	dead := poker.NewHand(req.Hero...)
	for _, c := range req.Board {
		dead.AddCard(c)
	}
	available := make([]poker.Card, 0, 52)
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			if c := poker.NewCard(rank, suit); !dead.HasCard(c) {
				available = append(available, c)
			}
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var expired atomic.Bool
	if opts.Timeout > 0 {
		timer := opts.Clock.AfterFunc(opts.Timeout, func() {
			expired.Store(true)
			cancel()
		})
		defer timer.Stop()
	}

	streams := randutil.Streams(opts.Seed, workers)
	tallies := make([]tally, workers)
	per, rem := opts.Iterations/workers, opts.Iterations%workers

	g, gctx := errgroup.WithContext(runCtx)
	for w := range workers {
		n := per
		if w < rem {
			n++
		}
		g.Go(func() error {
			var err error
			tallies[w], err = run(gctx, req, dead, available, n, streams[w])
			return err
		})
	}
	err := g.Wait()

	var total tally
	for _, t := range tallies {
		total.add(t)
	}
	res := total.result()
	res.Partial = res.Samples < opts.Iterations

	// Running out of time is a partial result; cancellation by the caller is not.
	if err != nil && !expired.Load() {
		return res, fmt.Errorf("equity estimate interrupted: %w", err)
	}
	return res, nil
}

func (t tally) result() Result {
	n := t.samples()
	if n == 0 {
		return Result{}
	}
	f := float64(n)
	return Result{
		Win:     float64(t.wins) / f,
		Tie:     float64(t.ties) / f,
		Lose:    float64(t.losses) / f,
		Equity:  (float64(t.wins) + t.share) / f,
		Samples: n,
	}
}

// run is one worker's sampling loop. It draws n samples. It stops early, returning the samples so far and
// the context error, once ctx is done.
func run(ctx context.Context, req Request, dead poker.Hand, available []poker.Card, n int, rng *rand.Rand) (tally, error) {
	var t tally
	need := 5 - len(req.Board)
	board := make([]poker.Card, 5)
	copy(board, req.Board)
	hand := make([]poker.Card, 7)
	candidates := make([]poker.Card, 0, len(available))
	opps := make([][]poker.Card, req.Opponents)
	deck := poker.NewDeckWithout(dead, rng)

	for i := 0; i < n; i++ {
		if i%checkEvery == 0 && ctx.Err() != nil {
			return t, ctx.Err()
		}

		used := dead
		ok := true
		for k := range opps {
			candidates = unused(candidates[:0], available, used)
			opps[k], ok = req.Range.SampleHand(candidates, rng)
			if !ok {
				break
			}
			for _, c := range opps[k] {
				used.AddCard(c)
			}
		}
		if !ok {
			continue
		}

		deck.Exclude(used)
		copy(board[len(req.Board):], deck.DealRandom(need))

		copy(hand, req.Hero)
		copy(hand[2:], board)
		hero := poker.EvaluateHand(poker.NewHand(hand...))

		beaten, tied := false, 0
		for _, opp := range opps {
			copy(hand, opp)
			v := poker.EvaluateHand(poker.NewHand(hand...))
			switch v.Compare(hero) {
			case 1:
				beaten = true
			case 0:
				tied++
			}
			if beaten {
				break
			}
		}
		switch {
		case beaten:
			t.losses++
		case tied > 0:
			t.ties++
			t.share += 1 / float64(tied+1)
		default:
			t.wins++
		}
	}
	return t, nil
}

func unused(dst, available []poker.Card, used poker.Hand) []poker.Card {
	for _, c := range available {
		if !used.HasCard(c) {
			dst = append(dst, c)
		}
	}
	return dst
}

var (
	ErrHoleCards = errors.New("equity needs exactly two hole cards")
	ErrBoard     = errors.New("board must have 0, 3, 4 or 5 cards")
	ErrOpponents = errors.New("opponents must be between 1 and 9")
)

func (r Request) validate() error {
	if len(r.Hero) != 2 {
		return ErrHoleCards
	}
	switch len(r.Board) {
	case 0, 3, 4, 5:
	default:
		return ErrBoard
	}
	if r.Opponents < 0 || r.Opponents > 9 {
		return fmt.Errorf("%w, got %d", ErrOpponents, r.Opponents)
	}
	known := append(append([]poker.Card{}, r.Hero...), r.Board...)
	if poker.NewHand(known...).CountCards() != len(known) {
		return poker.ErrDuplicateCard
	}
	return nil
}

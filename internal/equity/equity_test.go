package equity

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handreplay/internal/randutil"
	"github.com/lox/handreplay/poker"
)

func TestEstimate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hero     string
		board    string
		rng      string
		min, max float64
	}{
		{"pocket aces vs random", "AsAd", "", "random", 0.80, 0.90},
		{"72o vs random", "7h2c", "", "random", 0.28, 0.40},
		{"flush and straight draw", "AsKs", "QsJs2h", "random", 0.65, 0.85},
		{"weak hand on high board", "2h3c", "AsKdQh", "random", 0.08, 0.30},
		{"set vs tight", "AhAc", "Ad7s2c", "tight", 0.85, 1.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := ParseRange(tt.rng)
			require.NoError(t, err)
			req := Request{Hero: poker.MustParseCards(tt.hero), Range: r}
			if tt.board != "" {
				req.Board = poker.MustParseCards(tt.board)
			}

			res, err := Estimate(context.Background(), req, Options{Iterations: 4000, Seed: 12345, Timeout: -1})
			require.NoError(t, err)
			assert.Equal(t, 4000, res.Samples)
			assert.False(t, res.Partial)
			assert.InDelta(t, 1.0, res.Win+res.Tie+res.Lose, 1e-9)
			assert.GreaterOrEqual(t, res.Equity, tt.min)
			assert.LessOrEqual(t, res.Equity, tt.max)
		})
	}
}

func TestEstimateRiverIsExact(t *testing.T) {
	t.Parallel()

	req := Request{
		Hero:  poker.MustParseCards("2c 3d"),
		Board: poker.MustParseCards("As Ks Qs Js Ts"),
	}
	res, err := Estimate(context.Background(), req, Options{Iterations: 200, Timeout: -1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Tie, "the board plays for everyone")
	assert.InDelta(t, 0.5, res.Equity, 1e-9)
}

func TestEstimateIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	req := Request{Hero: poker.MustParseCards("Kh Qh"), Opponents: 2}
	opts := Options{Iterations: 1500, Seed: 7, Workers: 3, Timeout: -1}

	a, err := Estimate(context.Background(), req, opts)
	require.NoError(t, err)
	b, err := Estimate(context.Background(), req, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEstimateStopsAtDeadline(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := Request{Hero: poker.MustParseCards("As Ad")}
	opts := Options{Iterations: 1 << 40, Timeout: time.Second, Workers: 2, Clock: clock}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := Estimate(ctx, req, opts)
		done <- outcome{res, err}
	}()

	for {
		select {
		case out := <-done:
			require.NoError(t, out.err)
			assert.True(t, out.res.Partial)
			assert.Positive(t, out.res.Samples)
			return
		case <-ctx.Done():
			t.Fatal("estimate did not stop at the deadline")
		default:
			clock.Advance(time.Second).MustWait(ctx)
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestEstimateCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Estimate(ctx, Request{Hero: poker.MustParseCards("As Ad")}, Options{Iterations: 1000, Timeout: -1})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Partial)
}

func TestRunReturnsContextError(t *testing.T) {
	t.Parallel()

	req := Request{Hero: poker.MustParseCards("As Ad"), Opponents: 1, Range: RandomRange{}}
	dead := poker.NewHand(req.Hero...)
	var available []poker.Card
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			if c := poker.NewCard(rank, suit); !dead.HasCard(c) {
				available = append(available, c)
			}
		}
	}

	tl, err := run(context.Background(), req, dead, available, 50, randutil.New(3))
	require.NoError(t, err)
	assert.Equal(t, 50, tl.samples())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tl, err = run(ctx, req, dead, available, 50, randutil.New(3))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, tl.samples())
}

func TestEstimateRejectsBadInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := Estimate(ctx, Request{Hero: poker.MustParseCards("As")}, Options{})
	assert.ErrorIs(t, err, ErrHoleCards)

	_, err = Estimate(ctx, Request{Hero: poker.MustParseCards("As Ad"), Board: poker.MustParseCards("2c 3c")}, Options{})
	assert.ErrorIs(t, err, ErrBoard)

	_, err = Estimate(ctx, Request{Hero: poker.MustParseCards("As Ad"), Board: poker.MustParseCards("As 3c 4d")}, Options{})
	assert.ErrorIs(t, err, poker.ErrDuplicateCard)

	_, err = Estimate(ctx, Request{Hero: poker.MustParseCards("As Ad"), Opponents: 12}, Options{})
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	r, err := ParseRange("QQ+, AKs")
	require.NoError(t, err)
	cr, ok := r.(*ClassRange)
	require.True(t, ok)
	assert.Len(t, cr.classes, 4)

	available := poker.MustParseCards("Ah Kh Qd Jc 2c 7d")
	rng := randutil.New(1)
	for i := 0; i < 20; i++ {
		hand, ok := r.SampleHand(available, rng)
		require.True(t, ok)
		assert.Equal(t, poker.NewHand(poker.MustParseCards("Ah Kh")...), poker.NewHand(hand...), "only AhKh is in range")
	}

	_, ok = r.SampleHand(poker.MustParseCards("2c 7d 9h"), rng)
	assert.False(t, ok)

	r, err = ParseRange("A9s+")
	require.NoError(t, err)
	assert.Len(t, r.(*ClassRange).classes, 5)

	for _, bad := range []string{"AKx", "ZZ", "AAs", ","} {
		_, err := ParseRange(bad)
		assert.Error(t, err, bad)
	}

	r, err = ParseRange("")
	require.NoError(t, err)
	assert.IsType(t, RandomRange{}, r)
}

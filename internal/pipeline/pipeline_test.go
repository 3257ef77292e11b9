package pipeline_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/handreplay/internal/fixtures"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/pipeline"
)

func newPipeline(workers int) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Workers: workers,
		Logger:  log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}),
	})
}

func TestRunAllFixtures(t *testing.T) {
	t.Parallel()

	names := fixtures.Names()
	var parts []string
	for _, name := range names {
		parts = append(parts, fixtures.Hand(name))
	}
	text := strings.Join(parts, "\n\n\n")

	batch, err := newPipeline(3).Run(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, batch.Results, len(names))
	assert.Zero(t, batch.Failed())
	assert.Empty(t, batch.Warnings)

	for i, r := range batch.Results {
		assert.Equal(t, i, r.Index)
		require.True(t, r.OK(), "%s: %v", names[i], r.Err)
		assert.NotEmpty(t, r.Snapshots)
		assert.Equal(t, r.Site, r.Hand.Site)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	t.Parallel()

	short := "PokerStars Hand #1:  Hold'em No Limit ($0.25/$0.50 USD) - 2023/05/14 21:03:11 ET"
	inconsistent := strings.Replace(fixtures.Hand("pokerstars_cash"), "Total pot $100.75", "Total pot $101.75", 1)
	garbled := strings.Replace(fixtures.Hand("winamax_cash"), "Bert checks", "Bert juggles", 1)

	text := strings.Join([]string{
		"exported by some tracker",
		fixtures.Hand("ggpoker_cash"),
		short,
		inconsistent,
		garbled,
		fixtures.Hand("partypoker_cash"),
	}, "\n\n")

	batch, err := newPipeline(2).Run(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, batch.Results, 5)
	assert.Len(t, batch.Warnings, 1)
	assert.Equal(t, 3, batch.Failed())

	assert.True(t, batch.Results[0].OK())
	assert.Equal(t, hh.SiteGGPoker, batch.Results[0].Site)

	var splitErr *hh.SplitError
	assert.ErrorAs(t, batch.Results[1].Err, &splitErr)

	var replayErr *hh.ReplayInconsistencyError
	assert.ErrorAs(t, batch.Results[2].Err, &replayErr)
	assert.Equal(t, hh.SitePokerStars, batch.Results[2].Site)
	assert.NotNil(t, batch.Results[2].Hand)

	var parseErr *hh.ParseError
	assert.ErrorAs(t, batch.Results[3].Err, &parseErr)
	assert.Equal(t, hh.SiteWinamax, batch.Results[3].Site)
	assert.NotEmpty(t, batch.Results[3].Error)

	assert.True(t, batch.Results[4].OK())
	assert.Equal(t, hh.SitePartyPoker, batch.Results[4].Site)
}

const hand888 = `#Game No : 1055765626
***** 888poker Hand History for Game 1055765626 *****
$0.01/$0.02 Blinds No Limit Holdem - *** 24 01 2020 19:14:30
Table Rome 6 Max (Real Money)
Seat 1 is the button
Total number of players : 2
Seat 1: Alpha ( $2 )
Seat 2: Bravo ( $2.10 )
Alpha posts small blind [$0.01]
Bravo posts big blind [$0.02]
** Dealing down cards **
Alpha folds
** Summary **
Bravo collected [ $0.02 ]`

func TestRunReportsUnsupportedHands(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		fixtures.Hand("pokerstars_cash"),
		hand888,
		fixtures.Hand("pokerstars_cash"),
	}, "\n\n")

	batch, err := newPipeline(2).Run(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, 1, batch.Failed())
	assert.Empty(t, batch.Warnings)

	for _, i := range []int{0, 2} {
		r := batch.Results[i]
		require.True(t, r.OK(), "hand %d: %v", i, r.Err)
		assert.Equal(t, "245781234567", r.Hand.HandID)
		assert.Equal(t, int64(10075), r.Hand.TotalPot)
	}

	unsupported := batch.Results[1]
	assert.Equal(t, 1, unsupported.Index)
	assert.Equal(t, hh.SiteUnknown, unsupported.Site)
	assert.ErrorIs(t, unsupported.Err, hh.ErrUnsupportedDialect)
	var ue *hh.UnsupportedDialectError
	require.ErrorAs(t, unsupported.Err, &ue)
	assert.Equal(t, "#Game No : 1055765626", ue.Header)
}

func TestStreamStopsOnEmitError(t *testing.T) {
	t.Parallel()

	text := fixtures.Hand("pokerstars_cash") + "\n\n" + fixtures.Hand("winamax_cash")
	stop := errors.New("client went away")

	var seen int
	_, _, err := newPipeline(1).Stream(context.Background(), text, func(pipeline.Result) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPipeline(1).Run(ctx, fixtures.Hand("pokerstars_cash"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	batch, err := newPipeline(1).Run(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, batch.Results)
	assert.NotEqual(t, "", batch.ID.String())
}

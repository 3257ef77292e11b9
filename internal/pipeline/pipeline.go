// Package pipeline runs a batch of hand histories through the splitter,
// the dialect parsers and the replay engine. Hands are independent, so
// they are processed concurrently; results always come back in fragment
// order.
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lox/handreplay/internal/dialect"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/replay"
	"github.com/lox/handreplay/internal/splitter"
)

// Options configures a Pipeline.
type Options struct {
	Workers          int // concurrent hands, defaults to the CPU count
	MinFragmentBytes int // passed to the splitter
	Logger           *log.Logger
}

// Result is the outcome for one fragment.
type Result struct {
	Index     int               `json:"index"`
	Line      int               `json:"line"`
	Site      hh.Site           `json:"site,omitempty"`
	Hand      *hh.HandHistory   `json:"hand,omitempty"`
	Snapshots []replay.Snapshot `json:"snapshots,omitempty"`
	Err       error             `json:"-"`
	Error     string            `json:"error,omitempty"`
}

// OK reports whether the fragment parsed and replayed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Batch is the outcome for one input text.
type Batch struct {
	ID       uuid.UUID `json:"id"`
	Results  []Result  `json:"results"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Failed counts results that carry an error.
func (b *Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Pipeline processes batches. It holds no per-batch state and is safe for
// concurrent use.
type Pipeline struct {
	workers  int
	minBytes int
	logger   *log.Logger
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		workers:  opts.Workers,
		minBytes: opts.MinFragmentBytes,
		logger:   opts.Logger,
	}
	if p.workers <= 0 {
		p.workers = runtime.NumCPU()
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// Run processes text and collects every result.
func (p *Pipeline) Run(ctx context.Context, text string) (*Batch, error) {
	b := &Batch{}
	id, warnings, err := p.Stream(ctx, text, func(r Result) error {
		b.Results = append(b.Results, r)
		return nil
	})
	b.ID = id
	b.Warnings = warnings
	return b, err
}

// Stream processes text and calls emit once per fragment, in fragment
// order, as soon as that fragment and all earlier ones are done. Text
// outside any fragment is reported as warnings. An error from emit or
// from ctx stops the batch.
func (p *Pipeline) Stream(ctx context.Context, text string, emit func(Result) error) (uuid.UUID, []string, error) {
	id := uuid.New()
	logger := p.logger.With("batch", id.String())
	start := time.Now()

	fragments, splitErrs := splitter.SplitWith(text, splitter.Options{MinBytes: p.minBytes})

	var (
		warnings []string
		rejected []Result
	)
	for _, err := range splitErrs {
		var (
			se *hh.SplitError
			ue *hh.UnsupportedDialectError
		)
		switch {
		case errors.As(err, &se) && se.Index >= 0:
			rejected = append(rejected, Result{Index: se.Index, Line: se.Line, Err: err, Error: err.Error()})
			logger.Warn("Dropped fragment", "index", se.Index, "line", se.Line, "reason", se.Reason)
			continue
		case errors.As(err, &ue):
			rejected = append(rejected, Result{Index: ue.Index, Line: ue.Line, Err: err, Error: err.Error()})
			logger.Warn("Unsupported hand", "index", ue.Index, "line", ue.Line, "header", ue.Header)
			continue
		}
		warnings = append(warnings, err.Error())
		logger.Warn("Ignored input", "error", err)
	}

	total := len(fragments) + len(rejected)
	slots := make([]chan Result, total)
	for i := range slots {
		slots[i] = make(chan Result, 1)
	}
	for _, r := range rejected {
		slots[r.Index] <- r
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	launched := make(chan struct{})
	stop := func() {
		cancel()
		<-launched
		_ = g.Wait()
	}
	go func() {
		defer close(launched)
		for _, f := range fragments {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[f.Index] <- p.process(logger, f)
				return nil
			})
		}
	}()

	var ok, failed int
	for i := range slots {
		select {
		case r := <-slots[i]:
			if r.OK() {
				ok++
			} else {
				failed++
			}
			if err := emit(r); err != nil {
				stop()
				return id, warnings, err
			}
		case <-ctx.Done():
			err := ctx.Err()
			stop()
			return id, warnings, err
		}
	}
	<-launched
	if err := g.Wait(); err != nil {
		return id, warnings, err
	}

	logger.Info("Processed batch", "hands", ok, "failed", failed, "duration", time.Since(start))
	return id, warnings, nil
}

// Process parses and replays one fragment.
func Process(f splitter.Fragment) Result {
	res := Result{Index: f.Index, Line: f.Line, Site: f.Site}
	site, hand, err := dialect.Parse(f.Text)
	if site != hh.SiteUnknown {
		res.Site = site
	}
	if err != nil {
		return res.fail(err)
	}
	snaps, err := replay.Build(hand)
	if err != nil {
		res.Hand = hand
		return res.fail(err)
	}
	res.Hand = hand
	res.Snapshots = snaps
	return res
}

func (p *Pipeline) process(logger *log.Logger, f splitter.Fragment) Result {
	res := Process(f)
	if res.Err != nil {
		logger.Warn("Hand failed", "index", f.Index, "site", res.Site, "error", res.Err)
		return res
	}
	logger.Debug("Replayed hand", "index", f.Index, "site", res.Site, "hand", res.Hand.HandID, "snapshots", len(res.Snapshots))
	return res
}

func (r Result) fail(err error) Result {
	r.Err = err
	r.Error = err.Error()
	return r
}

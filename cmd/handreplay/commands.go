package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sanity-io/litter"

	"github.com/lox/handreplay/internal/dialect"
	"github.com/lox/handreplay/internal/equity"
	"github.com/lox/handreplay/internal/fileutil"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/phh"
	"github.com/lox/handreplay/internal/server"
	"github.com/lox/handreplay/internal/splitter"
	"github.com/lox/handreplay/internal/statistics"
	"github.com/lox/handreplay/poker"
)

// DetectCmd lists the dialect of every header in the input.
type DetectCmd struct {
	Files []string `arg:"" optional:"" name:"file" help:"Hand-history files, stdin when omitted"`
}

func (c *DetectCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	text, err := g.readInput(c.Files)
	if err != nil {
		return err
	}

	fragments, errs := splitter.SplitWith(text, splitter.Options{MinBytes: cfg.MinFragmentBytes})
	lines := strings.Split(strings.TrimPrefix(strings.ReplaceAll(text, "\r\n", "\n"), "\ufeff"), "\n")
	rows := make([][]string, 0, len(fragments)+len(errs))
	for _, f := range fragments {
		rows = append(rows, []string{fmt.Sprint(f.Index), fmt.Sprint(f.Line), f.Site.String(), ""})
	}
	for _, err := range errs {
		var (
			splitErr       *hh.SplitError
			unsupportedErr *hh.UnsupportedDialectError
		)
		if errors.As(err, &splitErr) && splitErr.Index >= 0 && splitErr.Line <= len(lines) {
			site, _ := dialect.Detect(strings.TrimSpace(lines[splitErr.Line-1]))
			rows = append(rows, []string{fmt.Sprint(splitErr.Index), fmt.Sprint(splitErr.Line), site.String(), splitErr.Reason})
			continue
		}
		if errors.As(err, &unsupportedErr) {
			rows = append(rows, []string{fmt.Sprint(unsupportedErr.Index), fmt.Sprint(unsupportedErr.Line),
				hh.SiteUnknown.String(), hh.ErrUnsupportedDialect.Error()})
			continue
		}
		logger.Warn("Ignored text", "error", err)
	}
	sortRows(rows)

	fmt.Fprintln(g.stdout(), renderTable([]string{"Hand", "Line", "Site", "Rejected"}, rows))
	return nil
}

// SplitCmd cuts the input into fragments.
type SplitCmd struct {
	Files []string `arg:"" optional:"" name:"file" help:"Hand-history files, stdin when omitted"`
	Print bool     `help:"Print each fragment's text instead of a summary"`
}

func (c *SplitCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	text, err := g.readInput(c.Files)
	if err != nil {
		return err
	}

	fragments, errs := splitter.SplitWith(text, splitter.Options{MinBytes: cfg.MinFragmentBytes})
	for _, err := range errs {
		logger.Warn("Rejected fragment", "error", err)
	}

	out := g.stdout()
	if c.Print {
		for i, f := range fragments {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s\n\n", f.Text)
		}
		return nil
	}

	rows := make([][]string, 0, len(fragments))
	for _, f := range fragments {
		header, _, _ := strings.Cut(f.Text, "\n")
		rows = append(rows, []string{fmt.Sprint(f.Index), fmt.Sprint(f.Line), f.Site.String(), fmt.Sprint(len(f.Text)), truncate(header, 60)})
	}
	fmt.Fprintln(out, renderTable([]string{"Hand", "Line", "Site", "Bytes", "Header"}, rows))
	fmt.Fprintf(out, "%d fragments, %d rejected\n", len(fragments), len(errs))
	return nil
}

// ParseCmd parses every fragment without replaying it.
type ParseCmd struct {
	Files  []string `arg:"" optional:"" name:"file" help:"Hand-history files, stdin when omitted"`
	Format string   `short:"f" enum:"json,dump" default:"json" help:"Output format (json, dump)"`
}

type parsed struct {
	Index int             `json:"index"`
	Line  int             `json:"line"`
	Site  hh.Site         `json:"site,omitempty"`
	Hand  *hh.HandHistory `json:"hand,omitempty"`
	Error string          `json:"error,omitempty"`
}

func (c *ParseCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	text, err := g.readInput(c.Files)
	if err != nil {
		return err
	}

	fragments, errs := splitter.SplitWith(text, splitter.Options{MinBytes: cfg.MinFragmentBytes})
	for _, err := range errs {
		logger.Warn("Rejected fragment", "error", err)
	}

	out := make([]parsed, 0, len(fragments))
	for _, f := range fragments {
		site, hand, err := dialect.Parse(f.Text)
		p := parsed{Index: f.Index, Line: f.Line, Site: site, Hand: hand}
		if err != nil {
			logger.Warn("Parse failed", "index", f.Index, "line", f.Line, "error", err)
			p.Error = err.Error()
		}
		out = append(out, p)
	}

	if c.Format == "dump" {
		dump := litter.Options{StripPackageNames: true, HidePrivateFields: true}
		for _, p := range out {
			fmt.Fprintln(g.stdout(), dump.Sdump(p))
		}
		return nil
	}
	enc := json.NewEncoder(g.stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ReplayCmd replays every hand and prints its snapshots.
type ReplayCmd struct {
	Files []string `arg:"" optional:"" name:"file" help:"Hand-history files, stdin when omitted"`
	JSON  bool     `help:"Print the batch as JSON"`
	Pots  bool     `help:"Show the pot breakdown after every action"`
	Stats bool     `help:"Print per-player results across the batch"`
}

func (c *ReplayCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	text, err := g.readInput(c.Files)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	batch, err := g.pipeline(cfg, logger).Run(ctx, text)
	if err != nil {
		return err
	}
	for _, w := range batch.Warnings {
		logger.Warn("Ignored text", "warning", w)
	}

	if c.JSON {
		enc := json.NewEncoder(g.stdout())
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	}

	p := newPrinter(g.stdout(), c.Pots)
	for _, res := range batch.Results {
		p.Result(res)
	}
	p.Summary(batch)
	if c.Stats {
		ledger := statistics.NewLedger()
		for _, res := range batch.Results {
			if !res.OK() {
				continue
			}
			if err := ledger.AddHand(res.Hand, res.Snapshots); err != nil {
				logger.Warn("Skipping hand in statistics", "hand", res.Hand.HandID, "error", err)
			}
		}
		p.Stats(ledger)
	}
	if n := batch.Failed(); n > 0 && n == len(batch.Results) {
		return fmt.Errorf("all %d hands failed", n)
	}
	return nil
}

// EquityCmd estimates equity for one hand.
type EquityCmd struct {
	Hero       string        `arg:"" help:"Hole cards, e.g. 'Ah Kd'"`
	Board      string        `short:"b" help:"Known board cards"`
	Opponents  int           `short:"n" default:"1" help:"Number of opponents"`
	Range      string        `short:"r" help:"Opponent range, e.g. 'QQ+,AKs' or a preset (tight, loose)"`
	Iterations int           `short:"i" help:"Maximum samples, overrides the config"`
	Timeout    time.Duration `help:"Wall-clock budget, overrides the config"`
	Seed       *int64        `help:"Sampling seed, overrides the config"`
	JSON       bool          `help:"Print the result as JSON"`
}

func (c *EquityCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}

	req := equity.Request{Opponents: c.Opponents}
	if req.Hero, err = poker.ParseCards(c.Hero); err != nil {
		return fmt.Errorf("hero: %w", err)
	}
	if req.Board, err = poker.ParseCards(c.Board); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	rangeText := c.Range
	if rangeText == "" {
		rangeText = cfg.Equity.Range
	}
	if req.Range, err = equity.ParseRange(rangeText); err != nil {
		return err
	}

	opts := equityOptions(cfg)
	if c.Iterations > 0 {
		opts.Iterations = c.Iterations
	}
	if c.Timeout != 0 {
		opts.Timeout = c.Timeout
	}
	if c.Seed != nil {
		opts.Seed = *c.Seed
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	start := time.Now()
	res, err := equity.Estimate(ctx, req, opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Debug("Estimated equity", "samples", res.Samples, "partial", res.Partial, "duration", time.Since(start))

	if c.JSON {
		enc := json.NewEncoder(g.stdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(g.stdout(), formatEquity(req, res))
	return nil
}

func formatEquity(req equity.Request, res equity.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", poker.FormatCards(req.Hero))
	if len(req.Board) > 0 {
		fmt.Fprintf(&b, " on %s", poker.FormatCards(req.Board))
	}
	opponents := max(req.Opponents, 1)
	fmt.Fprintf(&b, " vs %d opponent", opponents)
	if opponents > 1 {
		b.WriteString("s")
	}
	fmt.Fprintf(&b, ": equity %.1f%% (win %.1f%%, tie %.1f%%, lose %.1f%%) over %d samples",
		res.Equity*100, res.Win*100, res.Tie*100, res.Lose*100, res.Samples)
	if res.Partial {
		b.WriteString(", stopped early")
	}
	return b.String()
}

// ExportPHHCmd writes replayed hands as a PHH session.
type ExportPHHCmd struct {
	Files  []string `arg:"" optional:"" name:"file" help:"Hand-history files, stdin when omitted"`
	Output string   `short:"o" help:"Write the session to this file instead of stdout"`
}

func (c *ExportPHHCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	text, err := g.readInput(c.Files)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	batch, err := g.pipeline(cfg, logger).Run(ctx, text)
	if err != nil {
		return err
	}

	var hands []*phh.HandHistory
	for _, res := range batch.Results {
		if !res.OK() {
			continue
		}
		h, err := phh.FromHand(res.Hand, res.Snapshots)
		if err != nil {
			logger.Warn("Skipping hand", "hand", res.Hand.HandID, "error", err)
			continue
		}
		hands = append(hands, h)
	}
	if len(hands) == 0 {
		return fmt.Errorf("no exportable hands in %d fragments", len(batch.Results))
	}

	write := func(w io.Writer) error { return phh.EncodeSession(w, hands) }
	if c.Output == "" {
		return write(g.stdout())
	}
	if err := fileutil.WriteAtomic(c.Output, 0o644, write); err != nil {
		return err
	}
	logger.Info("Exported hands", "hands", len(hands), "skipped", len(batch.Results)-len(hands), "file", c.Output)
	return nil
}

// ServeCmd runs the service until interrupted.
type ServeCmd struct {
	Addr string `help:"Listen address, overrides the config (host:port)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	addr := c.Addr
	if addr == "" {
		addr = cfg.ServerAddress()
	}

	s := server.New(server.Options{
		Pipeline:     g.pipeline(cfg, logger),
		Equity:       equityOptions(cfg),
		Range:        cfg.Equity.Range,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger,
	})

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("Starting handreplay server", "addr", addr, "workers", cfg.Workers, "version", version)
	return s.Serve(ctx, addr)
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(infoStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// sortRows orders rows by their numeric first column.
func sortRows(rows [][]string) {
	slices.SortStableFunc(rows, func(a, b []string) int {
		x, _ := strconv.Atoi(a[0])
		y, _ := strconv.Atoi(b[0])
		return x - y
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/money"
	"github.com/lox/handreplay/internal/pipeline"
	"github.com/lox/handreplay/internal/replay"
	"github.com/lox/handreplay/internal/statistics"
	"github.com/lox/handreplay/poker"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	streetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	showdownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	payoutStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	redCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	headerCellStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
)

// printer renders replayed hands for a terminal.
type printer struct {
	w    io.Writer
	pots bool
}

func newPrinter(w io.Writer, pots bool) *printer {
	return &printer{w: w, pots: pots}
}

// Result prints one pipeline result: the snapshot log and a stack table,
// or the error that stopped the fragment.
func (p *printer) Result(res pipeline.Result) {
	if !res.OK() {
		fmt.Fprintln(p.w, errorStyle.Render(fmt.Sprintf("Hand %d (line %d) failed:", res.Index+1, res.Line)), res.Error)
		fmt.Fprintln(p.w)
		return
	}

	h := res.Hand
	amount := func(v int64) string {
		return money.Format(v, h.Context.NeedsCentsConversion, money.Symbol(h.Currency))
	}

	fmt.Fprintln(p.w, headerStyle.Render(fmt.Sprintf(" %s #%s ", h.Site, h.HandID)))
	for _, s := range res.Snapshots {
		switch s.Kind {
		case replay.KindHandStart:
			fmt.Fprintln(p.w, infoStyle.Render(s.Description))
		case replay.KindStreet:
			line := streetStyle.Render(s.Description)
			if len(s.Board) > 0 {
				name, _, _ := strings.Cut(s.Description, ":")
				line = streetStyle.Render(name+":") + " " + cards(s.Board)
			}
			fmt.Fprintf(p.w, "%s  %s\n", line, infoStyle.Render(potSummary(s, amount)))
		case replay.KindAction:
			line := "  " + actionStyle.Render(s.Description)
			if p.pots {
				line += "  " + infoStyle.Render(potSummary(s, amount))
			}
			fmt.Fprintln(p.w, line)
		case replay.KindShowdown:
			fmt.Fprintln(p.w, showdownStyle.Render(s.Description))
		case replay.KindPayout:
			fmt.Fprintln(p.w, "  "+payoutStyle.Render(s.Description))
		}
	}

	final, ok := replay.Final(res.Snapshots)
	if !ok {
		return
	}
	if final.Rake > 0 {
		fmt.Fprintln(p.w, infoStyle.Render("Rake "+amount(final.Rake)))
	}

	rows := make([][]string, 0, len(h.Players))
	for _, pl := range h.Players {
		if pl.Status == hh.StatusSittingOut {
			continue
		}
		end := final.Stacks[pl.ID]
		net := end - pl.StartingStack
		sign := ""
		if net > 0 {
			sign = "+"
		}
		rows = append(rows, []string{pl.Name, amount(pl.StartingStack), amount(end), sign + amount(net)})
	}
	fmt.Fprintln(p.w, renderTable([]string{"Player", "Start", "Final", "Net"}, rows))
	fmt.Fprintln(p.w)
}

// Summary prints the batch totals.
func (p *printer) Summary(b *pipeline.Batch) {
	failed := b.Failed()
	line := fmt.Sprintf("%d hands replayed", len(b.Results)-failed)
	if failed > 0 {
		line += ", " + errorStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	fmt.Fprintln(p.w, line)
	for _, w := range b.Warnings {
		fmt.Fprintln(p.w, warningStyle.Render("warning:"), w)
	}
}

// Stats prints each player's results in big blinds.
func (p *printer) Stats(l *statistics.Ledger) {
	rows := make([][]string, 0)
	for _, pl := range l.Players() {
		lo, hi := pl.ConfidenceInterval95()
		rows = append(rows, []string{
			pl.Name,
			fmt.Sprint(pl.Hands),
			fmt.Sprintf("%+.2f", pl.SumBB),
			fmt.Sprintf("%+.1f", pl.BBPer100()),
			fmt.Sprintf("%+.2f", pl.ShowdownBB),
			fmt.Sprintf("%+.2f", pl.NonShowdownBB),
			fmt.Sprintf("[%+.2f, %+.2f]", lo, hi),
		})
	}
	fmt.Fprintln(p.w, streetStyle.Render(fmt.Sprintf("Results over %d hands (big blinds)", l.Hands())))
	fmt.Fprintln(p.w, renderTable([]string{"Player", "Hands", "Net", "bb/100", "Showdown", "Non-showdown", "95% CI per hand"}, rows))
}

func potSummary(s replay.Snapshot, amount func(int64) string) string {
	if len(s.Pots) <= 1 {
		return "pot " + amount(s.TotalPot)
	}
	parts := make([]string, len(s.Pots))
	for i, pot := range s.Pots {
		name := "main"
		if i > 0 {
			name = fmt.Sprintf("side %d", i)
		}
		parts[i] = fmt.Sprintf("%s %s (%d)", name, amount(pot.Amount), len(pot.Eligible))
	}
	return "pots " + strings.Join(parts, ", ")
}

func cards(cs []poker.Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		switch c.Suit() {
		case poker.Hearts, poker.Diamonds:
			parts[i] = redCardStyle.Render(c.String())
		default:
			parts[i] = lipgloss.NewStyle().Bold(true).Render(c.String())
		}
	}
	return strings.Join(parts, " ")
}

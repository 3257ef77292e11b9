// Package partypoker parses PartyPoker hand histories.
//
// Party prints bracketed amounts that are the chips added by the action,
// never a street total, and it prints neither uncalled-bet returns nor a
// total-pot line; both are derived.
package partypoker

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lox/handreplay/internal/dialect/builder"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/money"
	"github.com/lox/handreplay/internal/textscan"
	"github.com/lox/handreplay/poker"
)

var (
	headerRe  = regexp.MustCompile(`^\*{5} Hand History [Ff]or Game (\d+) \*{5}$`)
	cashRe    = regexp.MustCompile(`^([$€£]?[\d.,]+)/([$€£]?[\d.,]+)(?: ([A-Z]{3}))? (NL|PL|FL)? ?Texas Hold'em - (.+)$`)
	tourneyRe = regexp.MustCompile(`^(\d[\d,]*)/(\d[\d,]*) Tourney Texas Hold'em Game Table \((NL|PL|FL)\)(?: \(Level \d+\))? - (.+)$`)
	tableRe   = regexp.MustCompile(`^Table\s+(.+?)(?: \((?:Real|Play) Money\))?$`)
	buttonRe  = regexp.MustCompile(`^Seat (\d+) is the button$`)
	countRe   = regexp.MustCompile(`^Total number of players\s*:\s*(\d+)(?:/(\d+))?$`)
	seatRe    = regexp.MustCompile(`^Seat (\d+): (.+?) \(\s*([$€£]?[\d.,]+)(?: [A-Z]{3})?\s*\)$`)

	anteRe    = regexp.MustCompile(`^(.+?) posts ante \[(.+?)\]\.?$`)
	smallRe   = regexp.MustCompile(`^(.+?) posts small blind \[(.+?)\]\.?$`)
	deadBigRe = regexp.MustCompile(`^(.+?) posts big blind \+ dead \[(.+?)\]\.?$`)
	bigRe     = regexp.MustCompile(`^(.+?) posts big blind \[(.+?)\]\.?$`)
	foldRe    = regexp.MustCompile(`^(.+?) folds$`)
	checkRe   = regexp.MustCompile(`^(.+?) checks$`)
	callRe    = regexp.MustCompile(`^(.+?) calls \[(.+?)\]$`)
	betRe     = regexp.MustCompile(`^(.+?) bets \[(.+?)\]$`)
	raiseRe   = regexp.MustCompile(`^(.+?) raises \[(.+?)\]$`)
	allInRe   = regexp.MustCompile(`^(.+?) is all-In\s*\[(.+?)\]$`)
	dealtRe   = regexp.MustCompile(`^Dealt to (.+?) \[\s*(.+?)\s*\]$`)
	streetRe  = regexp.MustCompile(`^\*\* Dealing (Flop|Turn|River) \*\* \[\s*(.+?)\s*\]$`)
	downRe    = regexp.MustCompile(`^\*\* Dealing down cards \*\*$`)
	showRe    = regexp.MustCompile(`^(.+?) shows \[\s*(.+?)\s*\]`)
	noShowRe  = regexp.MustCompile(`^(.+?) (?:doesn't|does not) show(?: \[\s*(.+?)\s*\])?`)
	winsRe    = regexp.MustCompile(`^(.+?) wins ([$€£]?[\d.,]+(?: [A-Z]{3})?)`)

	ignoredRe = regexp.MustCompile(`^(?:.+? (?:has joined the table|has left the table|is sitting out|is disconnected.*|` +
		`has been reconnected|will be using his time bank.*|has \d+ seconds left to act)\.?|` +
		`Game #\d+ starts\.|Table .+ has ended.*|.+?: .*)$`)
)

const timeLayout = "Monday, January 2, 15:04:05 MST 2006"

// Parser implements the PartyPoker dialect.
type Parser struct{}

// SiteName returns the dialect tag.
func (Parser) SiteName() hh.Site { return hh.SitePartyPoker }

// MatchHeader reports whether line is a PartyPoker hand header.
func (Parser) MatchHeader(line string) bool {
	return headerRe.MatchString(strings.TrimSpace(line))
}

// ValidateFormat checks the header and game lines.
func (p Parser) ValidateFormat(fragment string) error {
	cur := textscan.New(fragment)
	line, _ := cur.Next()
	if !p.MatchHeader(line) {
		return &hh.ParseError{Site: hh.SitePartyPoker, Line: 1, Text: line, Reason: "not a PartyPoker header"}
	}
	if next, _ := cur.Peek(); !cashRe.MatchString(next) && !tourneyRe.MatchString(next) {
		return &hh.ParseError{Site: hh.SitePartyPoker, Line: cur.Line(), Text: next, Reason: "missing game line"}
	}
	return nil
}

// DetectGameContext classifies the hand from its game line.
func (Parser) DetectGameContext(fragment string) (hh.GameContext, error) {
	cur := textscan.New(fragment)
	cur.Next()
	line, _ := cur.Peek()
	return gameContext(line)
}

func gameContext(line string) (hh.GameContext, error) {
	if tourneyRe.MatchString(line) {
		return hh.GameContext{Tournament: true, Currency: "chips"}, nil
	}
	m := cashRe.FindStringSubmatch(line)
	if m == nil {
		return hh.GameContext{}, &hh.ParseError{Site: hh.SitePartyPoker, Line: 2, Text: line, Reason: "unrecognized game line"}
	}
	currency := m[3]
	switch {
	case currency != "":
	case strings.HasPrefix(m[1], "$"):
		currency = "USD"
	case strings.HasPrefix(m[1], "€"):
		currency = "EUR"
	case strings.HasPrefix(m[1], "£"):
		currency = "GBP"
	default:
		return hh.GameContext{Currency: "chips"}, nil
	}
	return hh.GameContext{Currency: currency, NeedsCentsConversion: true}, nil
}

func limitOf(code string) hh.BettingLimit {
	switch code {
	case "PL":
		return hh.PotLimit
	case "FL":
		return hh.FixedLimit
	default:
		return hh.NoLimit
	}
}

// Parse converts one fragment into a hand.
func (Parser) Parse(fragment string) (*hh.HandHistory, error) {
	cur := textscan.New(fragment)
	b := builder.New(hh.SitePartyPoker)
	b.SynthesizeReturns = true
	h := b.Hand()

	line, _ := cur.Next()
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return nil, b.Fail(1, line, "not a PartyPoker header", nil)
	}
	h.HandID = m[1]

	lineNo := cur.Line()
	line, _ = cur.Next()
	ctx, err := gameContext(line)
	if err != nil {
		return nil, err
	}
	h.Context = ctx
	cents := ctx.NeedsCentsConversion
	amount := func(s string) (int64, error) { return money.Parse(s, cents) }

	var stamp string
	if g := tourneyRe.FindStringSubmatch(line); g != nil {
		h.SmallBlind, _ = money.Parse(g[1], false)
		h.BigBlind, _ = money.Parse(g[2], false)
		h.BettingLimit = limitOf(g[3])
		stamp = g[4]
	} else {
		g := cashRe.FindStringSubmatch(line)
		if h.SmallBlind, err = amount(g[1]); err != nil {
			return nil, b.Fail(lineNo, line, "bad small blind", err)
		}
		if h.BigBlind, err = amount(g[2]); err != nil {
			return nil, b.Fail(lineNo, line, "bad big blind", err)
		}
		h.BettingLimit = limitOf(g[4])
		stamp = g[5]
	}
	if t, err := time.Parse(timeLayout, stamp); err == nil {
		h.Timestamp = t
	}

	line, _ = cur.Peek()
	t, ok := cur.Match(tableRe)
	if !ok {
		return nil, b.Fail(cur.Line(), line, "missing table line", nil)
	}
	h.TableName = t[1]
	if ctx.Tournament {
		h.Context.TournamentID = strings.Fields(t[1])[0]
	}

	line, _ = cur.Peek()
	btn, ok := cur.Match(buttonRe)
	if !ok {
		return nil, b.Fail(cur.Line(), line, "missing button line", nil)
	}
	h.ButtonSeat, _ = strconv.Atoi(btn[1])
	if c, ok := cur.Match(countRe); ok && c[2] != "" {
		h.MaxPlayers, _ = strconv.Atoi(c[2])
	}

	for {
		lineNo := cur.Line()
		s, ok := cur.Match(seatRe)
		if !ok {
			break
		}
		seat, _ := strconv.Atoi(s[1])
		stack, err := amount(s[3])
		if err != nil {
			return nil, b.Fail(lineNo, s[0], "bad stack", err)
		}
		if err := b.AddPlayer(s[2], seat, stack, false, 0); err != nil {
			return nil, b.Fail(lineNo, s[0], err.Error(), nil)
		}
	}
	if len(h.Players) == 0 {
		line, _ := cur.Peek()
		return nil, b.Fail(cur.Line(), line, "no seat lines", nil)
	}

	// Party prints no summary; the hand ends at the first blank line after
	// the pot is awarded.
	for !(b.Awarded() && cur.AtBlank()) && !cur.Done() {
		lineNo := cur.Line()
		line, _ := cur.Next()
		if err := actionLine(b, line, amount); err != nil {
			return nil, b.Fail(lineNo, line, err.Error(), nil)
		}
	}

	hand, err := b.Finish()
	if err != nil {
		return nil, b.Fail(0, "", "invalid hand", err)
	}
	return hand, nil
}

func actionLine(b *builder.Builder, line string, amount func(string) (int64, error)) error {
	h := b.Hand()
	withAmount := func(m []string, post func(string, int64) error) error {
		v, err := amount(m[2])
		if err != nil {
			return err
		}
		return post(m[1], v)
	}

	// Most specific first: "posts big blind + dead" also matches bigRe's prefix.
	if m := deadBigRe.FindStringSubmatch(line); m != nil {
		return withAmount(m, func(name string, v int64) error {
			dead := min(h.SmallBlind, v)
			if err := b.PostDead(name, dead); err != nil {
				return err
			}
			return b.PostBlind(name, v-dead, false)
		})
	}
	if m := anteRe.FindStringSubmatch(line); m != nil {
		return withAmount(m, func(name string, v int64) error {
			if h.Ante == 0 {
				h.Ante = v
			}
			return b.PostAnte(name, v, false)
		})
	}
	if m := smallRe.FindStringSubmatch(line); m != nil {
		return withAmount(m, func(name string, v int64) error { return b.PostBlind(name, v, false) })
	}
	if m := bigRe.FindStringSubmatch(line); m != nil {
		return withAmount(m, func(name string, v int64) error { return b.PostBlind(name, v, false) })
	}
	if m := foldRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		return b.Fold(m[1], nil)
	}
	if m := checkRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		return b.Check(m[1])
	}
	if m := callRe.FindStringSubmatch(line); m != nil {
		return withAmount(m, func(name string, v int64) error { return b.Call(name, v, false) })
	}
	if m := betRe.FindStringSubmatch(line); m != nil {
		return withAmount(m, func(name string, v int64) error { return b.Bet(name, v, false) })
	}
	if m := raiseRe.FindStringSubmatch(line); m != nil {
		return withAmount(m, func(name string, v int64) error { return b.Wager(name, v, false) })
	}
	if m := allInRe.FindStringSubmatch(line); m != nil {
		return withAmount(m, func(name string, v int64) error { return b.Wager(name, v, true) })
	}
	if m := dealtRe.FindStringSubmatch(line); m != nil {
		cards, err := poker.ParseCards(m[2])
		if err != nil {
			return err
		}
		return b.SetHero(m[1], cards)
	}
	if downRe.MatchString(line) {
		return nil
	}
	if m := streetRe.FindStringSubmatch(line); m != nil {
		board, err := poker.ParseCards(m[2])
		if err != nil {
			return err
		}
		street := map[string]hh.Street{"Flop": hh.Flop, "Turn": hh.Turn, "River": hh.River}[m[1]]
		return b.StartStreet(street, board)
	}
	if m := showRe.FindStringSubmatch(line); m != nil {
		cards, err := poker.ParseCards(m[2])
		if err != nil {
			return err
		}
		if err := enterShowdown(b); err != nil {
			return err
		}
		return b.Show(m[1], cards)
	}
	if m := noShowRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		if m[2] == "" {
			return nil
		}
		if err := enterShowdown(b); err != nil {
			return err
		}
		return b.Muck(m[1])
	}
	if m := winsRe.FindStringSubmatch(line); m != nil {
		if !b.Known(m[1]) {
			return fmt.Errorf("winnings for unknown player %q", m[1])
		}
		return withAmount(m, b.Collected)
	}
	if ignoredRe.MatchString(line) {
		return nil
	}
	return errors.New("unrecognized line")
}

func enterShowdown(b *builder.Builder) error {
	if b.CurrentStreet() == hh.Showdown {
		return nil
	}
	return b.StartStreet(hh.Showdown, nil)
}

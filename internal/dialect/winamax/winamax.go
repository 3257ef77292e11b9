// Package winamax parses Winamax hand histories.
package winamax

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
	headerRe = regexp.MustCompile(`^Winamax Poker - (.+?) - HandId: #([\d-]+) - (.+?) \(([^)]+)\) - (\d{4}/\d{2}/\d{2} \d{1,2}:\d{2}:\d{2})`)
	tableRe  = regexp.MustCompile(`^Table: '([^']+)' (\d+)-max \((?:real|play) money\) Seat #(\d+) is the button$`)
	seatRe   = regexp.MustCompile(`^Seat (\d+): (.+) \(([\d.,]+€?)(?:, ([\d.,]+€?) bounty)?\)$`)

	anteRe    = regexp.MustCompile(`^(.+?) posts ante (\S+)( and is all-in)?$`)
	blindRe   = regexp.MustCompile(`^(.+?) posts (?:small|big) blind (\S+)( and is all-in)?$`)
	foldRe    = regexp.MustCompile(`^(.+?) folds$`)
	checkRe   = regexp.MustCompile(`^(.+?) checks$`)
	callRe    = regexp.MustCompile(`^(.+?) calls (\S+)( and is all-in)?$`)
	betRe     = regexp.MustCompile(`^(.+?) bets (\S+)( and is all-in)?$`)
	raiseRe   = regexp.MustCompile(`^(.+?) raises \S+ to (\S+)( and is all-in)?$`)
	showRe    = regexp.MustCompile(`^(.+?) shows \[([^\]]+)\]`)
	collectRe = regexp.MustCompile(`^(.+?) collected (\S+) from (?:main |side )?pot(?: \d+)?$`)
	dealtRe   = regexp.MustCompile(`^Dealt to (.+?) \[([^\]]+)\]$`)

	flopRe  = regexp.MustCompile(`^\*\*\* FLOP \*\*\* \[([^\]]+)\]$`)
	laterRe = regexp.MustCompile(`^\*\*\* (TURN|RIVER) \*\*\* \[[^\]]+\]\s*\[([^\]]+)\]$`)

	totalPotRe = regexp.MustCompile(`^Total pot (\S+) \| (?:No rake|Rake (\S+))`)
	boardRe    = regexp.MustCompile(`^Board: \[([^\]]*)\]$`)
	seatSumRe  = regexp.MustCompile(`^Seat (\d+): (.*)$`)
	sumShowRe  = regexp.MustCompile(`showed \[([^\]]+)\]`)
	sumWonRe   = regexp.MustCompile(`won (\S+)`)
)

// Parser implements the Winamax dialect.
type Parser struct{}

// SiteName returns the dialect tag.
func (Parser) SiteName() hh.Site { return hh.SiteWinamax }

// MatchHeader reports whether line is a Winamax hand header.
func (Parser) MatchHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "Winamax Poker - ")
}

// ValidateFormat checks the header and table lines.
func (p Parser) ValidateFormat(fragment string) error {
	cur := textscan.New(fragment)
	line, _ := cur.Next()
	if !headerRe.MatchString(line) {
		return &hh.ParseError{Site: hh.SiteWinamax, Line: 1, Text: line, Reason: "not a Winamax header"}
	}
	if next, _ := cur.Peek(); !tableRe.MatchString(next) {
		return &hh.ParseError{Site: hh.SiteWinamax, Line: cur.Line(), Text: next, Reason: "missing table line"}
	}
	return nil
}

// DetectGameContext classifies the hand from its header.
func (Parser) DetectGameContext(fragment string) (hh.GameContext, error) {
	line, _ := textscan.New(fragment).Next()
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return hh.GameContext{}, &hh.ParseError{Site: hh.SiteWinamax, Line: 1, Text: line, Reason: "not a Winamax header"}
	}
	return gameContext(m[1], m[4]), nil
}

func gameContext(mode, stakes string) hh.GameContext {
	if strings.HasPrefix(mode, "Tournament") {
		id := ""
		if i := strings.Index(mode, `"`); i >= 0 {
			if j := strings.Index(mode[i+1:], `"`); j >= 0 {
				id = mode[i+1 : i+1+j]
			}
		}
		return hh.GameContext{Tournament: true, Currency: "chips", TournamentID: id}
	}
	if strings.Contains(stakes, "€") || strings.Contains(stakes, ".") {
		return hh.GameContext{Currency: "EUR", NeedsCentsConversion: true}
	}
	return hh.GameContext{Currency: "chips"}
}

func parseGame(s string) (hh.GameType, hh.BettingLimit, error) {
	s = strings.ToLower(s)
	if !strings.HasPrefix(s, "holdem") {
		return "", "", fmt.Errorf("unsupported game %q", s)
	}
	switch {
	case strings.Contains(s, "no limit"):
		return hh.HoldEm, hh.NoLimit, nil
	case strings.Contains(s, "pot limit"):
		return hh.HoldEm, hh.PotLimit, nil
	case strings.Contains(s, "limit"):
		return hh.HoldEm, hh.FixedLimit, nil
	}
	return "", "", fmt.Errorf("unknown betting structure %q", s)
}

// Parse converts one fragment into a hand.
func (Parser) Parse(fragment string) (*hh.HandHistory, error) {
	cur := textscan.New(fragment)
	b := builder.New(hh.SiteWinamax)
	b.SynthesizeReturns = true
	h := b.Hand()

	line, _ := cur.Next()
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return nil, b.Fail(1, line, "not a Winamax header", nil)
	}
	h.HandID = m[2]
	h.Context = gameContext(m[1], m[4])
	cents := h.Context.NeedsCentsConversion
	amount := func(s string) (int64, error) { return money.Parse(s, cents) }

	var err error
	if h.GameType, h.BettingLimit, err = parseGame(m[3]); err != nil {
		return nil, b.Fail(1, line, err.Error(), nil)
	}
	stakes := strings.Split(m[4], "/")
	if len(stakes) < 2 || len(stakes) > 3 {
		return nil, b.Fail(1, line, "bad stakes", nil)
	}
	if len(stakes) == 3 {
		if h.Ante, err = amount(stakes[0]); err != nil {
			return nil, b.Fail(1, line, "bad ante", err)
		}
		stakes = stakes[1:]
	}
	if h.SmallBlind, err = amount(stakes[0]); err != nil {
		return nil, b.Fail(1, line, "bad small blind", err)
	}
	if h.BigBlind, err = amount(stakes[1]); err != nil {
		return nil, b.Fail(1, line, "bad big blind", err)
	}
	if t, err := time.Parse("2006/01/02 15:04:05", m[5]); err == nil {
		h.Timestamp = t
	}

	line, _ = cur.Peek()
	t, ok := cur.Match(tableRe)
	if !ok {
		return nil, b.Fail(cur.Line(), line, "missing table line", nil)
	}
	h.TableName = t[1]
	h.MaxPlayers, _ = strconv.Atoi(t[2])
	h.ButtonSeat, _ = strconv.Atoi(t[3])

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
		var bounty int64
		if s[4] != "" {
			if bounty, err = money.Parse(s[4], true); err != nil {
				return nil, b.Fail(lineNo, s[0], "bad bounty", err)
			}
		}
		if err := b.AddPlayer(s[2], seat, stack, false, bounty); err != nil {
			return nil, b.Fail(lineNo, s[0], err.Error(), nil)
		}
	}
	if len(h.Players) == 0 {
		line, _ := cur.Peek()
		return nil, b.Fail(cur.Line(), line, "no seat lines", nil)
	}

	// The summary ends at the first blank line; anything after it belongs
	// to some other export.
	summary := false
	for !(summary && cur.AtBlank()) && !cur.Done() {
		lineNo := cur.Line()
		line, _ := cur.Next()
		var err error
		if summary {
			err = summaryLine(b, line, amount)
		} else {
			summary, err = actionLine(b, line, amount)
		}
		if err != nil {
			return nil, b.Fail(lineNo, line, err.Error(), nil)
		}
	}

	hand, err := b.Finish()
	if err != nil {
		return nil, b.Fail(0, "", "invalid hand", err)
	}
	return hand, nil
}

func actionLine(b *builder.Builder, line string, amount func(string) (int64, error)) (bool, error) {
	h := b.Hand()
	switch line {
	case "*** ANTE/BLINDS ***", "*** PRE-FLOP ***":
		return false, nil
	case "*** SHOW DOWN ***":
		return false, b.StartStreet(hh.Showdown, nil)
	case "*** SUMMARY ***":
		return true, nil
	}
	if m := flopRe.FindStringSubmatch(line); m != nil {
		board, err := poker.ParseCards(m[1])
		if err != nil {
			return false, err
		}
		return false, b.StartStreet(hh.Flop, board)
	}
	if m := laterRe.FindStringSubmatch(line); m != nil {
		board, err := poker.ParseCards(m[2])
		if err != nil {
			return false, err
		}
		street := hh.Turn
		if m[1] == "RIVER" {
			street = hh.River
		}
		return false, b.StartStreet(street, board)
	}

	wager := func(m []string, i int, act func(string, int64, bool) error) error {
		v, err := amount(m[i])
		if err != nil {
			return err
		}
		return act(m[1], v, m[i+1] != "")
	}
	if m := anteRe.FindStringSubmatch(line); m != nil {
		return false, wager(m, 2, b.PostAnte)
	}
	if m := blindRe.FindStringSubmatch(line); m != nil {
		return false, wager(m, 2, b.PostBlind)
	}
	if m := dealtRe.FindStringSubmatch(line); m != nil {
		cards, err := poker.ParseCards(m[2])
		if err != nil {
			return false, err
		}
		if h.Hero == "" {
			return false, b.SetHero(m[1], cards)
		}
		return false, b.Reveal(m[1], cards)
	}
	if m := raiseRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		return false, wager(m, 2, b.RaiseTo)
	}
	if m := callRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		return false, wager(m, 2, b.Call)
	}
	if m := betRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		return false, wager(m, 2, b.Bet)
	}
	if m := foldRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		return false, b.Fold(m[1], nil)
	}
	if m := checkRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		return false, b.Check(m[1])
	}
	if m := showRe.FindStringSubmatch(line); m != nil && b.Known(m[1]) {
		cards, err := poker.ParseCards(m[2])
		if err != nil {
			return false, err
		}
		return false, b.Show(m[1], cards)
	}
	if m := collectRe.FindStringSubmatch(line); m != nil {
		v, err := amount(m[2])
		if err != nil {
			return false, err
		}
		return false, b.Collected(m[1], v)
	}
	return false, errors.New("unrecognized line")
}

func summaryLine(b *builder.Builder, line string, amount func(string) (int64, error)) error {
	h := b.Hand()
	if m := totalPotRe.FindStringSubmatch(line); m != nil {
		total, err := amount(m[1])
		if err != nil {
			return err
		}
		b.SetTotalPot(total)
		var rake int64
		if m[2] != "" {
			if rake, err = amount(m[2]); err != nil {
				return err
			}
		}
		b.SetRake(rake)
		return nil
	}
	if m := boardRe.FindStringSubmatch(line); m != nil {
		board, err := poker.ParseCards(m[1])
		if err != nil {
			return err
		}
		if poker.NewHand(board...) != poker.NewHand(h.Board()...) {
			return fmt.Errorf("summary board %s does not match dealt board", poker.FormatCards(board))
		}
		return nil
	}
	if m := seatSumRe.FindStringSubmatch(line); m != nil {
		seat, _ := strconv.Atoi(m[1])
		for _, p := range h.Players {
			if p.Seat != seat || !strings.HasPrefix(m[2], p.Name) {
				continue
			}
			rest := m[2][len(p.Name):]
			if s := sumShowRe.FindStringSubmatch(rest); s != nil {
				cards, err := poker.ParseCards(s[1])
				if err != nil {
					return err
				}
				if err := b.Reveal(p.Name, cards); err != nil {
					return err
				}
			}
			if w := sumWonRe.FindStringSubmatch(rest); w != nil {
				v, err := amount(w[1])
				if err != nil {
					return err
				}
				return b.SummaryWon(p.Name, v)
			}
			return nil
		}
		return fmt.Errorf("summary for empty seat %d", seat)
	}
	return nil
}

// Package ggpoker parses GGPoker hand histories. GGPoker exports use the
// PokerStars table layout behind their own header line, with extra house
// take fields (jackpot, bingo, fortune, tax) in the summary.
package ggpoker

import (
	"regexp"
	"strings"

	"github.com/lox/handreplay/internal/dialect/builder"
	"github.com/lox/handreplay/internal/dialect/pokerstars"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/money"
	"github.com/lox/handreplay/internal/textscan"
)

var (
	headerRe     = regexp.MustCompile(`^Poker Hand #([A-Z]{0,3}\d+):\s+(.*)$`)
	levelRe      = regexp.MustCompile(`Level\s*\d+\s*\((\d[\d,]*)/(\d[\d,]*)(?:\((\d[\d,]*)\))?\)`)
	cashStakesRe = regexp.MustCompile(`\(([$€£]?[\d.,]+)/([$€£]?[\d.,]+)\)`)
	tableLineRe  = regexp.MustCompile(`^Table '[^']+' \d+-max`)
)

// Parser implements the GGPoker dialect.
type Parser struct{}

// SiteName returns the dialect tag.
func (Parser) SiteName() hh.Site { return hh.SiteGGPoker }

// MatchHeader reports whether line is a GGPoker hand header.
func (Parser) MatchHeader(line string) bool {
	return headerRe.MatchString(strings.TrimSpace(line))
}

// ValidateFormat checks the header and table lines.
func (p Parser) ValidateFormat(fragment string) error {
	cur := textscan.New(fragment)
	line, _ := cur.Next()
	if !p.MatchHeader(line) {
		return &hh.ParseError{Site: hh.SiteGGPoker, Line: 1, Text: line, Reason: "not a GGPoker header"}
	}
	if next, _ := cur.Peek(); !tableLineRe.MatchString(next) {
		return &hh.ParseError{Site: hh.SiteGGPoker, Line: cur.Line(), Text: next, Reason: "missing table line"}
	}
	return nil
}

// DetectGameContext classifies the hand from its header.
func (Parser) DetectGameContext(fragment string) (hh.GameContext, error) {
	line, _ := textscan.New(fragment).Next()
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return hh.GameContext{}, &hh.ParseError{Site: hh.SiteGGPoker, Line: 1, Text: line, Reason: "not a GGPoker header"}
	}
	return pokerstars.GameContext(m[2]), nil
}

// Parse converts one fragment into a hand.
func (Parser) Parse(fragment string) (*hh.HandHistory, error) {
	cur := textscan.New(fragment)
	b := builder.New(hh.SiteGGPoker)
	h := b.Hand()

	line, _ := cur.Next()
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return nil, b.Fail(1, line, "not a GGPoker header", nil)
	}
	h.HandID = m[1]
	h.Context = pokerstars.GameContext(m[2])
	h.Timestamp = pokerstars.ParseTimestamp(m[2])

	var err error
	if h.GameType, h.BettingLimit, err = pokerstars.ParseGame(m[2]); err != nil {
		return nil, b.Fail(1, line, err.Error(), nil)
	}
	cents := h.Context.NeedsCentsConversion
	switch {
	case levelRe.MatchString(m[2]):
		lv := levelRe.FindStringSubmatch(m[2])
		h.SmallBlind, _ = money.Parse(lv[1], false)
		h.BigBlind, _ = money.Parse(lv[2], false)
		if lv[3] != "" {
			h.Ante, _ = money.Parse(lv[3], false)
		}
	case cashStakesRe.MatchString(m[2]):
		s := cashStakesRe.FindStringSubmatch(m[2])
		if h.SmallBlind, err = money.Parse(s[1], cents); err != nil {
			return nil, b.Fail(1, line, "bad small blind", err)
		}
		if h.BigBlind, err = money.Parse(s[2], cents); err != nil {
			return nil, b.Fail(1, line, "bad big blind", err)
		}
	default:
		return nil, b.Fail(1, line, "missing stakes", nil)
	}

	if err := pokerstars.ParseTable(cur, b, cents); err != nil {
		return nil, err
	}
	hand, err := b.Finish()
	if err != nil {
		return nil, b.Fail(0, "", "invalid hand", err)
	}
	return hand, nil
}

// Package pokerstars parses PokerStars hand histories, cash and
// tournament.
package pokerstars

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lox/handreplay/internal/dialect/builder"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/money"
	"github.com/lox/handreplay/internal/textscan"
)

var (
	headerRe     = regexp.MustCompile(`^PokerStars (?:Zoom |Home Game )?Hand #(\d+):\s+(.*)$`)
	tournamentRe = regexp.MustCompile(`Tournament #(\d+)`)
	cashStakesRe = regexp.MustCompile(`\(([$€£]?[\d.,]+)/([$€£]?[\d.,]+)(?: ([A-Z]{3}))?\)`)
	levelRe      = regexp.MustCompile(`Level [IVXLCDM\d]+ \((\d[\d,]*)/(\d[\d,]*)\)`)
	timestampRe  = regexp.MustCompile(`\d{4}/\d{2}/\d{2} \d{1,2}:\d{2}:\d{2}`)
)

const timeLayout = "2006/01/02 15:04:05"

// Parser implements the PokerStars dialect.
type Parser struct{}

// SiteName returns the dialect tag.
func (Parser) SiteName() hh.Site { return hh.SitePokerStars }

// MatchHeader reports whether line is a PokerStars hand header.
func (Parser) MatchHeader(line string) bool {
	return headerRe.MatchString(strings.TrimSpace(line))
}

// ValidateFormat checks the header and table lines without parsing the body.
func (p Parser) ValidateFormat(fragment string) error {
	cur := textscan.New(fragment)
	line, _ := cur.Next()
	if !p.MatchHeader(line) {
		return &hh.ParseError{Site: hh.SitePokerStars, Line: 1, Text: line, Reason: "not a PokerStars header"}
	}
	if next, _ := cur.Peek(); !tableRe.MatchString(next) {
		return &hh.ParseError{Site: hh.SitePokerStars, Line: cur.Line(), Text: next, Reason: "missing table line"}
	}
	return nil
}

// DetectGameContext classifies the hand from its header.
func (Parser) DetectGameContext(fragment string) (hh.GameContext, error) {
	line, _ := textscan.New(fragment).Next()
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return hh.GameContext{}, &hh.ParseError{Site: hh.SitePokerStars, Line: 1, Text: line, Reason: "not a PokerStars header"}
	}
	return GameContext(m[2]), nil
}

// GameContext classifies a header in the PokerStars layout. Tournaments
// and play-money tables count chips; anything priced in a currency is
// converted to cents.
func GameContext(header string) hh.GameContext {
	if t := tournamentRe.FindStringSubmatch(header); t != nil {
		return hh.GameContext{Tournament: true, Currency: "chips", TournamentID: t[1]}
	}
	s := cashStakesRe.FindStringSubmatch(header)
	if s == nil {
		return hh.GameContext{Currency: "chips"}
	}
	currency := s[3]
	if currency == "" {
		currency = currencyOf(s[1])
	}
	if currency == "" && !strings.Contains(s[1]+s[2], ".") {
		return hh.GameContext{Currency: "chips"}
	}
	return hh.GameContext{Currency: currency, NeedsCentsConversion: true}
}

func currencyOf(amount string) string {
	switch {
	case strings.HasPrefix(amount, "$"):
		return "USD"
	case strings.HasPrefix(amount, "€"), strings.HasSuffix(amount, "€"):
		return "EUR"
	case strings.HasPrefix(amount, "£"):
		return "GBP"
	}
	return ""
}

// ParseGame reads the variant and betting structure from header text.
func ParseGame(header string) (hh.GameType, hh.BettingLimit, error) {
	var game hh.GameType
	switch {
	case strings.Contains(header, "Hold'em"), strings.Contains(header, "Holdem"):
		game = hh.HoldEm
	default:
		return "", "", fmt.Errorf("unsupported game in %q", header)
	}
	switch {
	case strings.Contains(header, "No Limit"):
		return game, hh.NoLimit, nil
	case strings.Contains(header, "Pot Limit"):
		return game, hh.PotLimit, nil
	case strings.Contains(header, "Limit"):
		return game, hh.FixedLimit, nil
	}
	return "", "", fmt.Errorf("unknown betting structure in %q", header)
}

// ParseTimestamp reads the first date in the header. Room time zones are
// not normalized; the value is stored as UTC wall time.
func ParseTimestamp(header string) time.Time {
	s := timestampRe.FindString(header)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Parse converts one fragment into a hand.
func (Parser) Parse(fragment string) (*hh.HandHistory, error) {
	cur := textscan.New(fragment)
	b := builder.New(hh.SitePokerStars)
	h := b.Hand()

	line, _ := cur.Next()
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return nil, b.Fail(1, line, "not a PokerStars header", nil)
	}
	h.HandID = m[1]
	h.Context = GameContext(m[2])
	h.Timestamp = ParseTimestamp(m[2])

	var err error
	if h.GameType, h.BettingLimit, err = ParseGame(m[2]); err != nil {
		return nil, b.Fail(1, line, err.Error(), nil)
	}
	cents := h.Context.NeedsCentsConversion
	if lv := levelRe.FindStringSubmatch(m[2]); lv != nil {
		h.SmallBlind, _ = money.Parse(lv[1], false)
		h.BigBlind, _ = money.Parse(lv[2], false)
	} else if s := cashStakesRe.FindStringSubmatch(m[2]); s != nil {
		if h.SmallBlind, err = money.Parse(s[1], cents); err != nil {
			return nil, b.Fail(1, line, "bad small blind", err)
		}
		if h.BigBlind, err = money.Parse(s[2], cents); err != nil {
			return nil, b.Fail(1, line, "bad big blind", err)
		}
	} else {
		return nil, b.Fail(1, line, "missing stakes", nil)
	}

	if err := ParseTable(cur, b, cents); err != nil {
		return nil, err
	}
	hand, err := b.Finish()
	if err != nil {
		return nil, b.Fail(0, "", "invalid hand", err)
	}
	return hand, nil
}

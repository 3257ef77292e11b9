// Package dialect detects which card room exported a hand history and
// dispatches it to that room's parser.
//
// Detection is a pure function of the header line. The registry is a
// static, ordered list; the first parser whose header pattern matches
// wins, and a header nobody recognizes is reported as unsupported rather
// than guessed.
package dialect

import (
	"github.com/lox/handreplay/internal/dialect/ggpoker"
	"github.com/lox/handreplay/internal/dialect/partypoker"
	"github.com/lox/handreplay/internal/dialect/pokerstars"
	"github.com/lox/handreplay/internal/dialect/winamax"
	hh "github.com/lox/handreplay/internal/handhistory"
	"github.com/lox/handreplay/internal/textscan"
)

// Parser is implemented once per supported dialect.
type Parser interface {
	// SiteName returns the dialect tag.
	SiteName() hh.Site
	// MatchHeader reports whether a line is this dialect's hand header.
	MatchHeader(line string) bool
	// ValidateFormat checks the fragment's framing without parsing the body.
	ValidateFormat(fragment string) error
	// DetectGameContext classifies tournament or cash play and whether
	// amounts need converting to cents.
	DetectGameContext(fragment string) (hh.GameContext, error)
	// Parse converts a whole fragment or fails without a partial result.
	Parse(fragment string) (*hh.HandHistory, error)
}

var registry = []Parser{
	pokerstars.Parser{},
	ggpoker.Parser{},
	partypoker.Parser{},
	winamax.Parser{},
}

// Parsers returns the registered parsers in detection order.
func Parsers() []Parser {
	out := make([]Parser, len(registry))
	copy(out, registry)
	return out
}

// IsHeader reports whether line starts a hand in any supported dialect.
func IsHeader(line string) bool {
	_, ok := match(line)
	return ok
}

// Detect maps a header line to its dialect tag.
func Detect(header string) (hh.Site, error) {
	p, ok := match(header)
	if !ok {
		return hh.SiteUnknown, &hh.UnsupportedDialectError{Header: header}
	}
	return p.SiteName(), nil
}

// ForSite returns the parser registered for a site.
func ForSite(site hh.Site) (Parser, bool) {
	for _, p := range registry {
		if p.SiteName() == site {
			return p, true
		}
	}
	return nil, false
}

// Parse detects the fragment's dialect from its first line and parses it.
// The site is returned even when parsing fails, so callers can report it.
func Parse(fragment string) (hh.Site, *hh.HandHistory, error) {
	header, _ := textscan.New(fragment).Peek()
	p, ok := match(header)
	if !ok {
		return hh.SiteUnknown, nil, &hh.UnsupportedDialectError{Header: header}
	}
	if err := p.ValidateFormat(fragment); err != nil {
		return p.SiteName(), nil, err
	}
	hand, err := p.Parse(fragment)
	if err != nil {
		return p.SiteName(), nil, err
	}
	return p.SiteName(), hand, nil
}

func match(line string) (Parser, bool) {
	for _, p := range registry {
		if p.MatchHeader(line) {
			return p, true
		}
	}
	return nil, false
}

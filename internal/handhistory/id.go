package handhistory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PlayerID is the canonical key for a player within one hand. It is
// produced once, at parse time, by NewPlayerID; every later lookup uses the
// id as-is.
type PlayerID string

// NewPlayerID normalizes a screen name: surrounding whitespace is trimmed,
// the text is put into Unicode NFC form and case-folded.
func NewPlayerID(name string) PlayerID {
	s := norm.NFC.String(strings.TrimSpace(name))
	// A Caser holds state, so parsers running in parallel each get their own.
	return PlayerID(cases.Fold().String(s))
}

// String returns the id text.
func (id PlayerID) String() string {
	return string(id)
}

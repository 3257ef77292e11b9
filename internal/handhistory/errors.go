package handhistory

import (
	"errors"
	"fmt"
)

// ErrUnsupportedDialect is wrapped by UnsupportedDialectError.
var ErrUnsupportedDialect = errors.New("unsupported format")

// SplitError reports a fragment that was dropped while splitting a batch.
type SplitError struct {
	Index  int // zero-based fragment position in the input, -1 outside any fragment
	Line   int // one-based line where the fragment starts
	Reason string
}

func (e *SplitError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("fragment %d (line %d): %s", e.Index+1, e.Line, e.Reason)
}

// UnsupportedDialectError reports a fragment whose header no dialect recognizes.
// Index and Line are set when the splitter found the fragment in a batch.
type UnsupportedDialectError struct {
	Index  int // zero-based fragment position in the input
	Line   int // one-based line of the header, 0 when not from a batch
	Header string
}

func (e *UnsupportedDialectError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("fragment %d (line %d): %s: %q", e.Index+1, e.Line, ErrUnsupportedDialect, e.Header)
	}
	return fmt.Sprintf("%s: %q", ErrUnsupportedDialect, e.Header)
}

func (e *UnsupportedDialectError) Unwrap() error {
	return ErrUnsupportedDialect
}

// ParseError reports that a recognized dialect's grammar did not match.
type ParseError struct {
	Site   Site
	HandID string
	Line   int // one-based line within the fragment, 0 if unknown
	Text   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s parse error", e.Site)
	if e.HandID != "" {
		msg += " in hand " + e.HandID
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	msg += ": " + e.Reason
	if e.Text != "" {
		msg += fmt.Sprintf(" (%q)", e.Text)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReplayInconsistencyError reports that a hand's money cannot be reconciled.
// Callers must treat it as a hard failure for that hand.
type ReplayInconsistencyError struct {
	HandID string
	Index  int // snapshot index where the problem surfaced, -1 if global
	Reason string
}

func (e *ReplayInconsistencyError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("replay inconsistency in hand %s at step %d: %s", e.HandID, e.Index, e.Reason)
	}
	return fmt.Sprintf("replay inconsistency in hand %s: %s", e.HandID, e.Reason)
}

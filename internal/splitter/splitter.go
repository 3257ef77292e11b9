// Package splitter cuts a multi-hand export into single-hand fragments.
//
// A fragment starts at any line that a registered dialect recognizes as a
// hand header and runs until the line before the next header. A block
// that opens like a hand from an unknown room also ends the fragment
// before it and is reported on its own. Fragments
// that are too short or that lack a table or seat declaration are dropped
// and reported; the rest of the batch is unaffected.
package splitter

import (
	"regexp"
	"strings"

	"github.com/lox/handreplay/internal/dialect"
	hh "github.com/lox/handreplay/internal/handhistory"
)

// DefaultMinBytes is the smallest fragment considered a plausible hand.
const DefaultMinBytes = 100

var (
	tableLineRe = regexp.MustCompile(`^Table[\s:]`)
	seatLineRe  = regexp.MustCompile(`^Seat \d+:`)

	// handStartRe recognizes the opening line of a hand from a room with
	// no registered dialect, such as "#Game No : 123" or "GAME #123:".
	handStartRe = regexp.MustCompile(`(?i)^(?:#\s*game\s+no\b|.*\b(?:game|hand)\s*(?:#|no\.?\s*:|id\s*:)\s*[a-z]*\d{4,})`)
)

// Fragment is the raw text of one hand.
type Fragment struct {
	Index int     // zero-based position among the headers found
	Line  int     // one-based line of the header in the input
	Site  hh.Site // dialect that recognized the header
	Text  string  // fragment text without surrounding whitespace
}

// Options tunes the structural checks.
type Options struct {
	// MinBytes rejects shorter fragments. Zero means DefaultMinBytes.
	MinBytes int
}

// Split cuts text with the default options.
func Split(text string) ([]Fragment, []error) {
	return SplitWith(text, Options{})
}

// SplitWith cuts text into fragments. It never fails as a whole: every
// rejected piece becomes a *handhistory.SplitError, and every hand from a
// room no dialect recognizes becomes a *handhistory.UnsupportedDialectError.
func SplitWith(text string, opts Options) ([]Fragment, []error) {
	minBytes := opts.MinBytes
	if minBytes <= 0 {
		minBytes = DefaultMinBytes
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(text, "\n")

	var (
		fragments   []Fragment
		errs        []error
		start       = -1
		unsupported bool
		index       int
		stray       = -1
		skip        = -1 // lines before a header in the same block
		blank       = true
	)
	flush := func(end int) {
		if start < 0 {
			return
		}
		if unsupported {
			header := strings.TrimSpace(lines[start])
			errs = append(errs, &hh.UnsupportedDialectError{Index: index, Line: start + 1, Header: header})
		} else if frag, err := check(lines[start:end], index, start+1, minBytes); err != nil {
			errs = append(errs, err)
		} else {
			fragments = append(fragments, frag)
		}
		start = -1
		index++
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		first := blank && trimmed != ""
		blank = trimmed == ""

		switch {
		case dialect.IsHeader(trimmed):
			flush(i)
			start, unsupported = i, false
			continue
		case first && handStartRe.MatchString(trimmed) && headerInBlock(lines[i+1:]):
			// Preamble such as "#Game No : 123" above a supported header.
			flush(i)
			skip = i
			continue
		case first && handStartRe.MatchString(trimmed):
			flush(i)
			start, unsupported = i, true
			continue
		}
		if start < 0 && trimmed != "" && stray < 0 && !inBlock(lines, skip, i) {
			stray = i
		}
	}
	flush(len(lines))

	if stray >= 0 {
		reason := "text before the first hand header was ignored"
		if index == 0 {
			reason = "no supported hand header found"
		}
		errs = append([]error{&hh.SplitError{Index: -1, Line: stray + 1, Reason: reason}}, errs...)
	}
	return fragments, errs
}

// headerInBlock reports whether a supported header appears before the
// next blank line.
func headerInBlock(lines []string) bool {
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			return false
		}
		if dialect.IsHeader(l) {
			return true
		}
	}
	return false
}

// inBlock reports whether line i is in the block that starts at line from.
func inBlock(lines []string, from, i int) bool {
	if from < 0 || i < from {
		return false
	}
	for _, l := range lines[from:i] {
		if strings.TrimSpace(l) == "" {
			return false
		}
	}
	return true
}

func check(lines []string, index, lineNo, minBytes int) (Fragment, error) {
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	fail := func(reason string) (Fragment, error) {
		return Fragment{}, &hh.SplitError{Index: index, Line: lineNo, Reason: reason}
	}
	if len(text) < minBytes {
		return fail("fragment is too short to be a hand")
	}

	var table, seat bool
	for _, l := range lines {
		l = strings.TrimSpace(l)
		table = table || tableLineRe.MatchString(l)
		seat = seat || seatLineRe.MatchString(l)
	}
	switch {
	case !table && !seat:
		return fail("fragment has no table or seat lines")
	case !table:
		return fail("fragment has no table line")
	case !seat:
		return fail("fragment has no seat lines")
	}

	site, _ := dialect.Detect(strings.TrimSpace(lines[0]))
	return Fragment{Index: index, Line: lineNo, Site: site, Text: text}, nil
}

// Package textscan provides a line cursor for hand-history grammars.
//
// The cursor owns its position; parsers never index the line slice
// directly, so a line can only be consumed once and never skipped by
// accident.
package textscan

import (
	"regexp"
	"strings"
)

// Cursor walks the lines of one fragment.
type Cursor struct {
	lines []string
	pos   int
}

// New splits text into trimmed lines. Blank lines are kept so that line
// numbers in errors match the source.
func New(text string) *Cursor {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return &Cursor{lines: lines}
}

// Done reports whether every line has been consumed.
func (c *Cursor) Done() bool {
	c.skipBlank()
	return c.pos >= len(c.lines)
}

// AtBlank reports whether the next line is blank. A blank line ends the
// current block; Done, Peek and Next skip over it.
func (c *Cursor) AtBlank() bool {
	return c.pos < len(c.lines) && c.lines[c.pos] == ""
}

// Line returns the one-based number of the next line.
func (c *Cursor) Line() int {
	return c.pos + 1
}

// Peek returns the next non-blank line without consuming it.
func (c *Cursor) Peek() (string, bool) {
	c.skipBlank()
	if c.pos >= len(c.lines) {
		return "", false
	}
	return c.lines[c.pos], true
}

// Next consumes and returns the next non-blank line.
func (c *Cursor) Next() (string, bool) {
	line, ok := c.Peek()
	if ok {
		c.pos++
	}
	return line, ok
}

// Match consumes the next line if it matches re and returns the submatches.
func (c *Cursor) Match(re *regexp.Regexp) ([]string, bool) {
	line, ok := c.Peek()
	if !ok {
		return nil, false
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	c.pos++
	return m, true
}

// HasPrefix consumes the next line if it starts with prefix.
func (c *Cursor) HasPrefix(prefix string) (string, bool) {
	line, ok := c.Peek()
	if !ok || !strings.HasPrefix(line, prefix) {
		return "", false
	}
	c.pos++
	return line, true
}

// Remaining returns the unconsumed non-blank lines without moving.
func (c *Cursor) Remaining() []string {
	var out []string
	for _, l := range c.lines[min(c.pos, len(c.lines)):] {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func (c *Cursor) skipBlank() {
	for c.pos < len(c.lines) && c.lines[c.pos] == "" {
		c.pos++
	}
}

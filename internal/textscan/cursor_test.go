package textscan

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorWalksNonBlankLines(t *testing.T) {
	t.Parallel()

	c := New("\ufeffHeader line\r\n\r\n  Seat 1: Hero  \nSeat 2: Villain\n\n")

	line, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, "Header line", line)

	line, ok = c.Peek()
	require.True(t, ok)
	assert.Equal(t, "Seat 1: Hero", line)
	assert.Equal(t, 3, c.Line())

	seat := regexp.MustCompile(`^Seat (\d+): (.+)$`)
	m, ok := c.Match(seat)
	require.True(t, ok)
	assert.Equal(t, []string{"Seat 1: Hero", "1", "Hero"}, m)

	assert.Equal(t, []string{"Seat 2: Villain"}, c.Remaining())

	_, ok = c.HasPrefix("Table")
	assert.False(t, ok)
	line, ok = c.HasPrefix("Seat")
	require.True(t, ok)
	assert.Equal(t, "Seat 2: Villain", line)

	assert.True(t, c.Done())
	_, ok = c.Next()
	assert.False(t, ok)
	_, ok = c.Match(seat)
	assert.False(t, ok)
}

func TestCursorMatchDoesNotConsumeOnMiss(t *testing.T) {
	t.Parallel()

	c := New("Dealt to Hero [As Kd]")
	_, ok := c.Match(regexp.MustCompile(`^Seat`))
	assert.False(t, ok)
	line, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, "Dealt to Hero [As Kd]", line)
}

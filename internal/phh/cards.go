package phh

import (
	"strings"

	"github.com/lox/handreplay/poker"
)

// unknownCard stands in for a card that was dealt but never seen.
const unknownCard = "??"

// FormatCards renders cards as one run, e.g. "AhKh". Missing hole cards
// are written as "????".
func FormatCards(cards []poker.Card, dealt int) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.String())
	}
	for i := len(cards); i < dealt; i++ {
		b.WriteString(unknownCard)
	}
	return b.String()
}

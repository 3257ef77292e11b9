// Package money converts amounts printed in hand histories into integer
// minor units. Conversion happens once, at the parse boundary.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts a printed amount to minor units. With cents set the text
// is decimal currency ("$1,234.5", "€0.25", "2.50 EUR") and is scaled by
// 100; without it the text is a literal chip count ("12,500").
func Parse(text string, cents bool) (int64, error) {
	s := clean(text)
	if s == "" {
		return 0, fmt.Errorf("empty amount %q", text)
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !digits(whole) || (hasFrac && !digits(frac)) {
		return 0, fmt.Errorf("invalid amount %q", text)
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if !cents {
		if hasFrac && strings.Trim(frac, "0") != "" {
			return 0, fmt.Errorf("fractional chip amount %q", text)
		}
		return w, nil
	}

	if len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("sub-cent amount %q", text)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	f, _ := strconv.ParseInt(frac, 10, 64)
	return w*100 + f, nil
}

// Format renders minor units back to text for descriptions.
func Format(amount int64, cents bool, symbol string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if !cents {
		return sign + strconv.FormatInt(amount, 10)
	}
	if amount%100 == 0 {
		return fmt.Sprintf("%s%s%d", sign, symbol, amount/100)
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, amount/100, amount%100)
}

// Symbol returns the currency symbol used in descriptions.
func Symbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return ""
	}
}

// clean strips currency symbols, codes, thousands separators and spaces.
func clean(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',' || r == ' ' || r == '\u00a0' || r == '$' || r == '€' || r == '£':
		case r >= 'A' && r <= 'Z':
		default:
			return ""
		}
	}
	return b.String()
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

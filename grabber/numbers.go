package grabber

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var errInvalidNumber = errors.New("invalid number")

// ParseDecimal parses a rate as printed on a bank page.
// Both "1.234,56" and "1,234.56" are accepted: the last separator is the decimal one.
// A lone comma is taken as the decimal separator
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t', '\n', '\r', '\'':
			return -1
		default:
			return r
		}
	}, s)

	if s == "" {
		return decimal.Zero, errInvalidNumber
	}

	var (
		lastComma = strings.LastIndex(s, ",")
		lastDot   = strings.LastIndex(s, ".")
	)

	switch {
	case lastComma > lastDot:
		// "1.234,56" or "36,50"
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma && lastComma != -1:
		// "1,234.56"
		s = strings.ReplaceAll(s, ",", "")
	}

	if strings.Count(s, ",") > 0 {
		return decimal.Zero, fmt.Errorf("%w: %q", errInvalidNumber, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse rate %q: %w", s, err)
	}

	return d, nil
}

// ParseOrZero parses the rate, falling back to zero.
// A zero rate is rejected later on by Finalize, as broken markup
func ParseOrZero(s string) decimal.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}

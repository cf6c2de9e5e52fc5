package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity parses a locale-tolerant quantity string into a decimal.
//
// It tolerates thousands separators and both decimal comma and decimal
// point: "1,234.5", "1.234,5", "1 234,5" and plain "12" all parse. The ok
// result is false when no numeric value can be recovered; callers treat
// that as a missing quantity, never as an error.
func Quantity(s string) (decimal.Decimal, bool) {
	// Drop everything except digits, separators, and a sign. This removes
	// spaces (including non-breaking grouping spaces), units, and any OCR
	// noise around the number.
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	if cleaned == "" {
		return decimal.Zero, false
	}

	cleaned = resolveSeparators(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// resolveSeparators rewrites a numeric string so that "." is the only
// decimal separator and no grouping separators remain.
func resolveSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both present: the rightmost one is the decimal separator.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ",") > 1:
		// Repeated commas are grouping separators.
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		// A single comma followed by exactly three digits is read as a
		// thousands separator ("1,234"), anything else as a decimal comma.
		if len(s)-lastComma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	return s
}

package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// monthNames maps lowercase month-name prefixes to month numbers.
// Three letters are enough to disambiguate every English month.
var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// Date normalizes a textual date to canonical YYYY-MM-DD.
//
// Accepted forms (separators "-", "/", "." and space):
//   - ISO: 2025-12-31
//   - Day-first: 31-12-2025, 31/12/25
//   - Month-first: 12-31-2025 (only when the day token exceeds 12)
//   - Month names: 31 Dec 2025, Dec 31 2025, 31-December-2025
//
// Ambiguous numeric dates where both leading tokens could be a day are read
// day-first, matching how suppliers print delivery notes in practice.
//
// Unparseable input is returned trimmed and unchanged rather than raising
// an error: downstream validation treats a non-canonical value as blank.
func Date(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return trimmed
	}

	tokens := splitDateTokens(trimmed)
	if len(tokens) != 3 {
		return trimmed
	}

	if ymd, ok := assembleDate(tokens); ok {
		return ymd
	}
	return trimmed
}

// splitDateTokens splits on any run of date separators.
func splitDateTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.' || r == ' '
	})
}

// assembleDate interprets three date tokens and returns canonical YYYY-MM-DD.
func assembleDate(tokens []string) (string, bool) {
	year, month, day, ok := resolveDateParts(tokens)
	if !ok {
		return "", false
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// resolveDateParts decides which token is the year, month, and day.
func resolveDateParts(tokens []string) (year, month, day int, ok bool) {
	first, firstNum := parseDateToken(tokens[0])
	second, secondNum := parseDateToken(tokens[1])
	third, thirdNum := parseDateToken(tokens[2])

	// Month-name forms: "31 Dec 2025" or "Dec 31 2025".
	if m, isName := monthNames[monthKey(tokens[1])]; isName && firstNum && thirdNum {
		return expandYear(third, len(digits(tokens[2]))), m, first, true
	}
	if m, isName := monthNames[monthKey(tokens[0])]; isName && secondNum && thirdNum {
		return expandYear(third, len(digits(tokens[2]))), m, second, true
	}

	if !firstNum || !secondNum || !thirdNum {
		return 0, 0, 0, false
	}

	switch {
	case len(tokens[0]) == 4:
		// ISO: year first
		return first, second, third, true
	case second > 12:
		// Second token cannot be a month, so it is the day: month-first
		return expandYear(third, len(tokens[2])), first, second, true
	default:
		// Day-first, covering both 4-digit and 2-digit years
		return expandYear(third, len(tokens[2])), second, first, true
	}
}

// parseDateToken parses one token as an integer.
func parseDateToken(tok string) (int, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, false
	}
	return n, true
}

// monthKey lowercases a token and truncates it to the three-letter
// month-name prefix.
func monthKey(tok string) string {
	lower := strings.ToLower(tok)
	if len(lower) > 3 {
		lower = lower[:3]
	}
	return lower
}

// digits strips every non-digit rune.
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// expandYear widens a 2-digit year into the 2000s.
func expandYear(y, tokenLen int) int {
	if tokenLen <= 2 {
		return 2000 + y
	}
	return y
}

// DigitsOnly strips everything except ASCII digits. Used for sanitizing
// invoice references before they are attached to ERP payloads.
func DigitsOnly(s string) string {
	return digits(s)
}

package gs1

import (
	"strings"

	"github.com/warelogic/grn-core/internal/normalize"
)

// GS is the ASCII group separator terminating variable-length GS1 fields.
const GS = '\x1d'

// gtinLength is the fixed field length of AI 01.
const gtinLength = 14

// bareExpiryLength is the fixed field length of AI 17 in bare form (YYMMDD).
const bareExpiryLength = 6

// symbologyPrefixes are scanner-added symbology identifiers stripped before
// decoding. They are not part of the GS1 element string.
var symbologyPrefixes = []string{"]C1", "]e0", "]d2", "]Q3"}

// Record holds the fields decoded from a single GS1 barcode.
type Record struct {
	// GTIN is the 14-digit trade item number from AI 01, empty if absent.
	GTIN string

	// Lot is the batch/lot number from AI 10, empty if absent.
	Lot string

	// ExpiryYMD is the expiry date from AI 17 normalized to YYYY-MM-DD,
	// empty if absent or unparseable.
	ExpiryYMD string

	// Serial is the serial number from AI 21, empty if absent.
	Serial string
}

// Options control decoding behaviour.
type Options struct {
	// ValidateGTIN enables mod-10 check-digit validation on AI 01 fields.
	// When false any 14-digit run is accepted, matching scanners that
	// deliver internal codes with non-standard check digits.
	ValidateGTIN bool
}

// Decode parses a scanned barcode string with default options
// (no GTIN check-digit validation).
func Decode(raw string) (Record, bool) {
	return DecodeWithOptions(raw, Options{})
}

// DecodeWithOptions parses a scanned barcode string into a Record.
//
// The scanner walks the string left to right recognising application
// identifiers in bracketed "(NN)" or bare two-digit form. Whitespace and
// stray control characters between fields are skipped. The second result is
// false when no GTIN, lot, expiry, or serial could be recovered at all.
func DecodeWithOptions(raw string, opts Options) (Record, bool) {
	s := stripSymbology(strings.TrimSpace(raw))

	var rec Record
	pos := 0
	for pos < len(s) {
		pos = skipNoise(s, pos)
		if pos >= len(s) {
			break
		}

		ai, bracketed, next := readAI(s, pos)
		if ai == "" {
			// Not an AI tag at this position; advance one byte so a stray
			// character cannot stall the scan.
			pos++
			continue
		}
		pos = next

		switch ai {
		case "01":
			gtin, after := readFixedDigits(s, pos, gtinLength)
			if len(gtin) == gtinLength && (!opts.ValidateGTIN || IsValidGTIN14(gtin)) {
				rec.GTIN = gtin
			}
			pos = after
		case "17":
			if bracketed {
				field, after := readVariable(s, pos)
				rec.ExpiryYMD = normalizeExpiry(field)
				pos = after
			} else {
				digits, after := readFixedDigits(s, pos, bareExpiryLength)
				if len(digits) == bareExpiryLength {
					rec.ExpiryYMD = expiryFromYYMMDD(digits)
				}
				pos = after
			}
		case "10":
			field, after := readVariable(s, pos)
			rec.Lot = strings.TrimSpace(field)
			pos = after
		case "21":
			field, after := readVariable(s, pos)
			rec.Serial = strings.TrimSpace(field)
			pos = after
		default:
			// Unrecognised AI: the tag has been consumed, leave the rest of
			// the string in place for the next iteration.
		}
	}

	if rec == (Record{}) {
		return Record{}, false
	}
	return rec, true
}

// stripSymbology removes a leading scanner symbology identifier.
func stripSymbology(s string) string {
	for _, prefix := range symbologyPrefixes {
		if strings.HasPrefix(s, prefix) {
			return s[len(prefix):]
		}
	}
	return s
}

// skipNoise advances past whitespace and control characters between fields.
func skipNoise(s string, pos int) int {
	for pos < len(s) {
		c := s[pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c < 0x20 {
			pos++
			continue
		}
		break
	}
	return pos
}

// readAI reads an application identifier at pos in bracketed or bare form.
// It returns the two-digit AI, whether it was bracketed, and the position
// after the tag. An empty AI means no tag was present at pos.
func readAI(s string, pos int) (ai string, bracketed bool, next int) {
	if s[pos] == '(' {
		end := strings.IndexByte(s[pos:], ')')
		if end < 0 {
			return "", false, pos
		}
		tag := s[pos+1 : pos+end]
		if len(tag) != 2 || !allDigits(tag) {
			return "", false, pos
		}
		return tag, true, pos + end + 1
	}

	if pos+2 <= len(s) && allDigits(s[pos:pos+2]) {
		return s[pos : pos+2], false, pos + 2
	}
	return "", false, pos
}

// readFixedDigits reads up to n consecutive digits starting at pos.
func readFixedDigits(s string, pos, n int) (field string, next int) {
	end := pos
	for end < len(s) && end-pos < n && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[pos:end], end
}

// readVariable reads a variable-length field terminated by the GS separator
// or the opening bracket of the next AI.
func readVariable(s string, pos int) (field string, next int) {
	end := pos
	for end < len(s) && s[end] != GS && s[end] != '(' {
		end++
	}
	field = s[pos:end]
	// Consume the GS terminator itself; a bracket belongs to the next AI.
	if end < len(s) && s[end] == GS {
		end++
	}
	return field, end
}

// allDigits reports whether s is non-empty and contains only ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// expiryFromYYMMDD expands a 6-digit YYMMDD expiry into YYYY-MM-DD.
func expiryFromYYMMDD(d string) string {
	return "20" + d[0:2] + "-" + d[2:4] + "-" + d[4:6]
}

// normalizeExpiry normalizes a bracketed variable expiry field.
//
// Labels encode the date in several shapes:
//   - 6 digits: YYMMDD (the standard GS1 form)
//   - 8 digits: YYYYMMDD, or DDMMYYYY when the leading pair cannot
//     be a century
//   - separator-delimited triplets: handed to the shared date normalizer
func normalizeExpiry(field string) string {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return ""
	}

	if allDigits(trimmed) {
		switch len(trimmed) {
		case 6:
			return expiryFromYYMMDD(trimmed)
		case 8:
			if trimmed[0:2] == "19" || trimmed[0:2] == "20" {
				return trimmed[0:4] + "-" + trimmed[4:6] + "-" + trimmed[6:8]
			}
			return trimmed[4:8] + "-" + trimmed[2:4] + "-" + trimmed[0:2]
		default:
			return ""
		}
	}

	// Separator-delimited forms go through the shared date normalizer.
	// An expiry that does not come back canonical is useless downstream,
	// so report it as absent rather than propagating raw text.
	normalized := normalize.Date(trimmed)
	if len(normalized) == 10 && normalized[4] == '-' && normalized[7] == '-' {
		return normalized
	}
	return ""
}

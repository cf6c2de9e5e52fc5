package gs1

// IsValidGTIN14 reports whether s is a 14-digit GTIN with a correct mod-10
// check digit.
//
// The checksum weights digits 3 and 1 alternately starting from the
// rightmost digit excluding the check digit itself; the check digit is the
// amount needed to round the weighted sum up to a multiple of ten.
func IsValidGTIN14(s string) bool {
	if len(s) != gtinLength || !allDigits(s) {
		return false
	}

	sum := 0
	weight := 3
	for i := gtinLength - 2; i >= 0; i-- {
		sum += int(s[i]-'0') * weight
		if weight == 3 {
			weight = 1
		} else {
			weight = 3
		}
	}

	check := (10 - sum%10) % 10
	return check == int(s[gtinLength-1]-'0')
}

// ExtractGTIN finds a GTIN inside arbitrary raw text.
//
// This is the fallback for scans that do not parse as a GS1 element string:
// it searches for any run of 14 consecutive digits. With validation enabled,
// the first window whose check digit verifies wins; otherwise the first
// 14-digit run is returned as-is. Empty result means no GTIN was found.
func ExtractGTIN(raw string, opts Options) string {
	runStart := -1
	for i := 0; i <= len(raw); i++ {
		isDigit := i < len(raw) && raw[i] >= '0' && raw[i] <= '9'
		if isDigit {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if gtin := gtinFromRun(raw[runStart:i], opts); gtin != "" {
				return gtin
			}
			runStart = -1
		}
	}
	return ""
}

// gtinFromRun extracts a GTIN from one maximal digit run.
func gtinFromRun(run string, opts Options) string {
	if len(run) < gtinLength {
		return ""
	}
	if !opts.ValidateGTIN {
		return run[:gtinLength]
	}
	for i := 0; i+gtinLength <= len(run); i++ {
		if IsValidGTIN14(run[i : i+gtinLength]) {
			return run[i : i+gtinLength]
		}
	}
	return ""
}

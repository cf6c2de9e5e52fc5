package match

import "strings"

// Score weights for the three token classes. Word overlap dominates;
// numeric and code-like tokens act as tie-breakers that reward matching
// pack sizes and article codes.
const (
	wordWeight    = 0.6
	numberWeight  = 0.25
	codeWeight    = 0.15
	minWordLength = 3

	// codeBoost is the score assigned when the candidate's item code
	// literally appears inside the slip description.
	codeBoost = 0.95
)

// Common thresholds observed across the receiving flows.
const (
	// ThresholdPrefill favours recall: any resemblance prefills a line.
	ThresholdPrefill = 0.01

	// ThresholdDefault balances precision and recall for matching.
	ThresholdDefault = 0.35

	// ThresholdReport favours precision for visible match summaries.
	ThresholdReport = 0.42
)

// Candidate is one order line offered to the matcher.
type Candidate struct {
	// Description is the order line's item description.
	Description string

	// ItemCode is the order line's item code, used for the literal
	// containment boost in reporting mode.
	ItemCode string
}

// BestMatch returns the index of the best candidate for the given slip
// description, considering only candidates not yet present in used.
//
// A candidate is accepted only when its score strictly exceeds threshold.
// The matcher itself never mutates used; the caller marks the returned
// index after accepting the match, which is what makes a multi-item pass
// greedy and mutually exclusive.
func BestMatch(desc string, candidates []Candidate, used map[int]bool, threshold float64) (int, bool) {
	return bestMatch(desc, candidates, used, threshold, false)
}

// BestMatchReport behaves like BestMatch but additionally boosts the score
// to 0.95 whenever a candidate's item code literally appears
// (case-insensitively) inside the slip description. Used for whole-batch
// match-summary reporting.
func BestMatchReport(desc string, candidates []Candidate, used map[int]bool, threshold float64) (int, bool) {
	return bestMatch(desc, candidates, used, threshold, true)
}

func bestMatch(desc string, candidates []Candidate, used map[int]bool, threshold float64, boostCodes bool) (int, bool) {
	descTokens := tokenize(desc)
	descLower := strings.ToLower(desc)

	bestIdx := -1
	bestScore := threshold
	for i, c := range candidates {
		if used[i] {
			continue
		}

		score := similarity(descTokens, tokenize(c.Description))
		if boostCodes && c.ItemCode != "" &&
			strings.Contains(descLower, strings.ToLower(c.ItemCode)) && score < codeBoost {
			score = codeBoost
		}

		// Strictly greater keeps the first candidate on ties, which makes
		// repeated runs deterministic.
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return 0, false
	}
	return bestIdx, true
}

// tokenSets holds a description split into the three scored token classes.
type tokenSets struct {
	words   map[string]bool
	numbers map[string]bool
	codes   map[string]bool
}

// tokenize normalizes a description into token sets: lowercase tokens with
// non-alphanumerics stripped, classified as numeric, code-like (letters and
// digits mixed), or plain words of at least three characters.
func tokenize(s string) tokenSets {
	ts := tokenSets{
		words:   make(map[string]bool),
		numbers: make(map[string]bool),
		codes:   make(map[string]bool),
	}

	for _, raw := range strings.Fields(strings.ToLower(s)) {
		tok := stripNonAlnum(raw)
		if tok == "" {
			continue
		}

		hasLetter, hasDigit := classify(tok)
		switch {
		case hasDigit && !hasLetter:
			ts.numbers[tok] = true
		case hasDigit && hasLetter:
			ts.codes[tok] = true
		case len(tok) >= minWordLength:
			ts.words[tok] = true
		}
	}
	return ts
}

// similarity combines the Jaccard similarity of each token class.
func similarity(a, b tokenSets) float64 {
	return wordWeight*jaccard(a.words, b.words) +
		numberWeight*jaccard(a.numbers, b.numbers) +
		codeWeight*jaccard(a.codes, b.codes)
}

// jaccard computes |a∩b| / |a∪b|; two empty sets score zero.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// stripNonAlnum removes every rune that is not a letter or digit.
func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// classify reports whether the token contains letters and digits.
func classify(tok string) (hasLetter, hasDigit bool) {
	for _, r := range tok {
		if r >= 'a' && r <= 'z' {
			hasLetter = true
		}
		if r >= '0' && r <= '9' {
			hasDigit = true
		}
	}
	return hasLetter, hasDigit
}

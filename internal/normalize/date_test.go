package normalize

import "testing"

func TestDate_CanonicalForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "iso", input: "2025-12-31", want: "2025-12-31"},
		{name: "iso slash", input: "2025/12/31", want: "2025-12-31"},
		{name: "day first dash", input: "31-12-2025", want: "2025-12-31"},
		{name: "day first slash", input: "31/12/2025", want: "2025-12-31"},
		{name: "day first dot", input: "31.12.2025", want: "2025-12-31"},
		{name: "two digit year", input: "31/12/25", want: "2025-12-31"},
		{name: "month first when day exceeds 12", input: "12-31-2025", want: "2025-12-31"},
		{name: "month name middle", input: "31 Dec 2025", want: "2025-12-31"},
		{name: "month name first", input: "Dec 31 2025", want: "2025-12-31"},
		{name: "full month name", input: "31-December-2025", want: "2025-12-31"},
		{name: "month name two digit year", input: "31 Dec 25", want: "2025-12-31"},
		{name: "leading whitespace", input: "  2025-01-05 ", want: "2025-01-05"},
		{name: "single digit day and month", input: "5/1/2025", want: "2025-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Date(tt.input); got != tt.want {
				t.Errorf("Date(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDate_UnparseableReturnedTrimmed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "free text", input: " next tuesday ", want: "next tuesday"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: "   ", want: ""},
		{name: "two tokens", input: "12-2025", want: "12-2025"},
		{name: "month out of range", input: "31-13-2025", want: "31-13-2025"},
		{name: "day out of range", input: "32-12-2025", want: "32-12-2025"},
		{name: "unknown month name", input: "31 Foo 2025", want: "31 Foo 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Date(tt.input); got != tt.want {
				t.Errorf("Date(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("INV-2025/0042"); got != "20250042" {
		t.Errorf("DigitsOnly() = %q, want %q", got, "20250042")
	}
	if got := DigitsOnly("no digits"); got != "" {
		t.Errorf("DigitsOnly() = %q, want empty", got)
	}
}

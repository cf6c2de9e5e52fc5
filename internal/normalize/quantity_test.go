package normalize

import "testing"

func TestQuantity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "plain integer", input: "12", want: "12", ok: true},
		{name: "decimal point", input: "2.5", want: "2.5", ok: true},
		{name: "decimal comma", input: "2,5", want: "2.5", ok: true},
		{name: "thousands comma", input: "1,234", want: "1234", ok: true},
		{name: "thousands comma with decimal point", input: "1,234.5", want: "1234.5", ok: true},
		{name: "thousands point with decimal comma", input: "1.234,5", want: "1234.5", ok: true},
		{name: "space grouping", input: "1 234,5", want: "1234.5", ok: true},
		{name: "repeated grouping", input: "1,234,567", want: "1234567", ok: true},
		{name: "unit suffix", input: "10 pcs", want: "10", ok: true},
		{name: "empty", input: "", ok: false},
		{name: "no digits", input: "n/a", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quantity(tt.input)
			if ok != tt.ok {
				t.Fatalf("Quantity(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got.String() != tt.want {
				t.Errorf("Quantity(%q) = %s, want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

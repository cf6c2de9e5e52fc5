package gs1

import "testing"

func TestDecode_BracketedForm(t *testing.T) {
	rec, ok := Decode("(01)10614141000415(17)251231(10)LOT42")
	if !ok {
		t.Fatal("Decode() ok = false, want true")
	}

	if rec.GTIN != "10614141000415" {
		t.Errorf("GTIN = %q, want %q", rec.GTIN, "10614141000415")
	}
	if rec.ExpiryYMD != "2025-12-31" {
		t.Errorf("ExpiryYMD = %q, want %q", rec.ExpiryYMD, "2025-12-31")
	}
	if rec.Lot != "LOT42" {
		t.Errorf("Lot = %q, want %q", rec.Lot, "LOT42")
	}
}

func TestDecode_BareFormWithGSSeparators(t *testing.T) {
	raw := "011061414100041510LOT42\x1d17251231\x1d21SER-9"

	rec, ok := Decode(raw)
	if !ok {
		t.Fatal("Decode() ok = false, want true")
	}

	if rec.GTIN != "10614141000415" {
		t.Errorf("GTIN = %q, want %q", rec.GTIN, "10614141000415")
	}
	if rec.Lot != "LOT42" {
		t.Errorf("Lot = %q, want %q", rec.Lot, "LOT42")
	}
	if rec.ExpiryYMD != "2025-12-31" {
		t.Errorf("ExpiryYMD = %q, want %q", rec.ExpiryYMD, "2025-12-31")
	}
	if rec.Serial != "SER-9" {
		t.Errorf("Serial = %q, want %q", rec.Serial, "SER-9")
	}
}

func TestDecode_RoundTripProperty(t *testing.T) {
	// For any GTIN g, lot l, 6-digit expiry e: decoding (01,g)(10,l)(17,e)
	// yields the three fields back with the expiry expanded to 20YY-MM-DD.
	cases := []struct {
		gtin, lot, expiry string
	}{
		{"10614141000415", "L1", "250101"},
		{"00012345678905", "BATCH-2024-001", "261130"},
		{"98765432109213", "x", "270615"},
	}

	for _, c := range cases {
		raw := "01" + c.gtin + "10" + c.lot + "\x1d17" + c.expiry
		rec, ok := Decode(raw)
		if !ok {
			t.Fatalf("Decode(%q) ok = false", raw)
		}
		if rec.GTIN != c.gtin {
			t.Errorf("GTIN = %q, want %q", rec.GTIN, c.gtin)
		}
		if rec.Lot != c.lot {
			t.Errorf("Lot = %q, want %q", rec.Lot, c.lot)
		}
		want := "20" + c.expiry[0:2] + "-" + c.expiry[2:4] + "-" + c.expiry[4:6]
		if rec.ExpiryYMD != want {
			t.Errorf("ExpiryYMD = %q, want %q", rec.ExpiryYMD, want)
		}
	}
}

func TestDecode_SymbologyPrefixStripped(t *testing.T) {
	rec, ok := Decode("]C10110614141000415")
	if !ok || rec.GTIN != "10614141000415" {
		t.Errorf("Decode() = %+v, %v; want GTIN decoded", rec, ok)
	}
}

func TestDecode_BracketedExpiryVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "six digits", raw: "(17)251231", want: "2025-12-31"},
		{name: "eight digits year first", raw: "(17)20251231", want: "2025-12-31"},
		{name: "eight digits day first", raw: "(17)31122025", want: "2025-12-31"},
		{name: "delimited day first", raw: "(17)31-12-2025", want: "2025-12-31"},
		{name: "delimited iso", raw: "(17)2025-12-31", want: "2025-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := Decode(tt.raw)
			if !ok {
				t.Fatalf("Decode(%q) ok = false", tt.raw)
			}
			if rec.ExpiryYMD != tt.want {
				t.Errorf("ExpiryYMD = %q, want %q", rec.ExpiryYMD, tt.want)
			}
		})
	}
}

func TestDecode_ValidationRejectsBadCheckDigit(t *testing.T) {
	// Same string decodes with validation off and is dropped with it on.
	raw := "(01)10614141000416"

	rec, ok := DecodeWithOptions(raw, Options{})
	if !ok || rec.GTIN != "10614141000416" {
		t.Errorf("validation off: got %+v, %v", rec, ok)
	}

	if _, ok := DecodeWithOptions(raw, Options{ValidateGTIN: true}); ok {
		t.Error("validation on: expected decode failure for bad check digit")
	}
}

func TestDecode_UnknownAISkippedWithoutConsuming(t *testing.T) {
	// AI 99 is not recognised; the scanner must advance past the tag only
	// and still find the lot that follows.
	rec, ok := Decode("(99)whatever(10)L1")
	if !ok {
		t.Fatal("Decode() ok = false, want true")
	}
	if rec.Lot != "L1" {
		t.Errorf("Lot = %q, want %q", rec.Lot, "L1")
	}
}

func TestDecode_NothingFound(t *testing.T) {
	for _, raw := range []string{"", "   ", "hello world", "(xx)bad"} {
		if _, ok := Decode(raw); ok {
			t.Errorf("Decode(%q) ok = true, want false", raw)
		}
	}
}

func TestDecode_NoiseBetweenTokens(t *testing.T) {
	rec, ok := Decode("  (01)10614141000415 \x1d (10)L7 ")
	if !ok {
		t.Fatal("Decode() ok = false, want true")
	}
	if rec.GTIN != "10614141000415" || rec.Lot != "L7" {
		t.Errorf("got %+v", rec)
	}
}

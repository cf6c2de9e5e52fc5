package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

// mockProvider implements Provider for tests.
type mockProvider struct {
	mu       sync.Mutex
	gtins    map[string]string
	failFor  map[string]bool
	lookups  int
	header   *Header
	lines    []Line
	shipment *ShipmentRef
}

func (m *mockProvider) FetchHeader(_ context.Context, _ Kind, number string) (*Header, error) {
	if m.header == nil || m.header.Number != number {
		return nil, ErrNotFound
	}
	return m.header, nil
}

func (m *mockProvider) FetchLines(_ context.Context, _ Kind, _ string) ([]Line, error) {
	return m.lines, nil
}

func (m *mockProvider) FetchGTIN(_ context.Context, itemCode string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.failFor[itemCode] {
		return "", errors.New("item master unavailable")
	}
	return m.gtins[itemCode], nil
}

func (m *mockProvider) FetchShipment(_ context.Context, _ string) (*ShipmentRef, error) {
	if m.shipment == nil {
		return nil, ErrNoShipment
	}
	return m.shipment, nil
}

func TestEnrichGTINs_FillsAllLines(t *testing.T) {
	provider := &mockProvider{
		gtins: map[string]string{
			"ITEM-A": "10614141000415",
			"ITEM-B": "00012345678905",
		},
	}
	lines := []Line{
		{Number: 1, ItemCode: "ITEM-A", Ordered: decimal.NewFromInt(10)},
		{Number: 2, ItemCode: "ITEM-B", Ordered: decimal.NewFromInt(5)},
	}

	EnrichGTINs(context.Background(), provider, lines)

	if lines[0].GTIN != "10614141000415" {
		t.Errorf("line 1 GTIN = %q, want filled", lines[0].GTIN)
	}
	if lines[1].GTIN != "00012345678905" {
		t.Errorf("line 2 GTIN = %q, want filled", lines[1].GTIN)
	}
	if provider.lookups != 2 {
		t.Errorf("lookups = %d, want one per line", provider.lookups)
	}
}

func TestEnrichGTINs_LookupFailureDegradesSingleLine(t *testing.T) {
	provider := &mockProvider{
		gtins:   map[string]string{"ITEM-A": "10614141000415"},
		failFor: map[string]bool{"ITEM-B": true},
	}
	lines := []Line{
		{Number: 1, ItemCode: "ITEM-A"},
		{Number: 2, ItemCode: "ITEM-B"},
		{Number: 3, ItemCode: "ITEM-C"},
	}

	EnrichGTINs(context.Background(), provider, lines)

	if lines[0].GTIN != "10614141000415" {
		t.Errorf("line 1 GTIN = %q, want filled despite sibling failure", lines[0].GTIN)
	}
	if lines[1].GTIN != "" {
		t.Errorf("line 2 GTIN = %q, want empty after failure", lines[1].GTIN)
	}
	if lines[2].GTIN != "" {
		t.Errorf("line 3 GTIN = %q, want empty for unknown item", lines[2].GTIN)
	}
}

func TestEnrichGTINs_PreservesExistingGTIN(t *testing.T) {
	provider := &mockProvider{
		gtins: map[string]string{"ITEM-A": ""},
	}
	lines := []Line{
		{Number: 1, ItemCode: "ITEM-A", GTIN: "10614141000415"},
		{Number: 2, ItemCode: "ITEM-B", GTIN: "00012345678905"},
	}

	EnrichGTINs(context.Background(), provider, lines)

	if lines[0].GTIN != "10614141000415" {
		t.Errorf("line 1 GTIN = %q, want pre-existing value kept", lines[0].GTIN)
	}
	if lines[1].GTIN != "00012345678905" {
		t.Errorf("line 2 GTIN = %q, want pre-existing value kept", lines[1].GTIN)
	}
	if provider.lookups != 0 {
		t.Errorf("lookups = %d, want none for lines already carrying a GTIN", provider.lookups)
	}
}

func TestEnrichGTINs_EmptyLookupLeavesGTINEmpty(t *testing.T) {
	provider := &mockProvider{
		gtins: map[string]string{},
	}
	lines := []Line{{Number: 1, ItemCode: "ITEM-A"}}

	EnrichGTINs(context.Background(), provider, lines)

	if lines[0].GTIN != "" {
		t.Errorf("GTIN = %q, want empty for item with no barcode on file", lines[0].GTIN)
	}
}

func TestKind_Valid(t *testing.T) {
	for _, k := range []Kind{KindPurchase, KindTransfer, KindAddToExisting} {
		if !k.Valid() {
			t.Errorf("Kind(%q).Valid() = false", k)
		}
	}
	if Kind("sales").Valid() {
		t.Error(`Kind("sales").Valid() = true, want false`)
	}
}

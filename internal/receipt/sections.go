package receipt

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warelogic/grn-core/internal/order"
)

// NewLineEntry wraps an order line with its initial blank section.
func NewLineEntry(line order.Line) LineEntry {
	return LineEntry{
		Line:     line,
		Sections: []Section{{Index: 1}},
	}
}

// AddSection appends a new blank section with index current-max+1.
func (e *LineEntry) AddSection() *Section {
	e.Sections = append(e.Sections, Section{Index: len(e.Sections) + 1})
	return &e.Sections[len(e.Sections)-1]
}

// RemoveSection deletes the section with the given index and renumbers the
// remaining sections to a dense 1..N sequence in their original relative
// order. A line is never left with zero sections: removing the last one
// reinserts a single blank section.
func (e *LineEntry) RemoveSection(index int) error {
	pos := -1
	for i := range e.Sections {
		if e.Sections[i].Index == index {
			pos = i
			break
		}
	}
	if pos < 0 {
		return ErrSectionNotFound
	}

	e.Sections = append(e.Sections[:pos], e.Sections[pos+1:]...)
	if len(e.Sections) == 0 {
		e.Sections = []Section{{Index: 1}}
		return nil
	}

	for i := range e.Sections {
		e.Sections[i].Index = i + 1
	}
	return nil
}

// UpdateSection applies a partial update to the section with the given
// index. Only the fields supplied in the patch are changed.
func (e *LineEntry) UpdateSection(index int, patch SectionPatch) error {
	for i := range e.Sections {
		if e.Sections[i].Index != index {
			continue
		}
		if patch.Qty != nil {
			e.Sections[i].Qty = *patch.Qty
		}
		if patch.Lot != nil {
			e.Sections[i].Lot = *patch.Lot
		}
		if patch.Expiry != nil {
			e.Sections[i].Expiry = *patch.Expiry
		}
		return nil
	}
	return ErrSectionNotFound
}

// Section returns the section with the given index, or nil.
func (e *LineEntry) Section(index int) *Section {
	for i := range e.Sections {
		if e.Sections[i].Index == index {
			return &e.Sections[i]
		}
	}
	return nil
}

// MaxSectionIndex returns the highest section index across all entries.
func MaxSectionIndex(entries []LineEntry) int {
	max := 0
	for i := range entries {
		for _, s := range entries[i].Sections {
			if s.Index > max {
				max = s.Index
			}
		}
	}
	return max
}

// sectionValid reports whether a section passes the validity predicate:
// positive quantity and non-blank lot, plus a non-blank expiry unless the
// receipt is for a transfer order.
func sectionValid(s Section, kind order.Kind) bool {
	if !s.Qty.GreaterThan(decimal.Zero) {
		return false
	}
	if strings.TrimSpace(s.Lot) == "" {
		return false
	}
	if kind != order.KindTransfer && strings.TrimSpace(s.Expiry) == "" {
		return false
	}
	return true
}

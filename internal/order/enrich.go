package order

import (
	"context"
	"sync"
)

// EnrichGTINs fills each line's GTIN with one item-master lookup per line,
// fanned out concurrently and joined before returning.
//
// Lines are mutated in place. Lines that already carry a GTIN are left
// untouched. A failed or empty lookup leaves that line's GTIN empty;
// enrichment never returns an error because a missing barcode only
// disables scan matching for that line.
func EnrichGTINs(ctx context.Context, provider Provider, lines []Line) {
	var wg sync.WaitGroup
	for i := range lines {
		if lines[i].GTIN != "" {
			continue
		}
		wg.Add(1)
		go func(l *Line) {
			defer wg.Done()
			gtin, err := provider.FetchGTIN(ctx, l.ItemCode)
			if err != nil || gtin == "" {
				return
			}
			l.GTIN = gtin
		}(&lines[i])
	}
	wg.Wait()
}

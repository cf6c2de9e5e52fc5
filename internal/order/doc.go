// Package order defines the order model the receiving workflows operate on
// and the provider interface used to fetch it from the ERP.
//
// An order is a Header plus its Lines. Headers are immutable once fetched;
// lines carry the ordered quantity and an optional GTIN used to match
// scanned barcodes. Transfer orders additionally reference an in-transit
// shipment.
//
// # GTIN enrichment
//
// Order lines arrive from the ERP without barcodes. EnrichGTINs performs
// one item-master lookup per line, fanned out concurrently and joined
// before the workflow proceeds. A single lookup failure degrades that one
// line to "no GTIN"; it never aborts the batch.
package order

// Package match aligns extracted delivery-slip items to order lines.
//
// Slip descriptions rarely equal order-line descriptions: suppliers
// abbreviate, reorder words, and embed their own article codes. The matcher
// therefore scores candidate pairs with a weighted token-set similarity and
// greedily assigns each extracted item to the best unused order line above
// a caller-supplied threshold.
//
// The threshold is a per-use-case precision/recall dial: prefill flows use a
// very low threshold so any resemblance pre-populates a line for the
// operator to confirm, while match-summary reporting uses a high threshold
// so only confident pairs are shown.
//
// Matching is deterministic: the same inputs with a fresh used-set always
// produce the same assignments.
package match

// Package normalize converts the raw text produced by slip extraction and
// barcode scanning into canonical values.
//
// Slip extraction returns free text for every field: quantities arrive with
// locale-specific thousands separators, dates arrive in whatever format the
// supplier printed on the delivery note. Nothing downstream (section model,
// staging builder, ERP payloads) accepts raw text, so all input passes
// through this package first.
//
// # Contracts
//
//   - Date accepts ISO, day-first, month-first, 2-digit-year, and month-name
//     dates across "-", "/", "." and space separators, and returns canonical
//     YYYY-MM-DD. Unparseable input is returned trimmed and unchanged,
//     never as an error.
//   - Quantity parses a locale-tolerant decimal, stripping thousands
//     separators and accepting comma decimals. Failure is reported via the
//     ok result, never as an error.
//
// All functions are pure and safe for concurrent use.
package normalize

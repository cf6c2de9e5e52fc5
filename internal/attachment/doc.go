// Package attachment caches scanned images and picked files locally and
// uploads them to the ERP once a receipt batch has resolved its
// header-interface id.
//
// Cached files live on disk with their metadata in SQLite. The uploader
// drains the cache for one order: scanned images first, then picked files,
// in their original order. Each file is uploaded independently; a success
// deletes the cached copy, a failure is logged and skipped. Upload problems
// never fail the receipt batch they belong to.
package attachment

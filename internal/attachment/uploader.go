package attachment

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warelogic/grn-core/internal/infrastructure/logging"
	"github.com/warelogic/grn-core/internal/receipt"
)

// maxTokenLength caps sanitized filename tokens.
const maxTokenLength = 80

// invoicePlaceholder fills the invoice slot of a filename when no invoice
// reference was captured.
const invoicePlaceholder = "NoInvoice"

// mimeExtensions maps explicit MIME types to filename extensions.
var mimeExtensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"image/tiff":      "tif",
	"application/pdf": "pdf",
}

// Target receives attachment uploads. The ERP client implements this.
type Target interface {
	// UploadAttachment pushes one base64-encoded file for a receipt,
	// identified by its header-interface id.
	UploadAttachment(ctx context.Context, headerInterfaceID, filename, mimeType, contentBase64 string) error
}

// Uploader drains the cache for one order into the ERP.
type Uploader struct {
	repo   Repository
	target Target
	logger *logging.Logger
}

// NewUploader wires an uploader over the given cache and target.
func NewUploader(repo Repository, target Target, logger *logging.Logger) *Uploader {
	return &Uploader{repo: repo, target: target, logger: logger}
}

// Upload pushes every cached attachment for the request's order: scans
// first, then picked files, in original order. Each file is handled
// independently; success deletes the cached copy and its record, failure is
// logged and skipped. Returns the number uploaded and the last error seen.
func (u *Uploader) Upload(ctx context.Context, req receipt.UploadRequest) (int, error) {
	cached, err := u.repo.ListForOrder(ctx, req.OrderNumber)
	if err != nil {
		return 0, fmt.Errorf("attachment: list cache for %s: %w", req.OrderNumber, err)
	}
	if len(cached) == 0 {
		return 0, nil
	}

	uploaded := 0
	var lastErr error
	for i, c := range cached {
		filename := buildFilename(req.Vendor, req.InvoiceReference, i+1, c)
		if err := u.uploadOne(ctx, req.HeaderInterfaceID, filename, c); err != nil {
			lastErr = err
			if u.logger != nil {
				u.logger.Error("attachment upload failed",
					"attachment_id", c.ID,
					"filename", filename,
					"error", err,
				)
			}
			continue
		}
		uploaded++
	}
	return uploaded, lastErr
}

// uploadOne reads, encodes, and pushes a single cached file, then removes
// the local copy and its record.
func (u *Uploader) uploadOne(ctx context.Context, headerInterfaceID, filename string, c Cached) error {
	data, err := os.ReadFile(c.LocalPath)
	if err != nil {
		return fmt.Errorf("reading cached file: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if err := u.target.UploadAttachment(ctx, headerInterfaceID, filename, c.MimeType, encoded); err != nil {
		return fmt.Errorf("uploading %s: %w", filename, err)
	}

	// The upload is already durable server-side; local cleanup problems are
	// only worth a log line.
	if err := os.Remove(c.LocalPath); err != nil && u.logger != nil {
		u.logger.Warn("removing cached file", "path", c.LocalPath, "error", err)
	}
	if err := u.repo.Delete(ctx, c.ID); err != nil && u.logger != nil {
		u.logger.Warn("removing cache record", "attachment_id", c.ID, "error", err)
	}
	return nil
}

// buildFilename derives `{vendor}_{invoice}_{n}.{ext}` with sanitized tokens.
func buildFilename(vendor, invoiceRef string, index int, c Cached) string {
	v := sanitizeToken(vendor)
	if v == "" {
		v = "Vendor"
	}
	inv := sanitizeToken(invoiceRef)
	if inv == "" {
		inv = invoicePlaceholder
	}
	return fmt.Sprintf("%s_%s_%d.%s", v, inv, index, resolveExtension(c))
}

// sanitizeToken strips everything outside [A-Za-z0-9_] and truncates.
func sanitizeToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
		if b.Len() >= maxTokenLength {
			break
		}
	}
	return b.String()
}

// resolveExtension picks the filename extension: explicit MIME type first,
// then the cached file's own extension, then a per-source fallback.
func resolveExtension(c Cached) string {
	if ext, ok := mimeExtensions[strings.ToLower(strings.TrimSpace(c.MimeType))]; ok {
		return ext
	}
	if ext := strings.TrimPrefix(filepath.Ext(c.LocalPath), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if c.Source == SourceScan {
		return "jpg"
	}
	return "bin"
}

package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warelogic/grn-core/internal/attachment"
)

// maxAttachmentMemory is how much of a multipart upload is held in memory
// before spilling to a temp file.
const maxAttachmentMemory = 4 << 20

// handleAddAttachment caches an uploaded file for later post-submission
// upload to the ERP. The file lands in the attachment directory and its
// metadata in the cache repository.
//
//	POST /api/v1/orders/{number}/attachments  (multipart: file, source, position)
func (s *Server) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	if s.attachments == nil {
		writeNotFound(w, "attachment cache not enabled")
		return
	}
	number := chi.URLParam(r, "number")

	if err := r.ParseMultipartForm(maxAttachmentMemory); err != nil {
		writeBadRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file is required")
		return
	}
	defer file.Close()

	source := attachment.Source(r.FormValue("source"))
	if source == "" {
		source = attachment.SourceScan
	}
	if !source.Valid() {
		writeBadRequest(w, "source must be scan or picked")
		return
	}

	position := 0
	if raw := r.FormValue("position"); raw != "" {
		position, err = strconv.Atoi(raw)
		if err != nil || position < 0 {
			writeBadRequest(w, "position must be a non-negative integer")
			return
		}
	}

	id := uuid.NewString()
	localPath := filepath.Join(s.attachDir, id+strings.ToLower(filepath.Ext(header.Filename)))
	out, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		s.logger.Error("creating attachment file", "path", localPath, "error", err)
		writeInternalError(w, "failed to store attachment")
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(localPath)
		s.logger.Error("writing attachment file", "path", localPath, "error", err)
		writeInternalError(w, "failed to store attachment")
		return
	}
	if err := out.Close(); err != nil {
		os.Remove(localPath)
		s.logger.Error("closing attachment file", "path", localPath, "error", err)
		writeInternalError(w, "failed to store attachment")
		return
	}

	cached := attachment.Cached{
		ID:          id,
		LocalPath:   localPath,
		DisplayName: header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		Source:      source,
		Position:    position,
		OrderNumber: number,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.attachments.Add(r.Context(), cached); err != nil {
		os.Remove(localPath)
		s.logger.Error("caching attachment", "order", number, "error", err)
		writeInternalError(w, "failed to cache attachment")
		return
	}

	writeJSON(w, http.StatusCreated, cached)
}

// handleListAttachments returns an order's cached attachments in upload
// order: scans first, then picked files.
//
//	GET /api/v1/orders/{number}/attachments
func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	if s.attachments == nil {
		writeNotFound(w, "attachment cache not enabled")
		return
	}

	items, err := s.attachments.ListForOrder(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		s.logger.Error("listing attachments", "error", err)
		writeInternalError(w, "failed to list attachments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attachments": items})
}

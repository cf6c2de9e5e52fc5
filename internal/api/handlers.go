package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warelogic/grn-core/internal/gs1"
	"github.com/warelogic/grn-core/internal/order"
	"github.com/warelogic/grn-core/internal/receipt"
)

// defaultHistoryLimit caps batch-history listings unless the client asks
// for less.
const defaultHistoryLimit = 50

// orderKind reads and validates the order kind from a query parameter or
// request field, defaulting to purchase.
func orderKind(raw string) (order.Kind, bool) {
	if raw == "" {
		return order.KindPurchase, true
	}
	kind := order.Kind(raw)
	return kind, kind.Valid()
}

// handleScanDecode decodes a raw GS1 barcode string.
//
//	POST /api/v1/scan/decode {"raw": "(01)10614141000415(10)LOT1"}
func (s *Server) handleScanDecode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Raw string `json:"raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Raw == "" {
		writeBadRequest(w, "raw is required")
		return
	}

	opts := gs1.Options{ValidateGTIN: s.scanCfg.ValidateGTIN}
	record, found := gs1.DecodeWithOptions(req.Raw, opts)

	resp := map[string]any{"found": found}
	if found {
		resp["record"] = record
	} else if gtin := gs1.ExtractGTIN(req.Raw, opts); gtin != "" {
		// Fall back to a bare GTIN search for inputs that are not full GS1.
		resp["found"] = true
		resp["record"] = gs1.Record{GTIN: gtin}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetOrder fetches an order's header and enriched lines, wrapped in
// blank receipt sections.
//
//	GET /api/v1/orders/{number}?kind=purchase
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	kind, ok := orderKind(r.URL.Query().Get("kind"))
	if !ok {
		writeBadRequest(w, "unknown order kind")
		return
	}

	header, entries, err := s.service.LoadOrder(r.Context(), kind, number)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"header":  header,
		"entries": entries,
	})
}

// handlePrefill matches extracted slip items onto an order's lines.
//
//	POST /api/v1/orders/{number}/prefill {"kind": "...", "items": [...]}
func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var req struct {
		Kind  string                `json:"kind"`
		Items []order.ExtractedItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	kind, ok := orderKind(req.Kind)
	if !ok {
		writeBadRequest(w, "unknown order kind")
		return
	}

	result, err := s.service.Prefill(r.Context(), kind, number, req.Items)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSubmitBatch stages the caller's sections and runs a submission
// batch. The response carries per-part terminal state; there is no
// aggregate pass/fail flag.
//
//	POST /api/v1/batches
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var in receipt.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if in.OrderNumber == "" {
		writeBadRequest(w, "order_number is required")
		return
	}

	result, err := s.service.Submit(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetBatch retrieves one completed batch from history.
//
//	GET /api/v1/batches/{id}
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	if s.batches == nil {
		writeNotFound(w, "batch history not enabled")
		return
	}

	batch, err := s.batches.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, receipt.ErrBatchNotFound) {
			writeNotFound(w, "batch not found")
			return
		}
		s.logger.Error("fetching batch", "error", err)
		writeInternalError(w, "failed to fetch batch")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// handleListBatches retrieves recent batches, newest first.
//
//	GET /api/v1/batches?limit=20
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	if s.batches == nil {
		writeNotFound(w, "batch history not enabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	batches, err := s.batches.ListBatches(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing batches", "error", err)
		writeInternalError(w, "failed to list batches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

// writeServiceError maps workflow errors onto HTTP responses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, receipt.ErrInvalidKind):
		writeBadRequest(w, "unknown order kind")
	case errors.Is(err, receipt.ErrNothingToReceive):
		writeBadRequest(w, "no valid sections to receive")
	case errors.Is(err, receipt.ErrBatchActive):
		writeConflict(w, "a submission batch is already running")
	case errors.Is(err, order.ErrNotFound):
		writeNotFound(w, "order not found")
	case errors.Is(err, order.ErrNoShipment):
		writeNotFound(w, "no expected shipment for transfer order")
	case errors.Is(err, order.ErrNoLines):
		writeNotFound(w, "order has no receivable lines")
	default:
		s.logger.Error("receipt service error", "error", err)
		writeInternalError(w, "internal server error")
	}
}

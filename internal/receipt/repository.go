package receipt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/warelogic/grn-core/internal/order"
)

// Repository persists completed submission batches for post-submission
// review.
type Repository interface {
	// SaveBatch stores a batch and its per-part outcomes.
	SaveBatch(ctx context.Context, result BatchResult) error

	// GetBatch retrieves one batch by id.
	// Returns ErrBatchNotFound if the batch does not exist.
	GetBatch(ctx context.Context, id string) (*BatchResult, error)

	// ListBatches retrieves the most recent batches, newest first.
	ListBatches(ctx context.Context, limit int) ([]BatchResult, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveBatch stores a batch and its per-part outcomes in one transaction.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, result BatchResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipt_batches (id, order_number, order_kind,
			receipt_number, receipt_header_id, header_interface_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.BatchID,
		result.OrderNumber,
		string(result.Kind),
		result.ReceiptNumber,
		result.ReceiptHeaderID,
		result.HeaderInterfaceID,
		result.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting batch: %w", err)
	}

	for _, part := range result.Parts {
		messages, err := json.Marshal(part.Messages)
		if err != nil {
			return fmt.Errorf("encoding part messages: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO receipt_parts (batch_id, section_index, state,
				return_status, messages)
			VALUES (?, ?, ?, ?, ?)`,
			result.BatchID,
			part.SectionIndex,
			string(part.State),
			part.ReturnStatus,
			string(messages),
		)
		if err != nil {
			return fmt.Errorf("inserting part %d: %w", part.SectionIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// GetBatch retrieves one batch by id.
func (r *SQLiteRepository) GetBatch(ctx context.Context, id string) (*BatchResult, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, order_kind, receipt_number,
			receipt_header_id, header_interface_id, created_at
		FROM receipt_batches
		WHERE id = ?`, id)

	batch, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("querying batch by id: %w", err)
	}

	if err := r.loadParts(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// ListBatches retrieves the most recent batches, newest first.
func (r *SQLiteRepository) ListBatches(ctx context.Context, limit int) ([]BatchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_number, order_kind, receipt_number,
			receipt_header_id, header_interface_id, created_at
		FROM receipt_batches
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	// Drain the batch cursor before loading parts. Querying parts while
	// this cursor is open would need a second pooled connection, which an
	// in-memory database does not share.
	var batches []BatchResult
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}
		batches = append(batches, *batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batches: %w", err)
	}
	rows.Close()

	for i := range batches {
		if err := r.loadParts(ctx, &batches[i]); err != nil {
			return nil, err
		}
	}
	return batches, nil
}

// loadParts fills a batch's part list, ordered by section index.
func (r *SQLiteRepository) loadParts(ctx context.Context, batch *BatchResult) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT section_index, state, return_status, messages
		FROM receipt_parts
		WHERE batch_id = ?
		ORDER BY section_index`, batch.BatchID)
	if err != nil {
		return fmt.Errorf("querying parts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var part PartProgress
		var state, messages string
		if err := rows.Scan(&part.SectionIndex, &state, &part.ReturnStatus, &messages); err != nil {
			return fmt.Errorf("scanning part: %w", err)
		}
		part.State = PartState(state)
		if err := json.Unmarshal([]byte(messages), &part.Messages); err != nil {
			return fmt.Errorf("decoding part messages: %w", err)
		}
		batch.Parts = append(batch.Parts, part)
	}
	return rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanBatch reads one receipt_batches row.
func scanBatch(s scanner) (*BatchResult, error) {
	var batch BatchResult
	var kind, createdAt string

	err := s.Scan(
		&batch.BatchID,
		&batch.OrderNumber,
		&kind,
		&batch.ReceiptNumber,
		&batch.ReceiptHeaderID,
		&batch.HeaderInterfaceID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	batch.Kind = order.Kind(kind)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		batch.CreatedAt = t
	}
	return &batch, nil
}

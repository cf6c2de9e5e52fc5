package attachment

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Source identifies where a cached attachment came from.
type Source string

// Attachment sources. Scans upload before picked files.
const (
	SourceScan   Source = "scan"
	SourcePicked Source = "picked"
)

// Valid reports whether the source is a known value.
func (s Source) Valid() bool {
	return s == SourceScan || s == SourcePicked
}

// Cached is one locally cached attachment awaiting upload.
type Cached struct {
	ID          string    `json:"id"`
	LocalPath   string    `json:"local_path"`
	DisplayName string    `json:"display_name"`
	MimeType    string    `json:"mime_type"`
	Source      Source    `json:"source"`
	Position    int       `json:"position"`
	OrderNumber string    `json:"order_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository persists cached-attachment metadata.
type Repository interface {
	// Add stores a new cached attachment.
	Add(ctx context.Context, cached Cached) error

	// ListForOrder retrieves an order's cached attachments in upload order:
	// scans first, then picked files, each by position.
	ListForOrder(ctx context.Context, orderNumber string) ([]Cached, error)

	// Delete removes an attachment record by id.
	// Returns ErrNotFound if the id does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Add stores a new cached attachment.
func (r *SQLiteRepository) Add(ctx context.Context, cached Cached) error {
	if !cached.Source.Valid() {
		return ErrInvalidSource
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attachments (id, local_path, display_name, mime_type,
			source, position, order_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cached.ID,
		cached.LocalPath,
		cached.DisplayName,
		cached.MimeType,
		string(cached.Source),
		cached.Position,
		cached.OrderNumber,
		cached.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting attachment: %w", err)
	}
	return nil
}

// ListForOrder retrieves an order's cached attachments in upload order.
func (r *SQLiteRepository) ListForOrder(ctx context.Context, orderNumber string) ([]Cached, error) {
	// Scans sort before picked files; within a source, original position.
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, local_path, display_name, mime_type, source, position,
			order_number, created_at
		FROM attachments
		WHERE order_number = ?
		ORDER BY CASE source WHEN 'scan' THEN 0 ELSE 1 END, position`,
		orderNumber)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var cached []Cached
	for rows.Next() {
		var c Cached
		var source, createdAt string
		err := rows.Scan(&c.ID, &c.LocalPath, &c.DisplayName, &c.MimeType,
			&source, &c.Position, &c.OrderNumber, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		c.Source = Source(source)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			c.CreatedAt = t
		}
		cached = append(cached, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attachments: %w", err)
	}
	return cached, nil
}

// Delete removes an attachment record by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting attachment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

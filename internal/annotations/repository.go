package annotations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Annotation is a stored note on a form entry.
type Annotation struct {
	ID          uuid.UUID `json:"id"`
	FormID      int64     `json:"form_id"`
	EntryID     int64     `json:"entry_id"`
	Component   string    `json:"component"`
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository persists annotations in submission_annotations.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new annotations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a. Re-delivered events with a known id are ignored.
func (r *Repository) Insert(ctx context.Context, a Annotation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO submission_annotations (id, form_id, entry_id, component, status, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, a.ID, a.FormID, a.EntryID, a.Component, a.Status, a.Title, a.Description, a.CreatedAt)
	return err
}

// ListForEntry returns the newest annotations of one entry first.
func (r *Repository) ListForEntry(ctx context.Context, formID, entryID int64, limit int) ([]Annotation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, form_id, entry_id, component, status, title, description, created_at
		FROM submission_annotations
		WHERE form_id = $1 AND entry_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, formID, entryID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		var a Annotation
		if err := rows.Scan(&a.ID, &a.FormID, &a.EntryID, &a.Component, &a.Status, &a.Title, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound means the form has never been mapped.
var ErrNotFound = errors.New("form mapping not found")

// FormMapping is a stored mapping row.
type FormMapping struct {
	FormID    int64
	Config    Config
	UpdatedAt time.Time
}

// Repository persists mappings as JSONB keyed by form id.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new mapping repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads the mapping for a form.
func (r *Repository) Get(ctx context.Context, formID int64) (Config, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT config FROM form_mappings WHERE form_id = $1`, formID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, ErrNotFound
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Put replaces the mapping for a form.
func (r *Repository) Put(ctx context.Context, formID int64, cfg Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO form_mappings (form_id, config, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (form_id) DO UPDATE SET config = EXCLUDED.config, updated_at = now()
	`, formID, raw)
	return err
}

// List returns every stored mapping ordered by form id.
func (r *Repository) List(ctx context.Context) ([]FormMapping, error) {
	rows, err := r.pool.Query(ctx, `SELECT form_id, config, updated_at FROM form_mappings ORDER BY form_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FormMapping
	for rows.Next() {
		var (
			m   FormMapping
			raw []byte
		)
		if err := rows.Scan(&m.FormID, &raw, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &m.Config); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

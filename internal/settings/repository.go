package settings

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings is the single global sync settings row.
type Settings struct {
	ExcludedFormIDs []int64
	ExcludedEmails  string
	UpdatedAt       time.Time
}

// Repository reads and writes the sync_settings row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads the settings row.
func (r *Repository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `
		SELECT excluded_form_ids, excluded_emails, updated_at
		FROM sync_settings WHERE id = 1
	`).Scan(&s.ExcludedFormIDs, &s.ExcludedEmails, &s.UpdatedAt)
	if err != nil {
		return Settings{}, err
	}
	if s.ExcludedFormIDs == nil {
		s.ExcludedFormIDs = []int64{}
	}
	return s, nil
}

// Put replaces both settings values.
func (r *Repository) Put(ctx context.Context, s Settings) error {
	ids := s.ExcludedFormIDs
	if ids == nil {
		ids = []int64{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sync_settings (id, excluded_form_ids, excluded_emails, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET excluded_form_ids = EXCLUDED.excluded_form_ids,
		    excluded_emails = EXCLUDED.excluded_emails,
		    updated_at = now()
	`, ids, s.ExcludedEmails)
	return err
}

// SetFormExcluded adds or removes one form id in a single statement so
// concurrent mapping saves cannot lose each other's updates.
func (r *Repository) SetFormExcluded(ctx context.Context, formID int64, excluded bool) error {
	query := `
		UPDATE sync_settings
		SET excluded_form_ids = array_remove(excluded_form_ids, $1::bigint), updated_at = now()
		WHERE id = 1
	`
	if excluded {
		query = `
			UPDATE sync_settings
			SET excluded_form_ids = array_append(array_remove(excluded_form_ids, $1::bigint), $1::bigint),
			    updated_at = now()
			WHERE id = 1
		`
	}
	_, err := r.pool.Exec(ctx, query, formID)
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"fleet-backoffice/internal/repository"
)

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, rows.Err()
}

func (r *settingsRepository) UpsertSetting(ctx context.Context, key, value string) error {
	query := `INSERT INTO settings (key, value, updated_on) VALUES ($1, $2, $3)
	          ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_on = EXCLUDED.updated_on`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	return err
}

package postgres

import (
	"context"
	"database/sql"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/repository"
)

type exportRepository struct {
	db *sql.DB
}

func NewExportRepository(db *sql.DB) repository.ExportRepository {
	return &exportRepository{db: db}
}

func (r *exportRepository) HasSucceeded(ctx context.Context, month domain.Month) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM export_records WHERE reference_month = $1 AND outcome = $2)`
	err := r.db.QueryRowContext(ctx, query, month.String(), domain.ExportSucceeded).Scan(&exists)
	return exists, err
}

func (r *exportRepository) Record(ctx context.Context, rec *domain.ExportRecord) (bool, error) {
	logger.DatabaseCall("export_records.record", "month", rec.ReferenceMonth.String(), "outcome", rec.Outcome)
	query := `INSERT INTO export_records (reference_month, sent_at, outcome, operator, message) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rec.ReferenceMonth.String(), rec.SentAt, rec.Outcome, rec.Operator, rec.Message).Scan(&rec.ID)
	if isUniqueViolation(err) {
		logger.Warn("Successful export already recorded", "month", rec.ReferenceMonth.String())
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *exportRepository) List(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	if limit <= 0 {
		limit = 24
	}
	query := `SELECT id, reference_month, sent_at, outcome, operator, message FROM export_records ORDER BY sent_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ExportRecord
	for rows.Next() {
		var rec domain.ExportRecord
		var month string
		if err := rows.Scan(&rec.ID, &month, &rec.SentAt, &rec.Outcome, &rec.Operator, &rec.Message); err != nil {
			return nil, err
		}
		if rec.ReferenceMonth, err = domain.ParseMonth(month); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/repository"
)

type rentalPeriodRepository struct {
	db *sql.DB
}

func NewRentalPeriodRepository(db *sql.DB) repository.RentalPeriodRepository {
	return &rentalPeriodRepository{db: db}
}

const rentalPeriodColumns = `id, customer_tax_id, asset_plate, start_date, end_date`

func (r *rentalPeriodRepository) Start(ctx context.Context, p *domain.RentalPeriod) error {
	p.CustomerTaxID = domain.NormalizeTaxID(p.CustomerTaxID)
	query := `INSERT INTO rental_periods (customer_tax_id, asset_plate, start_date, end_date) VALUES ($1, $2, $3, $4) RETURNING id`
	return r.db.QueryRowContext(ctx, query, p.CustomerTaxID, p.AssetPlate, p.StartDate, p.EndDate).Scan(&p.ID)
}

func (r *rentalPeriodRepository) End(ctx context.Context, id int64, endDate time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rental_periods SET end_date = $1 WHERE id = $2`, endDate, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *rentalPeriodRepository) FindCovering(ctx context.Context, taxID string, day time.Time) (*domain.RentalPeriod, error) {
	query := `SELECT ` + rentalPeriodColumns + ` FROM rental_periods
	          WHERE customer_tax_id = $1 AND start_date <= $2 AND (end_date IS NULL OR end_date >= $2)
	          ORDER BY start_date DESC, id DESC LIMIT 1`
	p, err := scanRentalPeriod(r.db.QueryRowContext(ctx, query, domain.NormalizeTaxID(taxID), day))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *rentalPeriodRepository) ListByAsset(ctx context.Context, plate string) ([]domain.RentalPeriod, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+rentalPeriodColumns+` FROM rental_periods WHERE asset_plate = $1 ORDER BY start_date DESC`, plate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []domain.RentalPeriod
	for rows.Next() {
		p, err := scanRentalPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

func (r *rentalPeriodRepository) GetOpenByAsset(ctx context.Context, plate string) (*domain.RentalPeriod, error) {
	query := `SELECT ` + rentalPeriodColumns + ` FROM rental_periods WHERE asset_plate = $1 AND end_date IS NULL ORDER BY start_date DESC LIMIT 1`
	p, err := scanRentalPeriod(r.db.QueryRowContext(ctx, query, plate))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func scanRentalPeriod(row rowScanner) (*domain.RentalPeriod, error) {
	var p domain.RentalPeriod
	var end sql.NullTime
	if err := row.Scan(&p.ID, &p.CustomerTaxID, &p.AssetPlate, &p.StartDate, &end); err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		p.EndDate = &t
	}
	return &p, nil
}

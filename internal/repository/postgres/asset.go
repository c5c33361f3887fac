package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/repository"
)

type assetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) repository.AssetRepository {
	return &assetRepository{db: db}
}

const assetColumns = `plate, model, availability, renter_id, acquisition_cost, acquired_on, odometer_km`

func (r *assetRepository) Create(ctx context.Context, a *domain.Asset) (bool, error) {
	query := `INSERT INTO assets (plate, model, availability, acquisition_cost, acquired_on, odometer_km) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, a.Plate, a.Model, a.Availability, a.AcquisitionCost, a.AcquiredOn, a.OdometerKm)
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *assetRepository) GetByPlate(ctx context.Context, plate string) (*domain.Asset, error) {
	a, err := scanAsset(r.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE plate = $1`, plate))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY plate`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

func (r *assetRepository) Update(ctx context.Context, a *domain.Asset) error {
	query := `UPDATE assets SET model=$1, availability=$2, acquisition_cost=$3, acquired_on=$4, odometer_km=$5 WHERE plate=$6`
	res, err := r.db.ExecContext(ctx, query, a.Model, a.Availability, a.AcquisitionCost, a.AcquiredOn, a.OdometerKm, a.Plate)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *assetRepository) Bind(ctx context.Context, plate string, renterID int64) error {
	logger.DatabaseCall("assets.bind", "plate", plate, "renter_id", renterID)
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var current sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT renter_id FROM assets WHERE plate = $1 FOR UPDATE`, plate).Scan(&current); err != nil {
			return notFound(err)
		}

		var previousPlate sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT asset_plate FROM renters WHERE id = $1 FOR UPDATE`, renterID).Scan(&previousPlate); err != nil {
			return notFound(err)
		}

		// Prior renter of this asset loses it.
		if _, err := tx.ExecContext(ctx, `UPDATE renters SET asset_plate = NULL WHERE asset_plate = $1 AND id <> $2`, plate, renterID); err != nil {
			return err
		}
		// Prior asset of this renter is released.
		if previousPlate.Valid && previousPlate.String != plate {
			if _, err := tx.ExecContext(ctx, `UPDATE assets SET renter_id = NULL, availability = $1 WHERE plate = $2`, domain.AssetAvailable, previousPlate.String); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `UPDATE assets SET renter_id = $1, availability = $2 WHERE plate = $3`, renterID, domain.AssetRented, plate); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE renters SET asset_plate = $1 WHERE id = $2`, plate, renterID)
		return err
	})
}

func (r *assetRepository) Unbind(ctx context.Context, plate string) error {
	logger.DatabaseCall("assets.unbind", "plate", plate)
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE assets SET renter_id = NULL, availability = $1 WHERE plate = $2`, domain.AssetAvailable, plate)
		if err != nil {
			return err
		}
		if err := requireRow(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE renters SET asset_plate = NULL WHERE asset_plate = $1`, plate)
		return err
	})
}

func (r *assetRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var a domain.Asset
	var renterID sql.NullInt64
	if err := row.Scan(&a.Plate, &a.Model, &a.Availability, &renterID, &a.AcquisitionCost, &a.AcquiredOn, &a.OdometerKm); err != nil {
		return nil, err
	}
	if renterID.Valid {
		id := renterID.Int64
		a.RenterID = &id
	}
	return &a, nil
}

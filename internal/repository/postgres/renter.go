package postgres

import (
	"context"
	"database/sql"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/repository"
)

type renterRepository struct {
	db *sql.DB
}

func NewRenterRepository(db *sql.DB) repository.RenterRepository {
	return &renterRepository{db: db}
}

const renterColumns = `id, name, tax_id, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), COALESCE(driver_license, ''), COALESCE(asset_plate, ''), COALESCE(gateway_customer_id, '')`

func (r *renterRepository) Create(ctx context.Context, rn *domain.Renter) (bool, error) {
	rn.TaxID = domain.NormalizeTaxID(rn.TaxID)
	query := `INSERT INTO renters (name, tax_id, email, phone, address, driver_license, gateway_customer_id, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, rn.Name, rn.TaxID, nullString(rn.Email), nullString(rn.Phone), nullString(rn.Address), nullString(rn.DriverLicense), nullString(rn.GatewayCustomerID), now, now).Scan(&rn.ID)
	if isUniqueViolation(err) {
		logger.Debug("Renter already exists", "tax_id", rn.TaxID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *renterRepository) GetByID(ctx context.Context, id int64) (*domain.Renter, error) {
	query := `SELECT ` + renterColumns + ` FROM renters WHERE id = $1`
	rn, err := scanRenter(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return rn, nil
}

func (r *renterRepository) GetByTaxID(ctx context.Context, taxID string) (*domain.Renter, error) {
	query := `SELECT ` + renterColumns + ` FROM renters WHERE tax_id = $1`
	rn, err := scanRenter(r.db.QueryRowContext(ctx, query, domain.NormalizeTaxID(taxID)))
	if err != nil {
		return nil, notFound(err)
	}
	return rn, nil
}

func (r *renterRepository) List(ctx context.Context) ([]domain.Renter, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+renterColumns+` FROM renters ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var renters []domain.Renter
	for rows.Next() {
		rn, err := scanRenter(rows)
		if err != nil {
			return nil, err
		}
		renters = append(renters, *rn)
	}
	return renters, rows.Err()
}

func (r *renterRepository) Update(ctx context.Context, rn *domain.Renter) error {
	query := `UPDATE renters SET name=$1, email=$2, phone=$3, address=$4, driver_license=$5, gateway_customer_id=$6, updated_on=$7 WHERE id=$8`
	res, err := r.db.ExecContext(ctx, query, rn.Name, nullString(rn.Email), nullString(rn.Phone), nullString(rn.Address), nullString(rn.DriverLicense), nullString(rn.GatewayCustomerID), time.Now(), rn.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *renterRepository) UpsertByTaxID(ctx context.Context, rn *domain.Renter) (bool, error) {
	rn.TaxID = domain.NormalizeTaxID(rn.TaxID)
	query := `INSERT INTO renters (name, tax_id, email, phone, address, gateway_customer_id, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	          ON CONFLICT (tax_id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone,
	              address = EXCLUDED.address, gateway_customer_id = EXCLUDED.gateway_customer_id, updated_on = EXCLUDED.updated_on
	          RETURNING id, (xmax = 0) AS inserted`
	var inserted bool
	err := r.db.QueryRowContext(ctx, query, rn.Name, rn.TaxID, nullString(rn.Email), nullString(rn.Phone), nullString(rn.Address), nullString(rn.GatewayCustomerID), time.Now()).Scan(&rn.ID, &inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func scanRenter(row rowScanner) (*domain.Renter, error) {
	var rn domain.Renter
	if err := row.Scan(&rn.ID, &rn.Name, &rn.TaxID, &rn.Email, &rn.Phone, &rn.Address, &rn.DriverLicense, &rn.AssetPlate, &rn.GatewayCustomerID); err != nil {
		return nil, err
	}
	return &rn, nil
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/repository"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, kind, origin, category, gross, net, occurred_on, status, customer_tax_id, asset_plate, description`

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	logger.DatabaseCall("transactions.create", "kind", t.Kind, "occurred_on", t.OccurredOn)
	query := `INSERT INTO transactions (kind, origin, category, gross, net, occurred_on, status, customer_tax_id, asset_plate, description, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	now := time.Now()
	var id int64
	err := r.db.QueryRowContext(ctx, query, t.Kind, t.Origin, t.Category, t.Gross, t.Net, t.OccurredOn, t.Status, t.CustomerTaxID, t.AssetPlate, t.Description, now, now).Scan(&id)
	if err != nil {
		logger.DatabaseResult("transactions.create", 0, err)
		return err
	}
	t.ID = &id
	t.Source = domain.SourceManual
	logger.DatabaseResult("transactions.create", 1, nil, "id", id)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *transactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	if t.ID == nil {
		return repository.ErrNotFound
	}
	query := `UPDATE transactions SET kind=$1, origin=$2, category=$3, gross=$4, net=$5, occurred_on=$6, status=$7, customer_tax_id=$8, asset_plate=$9, description=$10, updated_on=$11 WHERE id=$12`
	res, err := r.db.ExecContext(ctx, query, t.Kind, t.Origin, t.Category, t.Gross, t.Net, t.OccurredOn, t.Status, t.CustomerTaxID, t.AssetPlate, t.Description, time.Now(), *t.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id int64, status domain.SettlementStatus) error {
	query := `UPDATE transactions SET status=$1, updated_on=$2 WHERE id=$3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *transactionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *transactionRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	logger.DatabaseCall("transactions.list_by_period", "from", from, "to", to)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE occurred_on >= $1 AND occurred_on <= $2 ORDER BY occurred_on, id`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		logger.DatabaseResult("transactions.list_by_period", 0, err)
		return nil, err
	}
	defer rows.Close()
	txs, err := collectTransactions(rows)
	logger.DatabaseResult("transactions.list_by_period", int64(len(txs)), err)
	return txs, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var id int64
	if err := row.Scan(&id, &t.Kind, &t.Origin, &t.Category, &t.Gross, &t.Net, &t.OccurredOn, &t.Status, &t.CustomerTaxID, &t.AssetPlate, &t.Description); err != nil {
		return nil, err
	}
	t.ID = &id
	t.Source = domain.SourceManual
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"fleet-backoffice/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// TransactionRepository stores manual ledger entries. Gateway and bank rows
// are never persisted.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	UpdateStatus(ctx context.Context, id int64, status domain.SettlementStatus) error
	Delete(ctx context.Context, id int64) error
	ListByPeriod(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
}

type RenterRepository interface {
	// Create returns false when a renter with the same tax id already exists
	Create(ctx context.Context, renter *domain.Renter) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Renter, error)
	GetByTaxID(ctx context.Context, taxID string) (*domain.Renter, error)
	List(ctx context.Context) ([]domain.Renter, error)
	Update(ctx context.Context, renter *domain.Renter) error
	// UpsertByTaxID inserts or refreshes contact data, reporting whether a row was inserted
	UpsertByTaxID(ctx context.Context, renter *domain.Renter) (bool, error)
}

type AssetRepository interface {
	Create(ctx context.Context, asset *domain.Asset) (bool, error)
	GetByPlate(ctx context.Context, plate string) (*domain.Asset, error)
	List(ctx context.Context) ([]domain.Asset, error)
	Update(ctx context.Context, asset *domain.Asset) error
	// Bind links the asset and renter in both directions, clearing any prior
	// links on either side in the same database transaction.
	Bind(ctx context.Context, plate string, renterID int64) error
	Unbind(ctx context.Context, plate string) error
}

type RentalPeriodRepository interface {
	Start(ctx context.Context, period *domain.RentalPeriod) error
	End(ctx context.Context, id int64, endDate time.Time) error
	// FindCovering returns the most recently started period for the customer
	// covering day, or ErrNotFound.
	FindCovering(ctx context.Context, taxID string, day time.Time) (*domain.RentalPeriod, error)
	ListByAsset(ctx context.Context, plate string) ([]domain.RentalPeriod, error)
	GetOpenByAsset(ctx context.Context, plate string) (*domain.RentalPeriod, error)
}

type ExportRepository interface {
	HasSucceeded(ctx context.Context, month domain.Month) (bool, error)
	// Record returns false when a successful export already exists for the month
	Record(ctx context.Context, rec *domain.ExportRecord) (bool, error)
	List(ctx context.Context, limit int) ([]domain.ExportRecord, error)
}

type SettingsRepository interface {
	ListSettings(ctx context.Context) (map[string]string, error)
	UpsertSetting(ctx context.Context, key, value string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (bool, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"fleet-backoffice/internal/repository"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
	repository.TransactionRepository
	repository.RenterRepository
	repository.AssetRepository
	repository.RentalPeriodRepository
	repository.ExportRepository
	repository.SettingsRepository
	repository.UserRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		TransactionRepository:  NewTransactionRepository(db),
		RenterRepository:       NewRenterRepository(db),
		AssetRepository:        NewAssetRepository(db),
		RentalPeriodRepository: NewRentalPeriodRepository(db),
		ExportRepository:       NewExportRepository(db),
		SettingsRepository:     NewSettingsRepository(db),
		UserRepository:         NewUserRepository(db),
	}
}

// Open connects to PostgreSQL and verifies the connection
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Package app wires configuration, storage, provider clients and services
// for the server and cronjob binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider"
	"fleet-backoffice/internal/provider/bank"
	"fleet-backoffice/internal/provider/gateway"
	"fleet-backoffice/internal/reconcile"
	"fleet-backoffice/internal/repository/postgres"
	"fleet-backoffice/internal/security"
	"fleet-backoffice/internal/service"
)

type App struct {
	Config   *config.Config
	DB       *sql.DB
	Store    *postgres.Store
	Settings *config.Settings
	Gateway  *gateway.Client
	Bank     *bank.Client
	Engine   *reconcile.Engine
	Tokens   security.TokenManager

	Auth   service.AuthService
	Ledger service.LedgerService
	Fleet  service.FleetService
	Renter service.RenterService
	Email  service.EmailService
	Export service.ExportService
	Sweep  service.SweepService
	Report service.ReportService
}

// New connects to the database, applies migrations when enabled and builds
// every service. The webhook service is built separately since it owns a
// journal file.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := postgres.Open(cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	if cfg.Database.Migrate {
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database migrations applied")
	}

	store := postgres.NewStore(db)
	settings, err := config.LoadSettings(ctx, cfg.Settings, store.SettingsRepository, os.LookupEnv)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	opts := provider.Options{Timeout: cfg.ProviderTimeout(), RetryMax: cfg.Providers.RetryMax}
	gw := gateway.NewClient(settings, opts)
	bk := bank.NewClient(settings, cfg.Providers.CertDir, opts)
	engine := reconcile.NewEngine(gw, bk, store.TransactionRepository, store.RenterRepository, store.AssetRepository)
	tokens := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	email := service.NewEmailService(settings)
	a := &App{
		Config:   cfg,
		DB:       db,
		Store:    store,
		Settings: settings,
		Gateway:  gw,
		Bank:     bk,
		Engine:   engine,
		Tokens:   tokens,
		Auth:     service.NewAuthService(store.UserRepository, tokens),
		Ledger:   service.NewLedgerService(store.TransactionRepository, store.RentalPeriodRepository, cfg.Ledger.ExpenseCategories),
		Fleet:    service.NewFleetService(store.AssetRepository, store.RenterRepository, store.RentalPeriodRepository),
		Renter:   service.NewRenterService(store.RenterRepository, gw),
		Email:    email,
		Export:   service.NewExportService(store.ExportRepository, bk, engine, email, settings),
		Sweep:    service.NewSweepService(gw, settings),
		Report:   service.NewReportService(engine),
	}
	return a, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

package service

import (
	"context"
	"fmt"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/reconcile"

	"github.com/shopspring/decimal"
)

// InputError marks a request the caller must correct
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return &InputError{Err: fmt.Errorf(format, args...)}
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	CreateUser(ctx context.Context, name, username, email, password string, role domain.UserRole) (*domain.User, error)
}

type LedgerService interface {
	Record(ctx context.Context, tx *domain.Transaction) error
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) error
	SetStatus(ctx context.Context, id int64, status domain.SettlementStatus) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
	Categories() []string
}

type FleetService interface {
	CreateAsset(ctx context.Context, asset *domain.Asset) error
	GetAsset(ctx context.Context, plate string) (*domain.Asset, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	UpdateAsset(ctx context.Context, asset *domain.Asset) error
	Bind(ctx context.Context, plate string, renterID int64) error
	Unbind(ctx context.Context, plate string) error
	StartRental(ctx context.Context, plate string, renterID int64, start time.Time) (*domain.RentalPeriod, error)
	EndRental(ctx context.Context, plate string, end time.Time) (*domain.RentalPeriod, error)
	RentalHistory(ctx context.Context, plate string) ([]domain.RentalPeriod, error)
}

type RenterService interface {
	Create(ctx context.Context, renter *domain.Renter) error
	Get(ctx context.Context, id int64) (*domain.Renter, error)
	List(ctx context.Context) ([]domain.Renter, error)
	Update(ctx context.Context, renter *domain.Renter) error
	SyncFromGateway(ctx context.Context) (*SyncResult, error)
}

type ExportService interface {
	// RunMonthly never returns an error; every outcome is in the result
	RunMonthly(ctx context.Context, month domain.Month, operator string) ExportResult
	History(ctx context.Context, limit int) ([]domain.ExportRecord, error)
}

type SweepService interface {
	Sweep(ctx context.Context, operator string) (*SweepResult, error)
}

type WebhookService interface {
	HandleEvent(ctx context.Context, event WebhookEvent) (*WebhookResult, error)
	ClearUnknown(ctx context.Context, paymentID string) error
}

type EmailService interface {
	SendAccountantExport(ctx context.Context, to string, month domain.Month, attachments []Attachment) (EmailResult, error)
}

// ReportService exposes the reconciliation views
type ReportService interface {
	Dashboard(ctx context.Context) *reconcile.Dashboard
	Period(ctx context.Context, from, to time.Time) (*reconcile.PeriodView, error)
	Customer(ctx context.Context, taxID string, from, to time.Time) (*reconcile.CustomerRollup, reconcile.Section, error)
	BankMovements(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
	FleetValuation(ctx context.Context) ([]reconcile.AssetValuation, error)
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type EmailResult struct {
	Simulated bool
	Message   string
}

type ExportStatus string

const (
	ExportStatusSkipped   ExportStatus = "skipped"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

type ExportResult struct {
	Month   domain.Month         `json:"month"`
	Status  ExportStatus         `json:"status"`
	Message string               `json:"message"`
	Record  *domain.ExportRecord `json:"record,omitempty"`
}

type SweepResult struct {
	Balance    decimal.Decimal `json:"balance"`
	Amount     decimal.Decimal `json:"amount"`
	TransferID string          `json:"transfer_id,omitempty"`
	Skipped    bool            `json:"skipped"`
	Message    string          `json:"message"`
}

type SyncResult struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

type WebhookEvent struct {
	Event   string         `json:"event"`
	Payment WebhookPayment `json:"payment"`
}

type WebhookPayment struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	Value             decimal.Decimal `json:"value"`
	NetValue          decimal.Decimal `json:"netValue"`
	Status            string          `json:"status"`
	PaymentDate       string          `json:"paymentDate"`
	ClientPaymentDate string          `json:"clientPaymentDate"`
}

type WebhookResult struct {
	Action     string `json:"action"`
	TransferID string `json:"transfer_id,omitempty"`
	Message    string `json:"message"`
}

package service

import (
	"context"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/provider/bank"
	"fleet-backoffice/internal/provider/gateway"
	"fleet-backoffice/internal/reconcile"
	"fleet-backoffice/internal/webhook"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockExportRepo
type MockExportRepo struct {
	mock.Mock
}

func (m *MockExportRepo) HasSucceeded(ctx context.Context, month domain.Month) (bool, error) {
	args := m.Called(ctx, month)
	return args.Bool(0), args.Error(1)
}
func (m *MockExportRepo) Record(ctx context.Context, rec *domain.ExportRecord) (bool, error) {
	args := m.Called(ctx, rec)
	return args.Bool(0), args.Error(1)
}
func (m *MockExportRepo) List(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.ExportRecord), args.Error(1)
}

// MockStatementExporter
type MockStatementExporter struct {
	mock.Mock
}

func (m *MockStatementExporter) ExportStatement(ctx context.Context, from, to time.Time, format bank.ExportFormat) (string, error) {
	args := m.Called(ctx, from, to, format)
	return args.String(0), args.Error(1)
}

// MockReceiptSource
type MockReceiptSource struct {
	mock.Mock
}

func (m *MockReceiptSource) Receipts(ctx context.Context, from, to time.Time) ([]reconcile.CustomerRollup, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconcile.CustomerRollup), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendAccountantExport(ctx context.Context, to string, month domain.Month, attachments []Attachment) (EmailResult, error) {
	args := m.Called(ctx, to, month, attachments)
	return args.Get(0).(EmailResult), args.Error(1)
}

// MockTransferer
type MockTransferer struct {
	mock.Mock
}

func (m *MockTransferer) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockTransferer) CreatePixTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.Transfer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Transfer), args.Error(1)
}

// MockJournal
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Claim(paymentID, event, correlationID string) (*webhook.Entry, bool, error) {
	args := m.Called(paymentID, event, correlationID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*webhook.Entry), args.Bool(1), args.Error(2)
}
func (m *MockJournal) Complete(paymentID, transferID string) error {
	return m.Called(paymentID, transferID).Error(0)
}
func (m *MockJournal) Release(paymentID string) error {
	return m.Called(paymentID).Error(0)
}
func (m *MockJournal) MarkUnknown(paymentID, reason string) error {
	return m.Called(paymentID, reason).Error(0)
}
func (m *MockJournal) ClearUnknown(paymentID string) error {
	return m.Called(paymentID).Error(0)
}

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockTransactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) Update(ctx context.Context, tx *domain.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}
func (m *MockTransactionRepo) UpdateStatus(ctx context.Context, id int64, status domain.SettlementStatus) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *MockTransactionRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockTransactionRepo) ListByPeriod(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// MockPeriodRepo
type MockPeriodRepo struct {
	mock.Mock
}

func (m *MockPeriodRepo) Start(ctx context.Context, period *domain.RentalPeriod) error {
	return m.Called(ctx, period).Error(0)
}
func (m *MockPeriodRepo) End(ctx context.Context, id int64, endDate time.Time) error {
	return m.Called(ctx, id, endDate).Error(0)
}
func (m *MockPeriodRepo) FindCovering(ctx context.Context, taxID string, day time.Time) (*domain.RentalPeriod, error) {
	args := m.Called(ctx, taxID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalPeriod), args.Error(1)
}
func (m *MockPeriodRepo) ListByAsset(ctx context.Context, plate string) ([]domain.RentalPeriod, error) {
	args := m.Called(ctx, plate)
	return args.Get(0).([]domain.RentalPeriod), args.Error(1)
}
func (m *MockPeriodRepo) GetOpenByAsset(ctx context.Context, plate string) (*domain.RentalPeriod, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalPeriod), args.Error(1)
}

// MockAssetRepo
type MockAssetRepo struct {
	mock.Mock
}

func (m *MockAssetRepo) Create(ctx context.Context, asset *domain.Asset) (bool, error) {
	args := m.Called(ctx, asset)
	return args.Bool(0), args.Error(1)
}
func (m *MockAssetRepo) GetByPlate(ctx context.Context, plate string) (*domain.Asset, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}
func (m *MockAssetRepo) List(ctx context.Context) ([]domain.Asset, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Asset), args.Error(1)
}
func (m *MockAssetRepo) Update(ctx context.Context, asset *domain.Asset) error {
	return m.Called(ctx, asset).Error(0)
}
func (m *MockAssetRepo) Bind(ctx context.Context, plate string, renterID int64) error {
	return m.Called(ctx, plate, renterID).Error(0)
}
func (m *MockAssetRepo) Unbind(ctx context.Context, plate string) error {
	return m.Called(ctx, plate).Error(0)
}

// MockRenterRepo
type MockRenterRepo struct {
	mock.Mock
}

func (m *MockRenterRepo) Create(ctx context.Context, renter *domain.Renter) (bool, error) {
	args := m.Called(ctx, renter)
	return args.Bool(0), args.Error(1)
}
func (m *MockRenterRepo) GetByID(ctx context.Context, id int64) (*domain.Renter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Renter), args.Error(1)
}
func (m *MockRenterRepo) GetByTaxID(ctx context.Context, taxID string) (*domain.Renter, error) {
	args := m.Called(ctx, taxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Renter), args.Error(1)
}
func (m *MockRenterRepo) List(ctx context.Context) ([]domain.Renter, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Renter), args.Error(1)
}
func (m *MockRenterRepo) Update(ctx context.Context, renter *domain.Renter) error {
	return m.Called(ctx, renter).Error(0)
}
func (m *MockRenterRepo) UpsertByTaxID(ctx context.Context, renter *domain.Renter) (bool, error) {
	args := m.Called(ctx, renter)
	return args.Bool(0), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}
func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockCustomerSource
type MockCustomerSource struct {
	mock.Mock
}

func (m *MockCustomerSource) GetCustomers(ctx context.Context) ([]gateway.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]gateway.Customer), args.Error(1)
}

package reconcile

import (
	"context"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/provider/bank"
	"fleet-backoffice/internal/provider/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockGateway) GetAllPayments(ctx context.Context, from, to time.Time) ([]gateway.Payment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Payment), args.Error(1)
}
func (m *MockGateway) GetReceivedPayments(ctx context.Context, from, to time.Time) ([]gateway.Payment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Payment), args.Error(1)
}
func (m *MockGateway) GetCustomers(ctx context.Context) ([]gateway.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Customer), args.Error(1)
}

type MockBank struct {
	mock.Mock
}

func (m *MockBank) GetBalance(ctx context.Context, asOf *time.Time) (*bank.Balance, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bank.Balance), args.Error(1)
}
func (m *MockBank) GetStatement(ctx context.Context, from, to time.Time) (*bank.Statement, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bank.Statement), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ListByPeriod(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

type MockRenters struct {
	mock.Mock
}

func (m *MockRenters) List(ctx context.Context) ([]domain.Renter, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Renter), args.Error(1)
}

type MockAssets struct {
	mock.Mock
}

func (m *MockAssets) List(ctx context.Context) ([]domain.Asset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Asset), args.Error(1)
}

type MockPeriodFinder struct {
	mock.Mock
}

func (m *MockPeriodFinder) FindCovering(ctx context.Context, taxID string, day time.Time) (*domain.RentalPeriod, error) {
	args := m.Called(ctx, taxID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalPeriod), args.Error(1)
}

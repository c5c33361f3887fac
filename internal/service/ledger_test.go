package service

import (
	"context"
	"testing"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_Record(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("Attributes asset from rental period", func(t *testing.T) {
		txRepo, periods := new(MockTransactionRepo), new(MockPeriodRepo)
		svc := NewLedgerService(txRepo, periods, []string{"Manutenção", "IPVA"})

		periods.On("FindCovering", ctx, "11122233344", day).Return(&domain.RentalPeriod{AssetPlate: "ABC1D23"}, nil)
		txRepo.On("Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
			return tx.AssetPlate == "ABC1D23" && tx.Source == domain.SourceManual && tx.Net.Equal(tx.Gross)
		})).Run(func(args mock.Arguments) {
			id := int64(1)
			args.Get(1).(*domain.Transaction).ID = &id
		}).Return(nil)

		tx := &domain.Transaction{Kind: domain.KindMoneyInGross, Gross: decimal.NewFromInt(400), OccurredOn: day, CustomerTaxID: "111.222.333-44"}
		require.NoError(t, svc.Record(ctx, tx))
		assert.Equal(t, "ABC1D23", tx.AssetPlate)
	})

	t.Run("No covering period leaves asset empty", func(t *testing.T) {
		txRepo, periods := new(MockTransactionRepo), new(MockPeriodRepo)
		svc := NewLedgerService(txRepo, periods, nil)

		periods.On("FindCovering", ctx, "11122233344", day).Return(nil, repository.ErrNotFound)
		txRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			id := int64(2)
			args.Get(1).(*domain.Transaction).ID = &id
		}).Return(nil)

		tx := &domain.Transaction{Kind: domain.KindMoneyInGross, Gross: decimal.NewFromInt(400), OccurredOn: day, CustomerTaxID: "11122233344"}
		require.NoError(t, svc.Record(ctx, tx))
		assert.Empty(t, tx.AssetPlate)
	})

	t.Run("Expense category allow-list", func(t *testing.T) {
		txRepo := new(MockTransactionRepo)
		svc := NewLedgerService(txRepo, new(MockPeriodRepo), []string{"Manutenção", "IPVA"})

		err := svc.Record(ctx, &domain.Transaction{Kind: domain.KindMoneyOut, Gross: decimal.NewFromInt(90), OccurredOn: day, Category: "Lazer"})
		assert.ErrorContains(t, err, "unknown expense category")

		err = svc.Record(ctx, &domain.Transaction{Kind: domain.KindMoneyOut, Gross: decimal.NewFromInt(90), OccurredOn: day})
		assert.ErrorIs(t, err, domain.ErrMissingCategory)

		txRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			id := int64(3)
			args.Get(1).(*domain.Transaction).ID = &id
		}).Return(nil)
		err = svc.Record(ctx, &domain.Transaction{Kind: domain.KindMoneyOut, Gross: decimal.NewFromInt(90), OccurredOn: day, Category: " ipva "})
		assert.NoError(t, err)
	})

	t.Run("Invalid amounts rejected", func(t *testing.T) {
		svc := NewLedgerService(new(MockTransactionRepo), new(MockPeriodRepo), nil)
		err := svc.Record(ctx, &domain.Transaction{Kind: domain.KindMoneyInGross, Gross: decimal.NewFromInt(10), Net: decimal.NewFromInt(12), OccurredOn: day})
		assert.ErrorIs(t, err, domain.ErrNetAboveGross)

		var input *InputError
		err = svc.Record(ctx, &domain.Transaction{Kind: domain.KindMoneyOut, Category: "fuel", Gross: decimal.RequireFromString("19.999"), OccurredOn: day})
		assert.ErrorAs(t, err, &input)
		assert.ErrorIs(t, err, domain.ErrSubCentAmount)
	})
}

func TestLedgerService_SetStatusAndList(t *testing.T) {
	ctx := context.Background()
	txRepo := new(MockTransactionRepo)
	svc := NewLedgerService(txRepo, new(MockPeriodRepo), nil)

	txRepo.On("UpdateStatus", ctx, int64(5), domain.StatusRefunded).Return(nil)
	assert.NoError(t, svc.SetStatus(ctx, 5, domain.StatusRefunded))
	assert.Error(t, svc.SetStatus(ctx, 5, "recebido"))

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.List(ctx, from, from.AddDate(0, 0, -1))
	assert.Error(t, err)
}

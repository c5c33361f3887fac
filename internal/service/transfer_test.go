package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/provider"
	"fleet-backoffice/internal/provider/gateway"
	"fleet-backoffice/internal/webhook"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pixSettings() *config.Settings {
	return config.NewStaticSettings(map[string]string{
		config.KeySweepPixKey:     "12345678000199",
		config.KeySweepPixKeyType: "cnpj",
	})
}

func TestSweepService_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("Transfers full balance", func(t *testing.T) {
		gw := new(MockTransferer)
		gw.On("GetBalance", ctx).Return(decimal.RequireFromString("1530.25"), nil)
		gw.On("CreatePixTransfer", ctx, mock.MatchedBy(func(r gateway.TransferRequest) bool {
			return r.Value.Equal(decimal.RequireFromString("1530.25")) && r.PixAddressKey == "12345678000199" && r.PixAddressKeyType == "CNPJ"
		})).Return(&gateway.Transfer{ID: "tr_1"}, nil)

		res, err := NewSweepService(gw, pixSettings()).Sweep(ctx, "maria")
		require.NoError(t, err)
		assert.False(t, res.Skipped)
		assert.Equal(t, "tr_1", res.TransferID)
		assert.True(t, res.Amount.Equal(res.Balance))
	})

	t.Run("Zero balance skipped", func(t *testing.T) {
		gw := new(MockTransferer)
		gw.On("GetBalance", ctx).Return(decimal.Zero, nil)

		res, err := NewSweepService(gw, pixSettings()).Sweep(ctx, "maria")
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		gw.AssertNotCalled(t, "CreatePixTransfer", mock.Anything, mock.Anything)
	})

	t.Run("Missing pix key", func(t *testing.T) {
		gw := new(MockTransferer)
		_, err := NewSweepService(gw, config.NewStaticSettings(nil)).Sweep(ctx, "maria")
		var cfgErr *provider.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, config.KeySweepPixKey, cfgErr.Setting)
		gw.AssertNotCalled(t, "GetBalance", mock.Anything)
	})

	t.Run("Transfer error propagates", func(t *testing.T) {
		gw := new(MockTransferer)
		gw.On("GetBalance", ctx).Return(decimal.NewFromInt(10), nil)
		gw.On("CreatePixTransfer", ctx, mock.Anything).Return(nil, &provider.StatusError{Provider: "gateway", StatusCode: 400, Message: "Chave inválida"})

		_, err := NewSweepService(gw, pixSettings()).Sweep(ctx, "maria")
		assert.ErrorContains(t, err, "Chave inválida")
	})
}

func receivedEvent() WebhookEvent {
	return WebhookEvent{
		Event: EventPaymentReceived,
		Payment: WebhookPayment{
			ID:       "pay_1",
			Value:    decimal.NewFromInt(100),
			NetValue: decimal.RequireFromString("98.01"),
		},
	}
}

func TestWebhookService_HandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Transfers net value once", func(t *testing.T) {
		gw := new(MockTransferer)
		journal := new(MockJournal)
		journal.On("Claim", "pay_1", EventPaymentReceived, mock.Anything).Return(&webhook.Entry{State: webhook.StateClaimed}, true, nil).Once()
		gw.On("GetBalance", ctx).Return(decimal.NewFromInt(500), nil)
		gw.On("CreatePixTransfer", ctx, mock.MatchedBy(func(r gateway.TransferRequest) bool {
			return r.Value.Equal(decimal.RequireFromString("98.01"))
		})).Return(&gateway.Transfer{ID: "tr_7"}, nil).Once()
		journal.On("Complete", "pay_1", "tr_7").Return(nil)

		svc := NewWebhookService(gw, journal, pixSettings())
		res, err := svc.HandleEvent(ctx, receivedEvent())
		require.NoError(t, err)
		assert.Equal(t, WebhookTransferred, res.Action)

		journal.On("Claim", "pay_1", EventPaymentReceived, mock.Anything).
			Return(&webhook.Entry{State: webhook.StateCompleted, TransferID: "tr_7"}, false, nil).Once()
		res, err = svc.HandleEvent(ctx, receivedEvent())
		require.NoError(t, err)
		assert.Equal(t, WebhookDuplicate, res.Action)
		assert.Equal(t, "tr_7", res.TransferID)
		gw.AssertNumberOfCalls(t, "CreatePixTransfer", 1)
	})

	t.Run("Insufficient balance releases claim", func(t *testing.T) {
		gw := new(MockTransferer)
		journal := new(MockJournal)
		journal.On("Claim", "pay_1", EventPaymentReceived, mock.Anything).Return(&webhook.Entry{}, true, nil)
		gw.On("GetBalance", ctx).Return(decimal.NewFromInt(50), nil)
		journal.On("Release", "pay_1").Return(nil)

		res, err := NewWebhookService(gw, journal, pixSettings()).HandleEvent(ctx, receivedEvent())
		require.NoError(t, err)
		assert.Equal(t, WebhookInsufficient, res.Action)
		journal.AssertCalled(t, "Release", "pay_1")
	})

	t.Run("Rejected transfer releases claim", func(t *testing.T) {
		gw := new(MockTransferer)
		journal := new(MockJournal)
		journal.On("Claim", "pay_1", EventPaymentReceived, mock.Anything).Return(&webhook.Entry{}, true, nil)
		gw.On("GetBalance", ctx).Return(decimal.NewFromInt(500), nil)
		gw.On("CreatePixTransfer", ctx, mock.Anything).Return(nil, &provider.StatusError{Provider: "gateway", StatusCode: 400, Message: "Chave inválida"})
		journal.On("Release", "pay_1").Return(nil)

		_, err := NewWebhookService(gw, journal, pixSettings()).HandleEvent(ctx, receivedEvent())
		assert.ErrorContains(t, err, "Chave inválida")
		journal.AssertCalled(t, "Release", "pay_1")
		journal.AssertNotCalled(t, "MarkUnknown", mock.Anything, mock.Anything)
	})

	t.Run("Timed out transfer is not repeated on redelivery", func(t *testing.T) {
		journal, err := webhook.Open(filepath.Join(t.TempDir(), "journal.db"))
		require.NoError(t, err)
		defer journal.Close()

		gw := new(MockTransferer)
		gw.On("GetBalance", ctx).Return(decimal.NewFromInt(500), nil)
		gw.On("CreatePixTransfer", ctx, mock.Anything).
			Return(nil, fmt.Errorf("gateway create transfer: %w", context.DeadlineExceeded)).Once()
		svc := NewWebhookService(gw, journal, pixSettings())

		res, err := svc.HandleEvent(ctx, receivedEvent())
		require.NoError(t, err)
		assert.Equal(t, WebhookUnknown, res.Action)
		entry, err := journal.Get("pay_1")
		require.NoError(t, err)
		assert.Equal(t, webhook.StateUnknown, entry.State)

		res, err = svc.HandleEvent(ctx, receivedEvent())
		require.NoError(t, err)
		assert.Equal(t, WebhookDuplicate, res.Action)
		gw.AssertNumberOfCalls(t, "CreatePixTransfer", 1)

		require.NoError(t, svc.ClearUnknown(ctx, "pay_1"))
		gw.On("CreatePixTransfer", ctx, mock.Anything).Return(&gateway.Transfer{ID: "tr_8"}, nil).Once()
		res, err = svc.HandleEvent(ctx, receivedEvent())
		require.NoError(t, err)
		assert.Equal(t, WebhookTransferred, res.Action)
	})

	t.Run("Only unknown entries can be cleared", func(t *testing.T) {
		journal, err := webhook.Open(filepath.Join(t.TempDir(), "journal.db"))
		require.NoError(t, err)
		defer journal.Close()
		_, _, err = journal.Claim("pay_1", EventPaymentReceived, "c")
		require.NoError(t, err)
		require.NoError(t, journal.Complete("pay_1", "tr_1"))

		svc := NewWebhookService(new(MockTransferer), journal, pixSettings())
		assert.ErrorIs(t, svc.ClearUnknown(ctx, "pay_1"), webhook.ErrNotUnknown)
	})

	t.Run("Other events ignored", func(t *testing.T) {
		res, err := NewWebhookService(new(MockTransferer), new(MockJournal), pixSettings()).
			HandleEvent(ctx, WebhookEvent{Event: "PAYMENT_CREATED"})
		require.NoError(t, err)
		assert.Equal(t, WebhookIgnored, res.Action)
	})

	t.Run("Missing pix key is a configuration error", func(t *testing.T) {
		_, err := NewWebhookService(new(MockTransferer), new(MockJournal), config.NewStaticSettings(nil)).
			HandleEvent(ctx, receivedEvent())
		var cfgErr *provider.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("Missing event type", func(t *testing.T) {
		_, err := NewWebhookService(new(MockTransferer), new(MockJournal), pixSettings()).HandleEvent(ctx, WebhookEvent{})
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})
}

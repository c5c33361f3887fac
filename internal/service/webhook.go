package service

import (
	"context"
	"errors"
	"fmt"

	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider"
	"fleet-backoffice/internal/provider/gateway"
	"fleet-backoffice/internal/webhook"

	"github.com/google/uuid"
)

const EventPaymentReceived = "PAYMENT_RECEIVED"

const (
	WebhookIgnored      = "ignored"
	WebhookDuplicate    = "duplicate"
	WebhookTransferred  = "transferred"
	WebhookInsufficient = "insufficient_balance"
	WebhookUnknown      = "transfer_unknown"
)

var ErrInvalidEvent = errors.New("invalid webhook event")

// EventJournal deduplicates payment deliveries
type EventJournal interface {
	Claim(paymentID, event, correlationID string) (*webhook.Entry, bool, error)
	Complete(paymentID, transferID string) error
	Release(paymentID string) error
	MarkUnknown(paymentID, reason string) error
	ClearUnknown(paymentID string) error
}

type webhookService struct {
	gateway  Transferer
	journal  EventJournal
	settings Settings
}

func NewWebhookService(gw Transferer, journal EventJournal, settings Settings) WebhookService {
	return &webhookService{gateway: gw, journal: journal, settings: settings}
}

// HandleEvent forwards the net value of a received payment to the bank.
// Ledger rows are not written; gateway payments are read live.
func (s *webhookService) HandleEvent(ctx context.Context, event WebhookEvent) (*WebhookResult, error) {
	if event.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrInvalidEvent)
	}
	if event.Event != EventPaymentReceived {
		return &WebhookResult{Action: WebhookIgnored, Message: fmt.Sprintf("event %s ignored", event.Event)}, nil
	}
	p := event.Payment
	if p.ID == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrInvalidEvent)
	}

	key, keyType, err := pixTarget(s.settings)
	if err != nil {
		return nil, err
	}

	amount := p.NetValue
	if amount.IsZero() {
		amount = p.Value
	}
	if !amount.IsPositive() {
		return &WebhookResult{Action: WebhookIgnored, Message: "payment has no value to transfer"}, nil
	}

	correlationID := uuid.NewString()
	entry, claimed, err := s.journal.Claim(p.ID, event.Event, correlationID)
	if err != nil {
		return nil, fmt.Errorf("failed to journal payment %s: %w", p.ID, err)
	}
	if !claimed {
		logger.InfoContext(ctx, "Webhook redelivery ignored", "payment_id", p.ID, "state", entry.State)
		return &WebhookResult{Action: WebhookDuplicate, TransferID: entry.TransferID, Message: "payment already processed"}, nil
	}

	release := func() {
		if err := s.journal.Release(p.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to release webhook claim", "payment_id", p.ID, "error", err)
		}
	}

	balance, err := s.gateway.GetBalance(ctx)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to read gateway balance: %w", err)
	}
	if balance.LessThan(amount) {
		release()
		logger.WarnContext(ctx, "Insufficient gateway balance for auto-transfer",
			"payment_id", p.ID, "balance", balance.StringFixed(2), "amount", amount.StringFixed(2))
		return &WebhookResult{Action: WebhookInsufficient, Message: fmt.Sprintf("balance %s below %s", balance.StringFixed(2), amount.StringFixed(2))}, nil
	}

	transfer, err := s.gateway.CreatePixTransfer(ctx, gateway.TransferRequest{
		Value:             amount,
		PixAddressKey:     key,
		PixAddressKeyType: keyType,
		Description:       fmt.Sprintf("Auto-transferencia pagamento %s", p.ID),
	})
	if err != nil {
		var statusErr *provider.StatusError
		if errors.As(err, &statusErr) {
			// the gateway rejected the transfer, a redelivery may retry it
			release()
			return nil, err
		}
		// the transfer may have gone out; keep the claim until an operator checks
		if markErr := s.journal.MarkUnknown(p.ID, err.Error()); markErr != nil {
			logger.ErrorContext(ctx, "Failed to mark webhook journal entry unknown", "payment_id", p.ID, "error", markErr)
		}
		logger.ErrorContext(ctx, "Auto-transfer outcome unknown, manual check required",
			"payment_id", p.ID, "amount", amount.StringFixed(2), "correlation_id", correlationID, "error", err)
		return &WebhookResult{Action: WebhookUnknown, Message: fmt.Sprintf("transfer outcome unknown: %v", err)}, nil
	}
	if err := s.journal.Complete(p.ID, transfer.ID); err != nil {
		// the transfer went out; keep the claim so it is not repeated
		logger.ErrorContext(ctx, "Failed to complete webhook journal entry", "payment_id", p.ID, "transfer_id", transfer.ID, "error", err)
	}

	logger.InfoContext(ctx, "Auto-transfer created",
		"payment_id", p.ID, "amount", amount.StringFixed(2), "transfer_id", transfer.ID, "correlation_id", correlationID)
	return &WebhookResult{Action: WebhookTransferred, TransferID: transfer.ID, Message: fmt.Sprintf("transferred %s", amount.StringFixed(2))}, nil
}

// ClearUnknown lets the next delivery of paymentID retry the transfer. Only
// entries whose transfer outcome is unknown can be cleared.
func (s *webhookService) ClearUnknown(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return invalidf("payment id is required")
	}
	if err := s.journal.ClearUnknown(paymentID); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Webhook journal entry cleared", "payment_id", paymentID)
	return nil
}

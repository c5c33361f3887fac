package service

import (
	"context"
	"fmt"
	"strings"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider"
	"fleet-backoffice/internal/provider/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transferer moves gateway balance out over Pix
type Transferer interface {
	GetBalance(ctx context.Context) (decimal.Decimal, error)
	CreatePixTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.Transfer, error)
}

type sweepService struct {
	gateway  Transferer
	settings Settings
}

func NewSweepService(gw Transferer, settings Settings) SweepService {
	return &sweepService{gateway: gw, settings: settings}
}

// pixTarget returns the configured destination key and key type
func pixTarget(settings Settings) (string, string, error) {
	key := strings.TrimSpace(settings.Get(config.KeySweepPixKey))
	if key == "" {
		return "", "", &provider.ConfigError{Provider: "gateway", Setting: config.KeySweepPixKey}
	}
	keyType := strings.TrimSpace(settings.Get(config.KeySweepPixKeyType))
	if keyType == "" {
		return "", "", &provider.ConfigError{Provider: "gateway", Setting: config.KeySweepPixKeyType}
	}
	return key, strings.ToUpper(keyType), nil
}

// Sweep transfers the whole available gateway balance to the bank. Repeated
// calls are not deduplicated.
func (s *sweepService) Sweep(ctx context.Context, operator string) (*SweepResult, error) {
	key, keyType, err := pixTarget(s.settings)
	if err != nil {
		return nil, err
	}

	balance, err := s.gateway.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway balance: %w", err)
	}
	result := &SweepResult{Balance: balance}
	if !balance.IsPositive() {
		result.Skipped = true
		result.Message = "no balance available to transfer"
		logger.InfoContext(ctx, "Sweep skipped", "operator", operator, "balance", balance.StringFixed(2))
		return result, nil
	}

	correlationID := uuid.NewString()
	transfer, err := s.gateway.CreatePixTransfer(ctx, gateway.TransferRequest{
		Value:             balance,
		PixAddressKey:     key,
		PixAddressKeyType: keyType,
		Description:       fmt.Sprintf("Transferencia de saldo %s", correlationID[:8]),
	})
	if err != nil {
		logger.ErrorContext(ctx, "Sweep transfer failed", "operator", operator, "correlation_id", correlationID, "error", err)
		return nil, err
	}

	result.Amount = balance
	result.TransferID = transfer.ID
	result.Message = fmt.Sprintf("transferred %s to %s", balance.StringFixed(2), keyType)
	logger.InfoContext(ctx, "Sweep transfer created",
		"operator", operator, "amount", balance.StringFixed(2), "transfer_id", transfer.ID, "correlation_id", correlationID)
	return result, nil
}

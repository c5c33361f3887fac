package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionSource string

const (
	SourceManual  TransactionSource = "manual"
	SourceGateway TransactionSource = "gateway"
	SourceBank    TransactionSource = "bank"
)

type TransactionKind string

const (
	KindMoneyInGross TransactionKind = "money_in_gross"
	KindMoneyInNet   TransactionKind = "money_in_net"
	KindMoneyOut     TransactionKind = "money_out"
)

func ParseTransactionKind(s string) (TransactionKind, error) {
	switch k := TransactionKind(s); k {
	case KindMoneyInGross, KindMoneyInNet, KindMoneyOut:
		return k, nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}

type SettlementStatus string

const (
	StatusPending  SettlementStatus = "pending"
	StatusSettled  SettlementStatus = "settled"
	StatusOverdue  SettlementStatus = "overdue"
	StatusRefunded SettlementStatus = "refunded"
)

func ParseSettlementStatus(s string) (SettlementStatus, error) {
	switch st := SettlementStatus(s); st {
	case StatusPending, StatusSettled, StatusOverdue, StatusRefunded:
		return st, nil
	}
	return "", fmt.Errorf("unknown settlement status %q", s)
}

var (
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrSubCentAmount   = errors.New("amount must have at most 2 decimal places")
	ErrNetAboveGross   = errors.New("net amount exceeds gross amount")
	ErrMissingDate     = errors.New("transaction date is required")
	ErrMissingCategory = errors.New("expense category is required")
)

// Transaction is the atomic financial fact. Manual rows carry an ID; gateway
// and bank rows are materialized per query and have none.
type Transaction struct {
	ID            *int64            `json:"id,omitempty"`
	Source        TransactionSource `json:"source"`
	Kind          TransactionKind   `json:"kind"`
	Origin        string            `json:"origin"`
	Category      string            `json:"category,omitempty"`
	Gross         decimal.Decimal   `json:"gross"`
	Net           decimal.Decimal   `json:"net"`
	OccurredOn    time.Time         `json:"occurred_on"`
	Status        SettlementStatus  `json:"status"`
	CustomerTaxID string            `json:"customer_tax_id,omitempty"`
	AssetPlate    string            `json:"asset_plate,omitempty"`
	ExternalID    string            `json:"external_id,omitempty"`
	Description   string            `json:"description,omitempty"`
}

func (t *Transaction) IsMoneyIn() bool {
	return t.Kind == KindMoneyInGross || t.Kind == KindMoneyInNet
}

// Fee is gross minus net for money-in rows and zero otherwise.
func (t *Transaction) Fee() decimal.Decimal {
	if !t.IsMoneyIn() {
		return decimal.Zero
	}
	return t.Gross.Sub(t.Net)
}

// Normalize applies the net-defaults-to-gross rule and canonicalizes the
// customer tax id.
func (t *Transaction) Normalize() {
	if t.Kind == KindMoneyOut || t.Kind == KindMoneyInNet || t.Net.IsZero() {
		t.Net = t.Gross
	}
	t.CustomerTaxID = NormalizeTaxID(t.CustomerTaxID)
	if t.Status == "" {
		t.Status = StatusSettled
	}
}

func (t *Transaction) Validate() error {
	if _, err := ParseTransactionKind(string(t.Kind)); err != nil {
		return err
	}
	if _, err := ParseSettlementStatus(string(t.Status)); err != nil {
		return err
	}
	if t.Gross.IsNegative() || t.Net.IsNegative() {
		return ErrNegativeAmount
	}
	// stored as NUMERIC(14,2); trailing zeros beyond cents are fine
	if !t.Gross.Equal(t.Gross.Round(2)) || !t.Net.Equal(t.Net.Round(2)) {
		return ErrSubCentAmount
	}
	if t.IsMoneyIn() && t.Net.GreaterThan(t.Gross) {
		return ErrNetAboveGross
	}
	if t.OccurredOn.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Package reconcile merges ledger rows with live provider data into the
// views the back office shows: balances, per-customer statements, the DRE
// and fleet figures. Provider data is fetched per refresh and never cached.
package reconcile

import (
	"strings"
	"time"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/provider/bank"
	"fleet-backoffice/internal/provider/gateway"

	"github.com/shopspring/decimal"
)

// IsReceived reports whether the gateway status means money changed hands
func IsReceived(status string) bool {
	switch status {
	case gateway.StatusReceived, gateway.StatusConfirmed, gateway.StatusReceivedInCash:
		return true
	}
	return false
}

// ChargedAmount is value + interest + fine - discount for received payments
// and the face value otherwise.
func ChargedAmount(p gateway.Payment) decimal.Decimal {
	if !IsReceived(p.Status) {
		return p.Value
	}
	amount := p.Value.Add(p.InterestValue).Add(p.FineValue)
	if p.Discount != nil {
		amount = amount.Sub(p.Discount.Value)
	}
	return amount
}

// SettlementStatus maps a gateway payment status onto the closed set
func SettlementStatus(status string) domain.SettlementStatus {
	switch {
	case IsReceived(status):
		return domain.StatusSettled
	case status == gateway.StatusOverdue:
		return domain.StatusOverdue
	case status == gateway.StatusRefunded,
		status == gateway.StatusRefundRequested,
		status == gateway.StatusRefundInProgress,
		strings.HasPrefix(status, "CHARGEBACK_"):
		return domain.StatusRefunded
	}
	return domain.StatusPending
}

// FromPayment materializes a gateway payment as a transaction. taxID is the
// normalized tax id of the payment's customer, empty when unknown.
func FromPayment(p gateway.Payment, taxID string) domain.Transaction {
	gross := ChargedAmount(p)
	net := p.NetValue
	if net.IsZero() || net.GreaterThan(gross) || net.IsNegative() {
		net = gross
	}
	return domain.Transaction{
		Source:        domain.SourceGateway,
		Kind:          domain.KindMoneyInGross,
		Origin:        "ASAAS",
		Gross:         gross,
		Net:           net,
		OccurredOn:    paymentDate(p),
		Status:        SettlementStatus(p.Status),
		CustomerTaxID: domain.NormalizeTaxID(taxID),
		ExternalID:    p.ID,
		Description:   p.Description,
	}
}

func paymentDate(p gateway.Payment) time.Time {
	for _, s := range []string{p.PaymentDate, p.ClientPaymentDate, p.DueDate, p.DateCreated} {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FromStatementLine materializes a bank movement. Credits are money in,
// debits are money out; both have already settled.
func FromStatementLine(l bank.StatementLine) domain.Transaction {
	kind := domain.KindMoneyOut
	if strings.EqualFold(l.TipoOperacao, "C") {
		kind = domain.KindMoneyInGross
	}
	occurred, _ := time.Parse("2006-01-02", l.DataEntrada)
	amount := l.Valor.Abs()
	description := l.Descricao
	if description == "" {
		description = l.Titulo
	}
	return domain.Transaction{
		Source:      domain.SourceBank,
		Kind:        kind,
		Origin:      "INTER",
		Category:    l.TipoTransacao,
		Gross:       amount,
		Net:         amount,
		OccurredOn:  occurred,
		Status:      domain.StatusSettled,
		Description: description,
	}
}

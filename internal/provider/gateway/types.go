package gateway

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Payment statuses reported by the gateway
const (
	StatusReceived             = "RECEIVED"
	StatusConfirmed            = "CONFIRMED"
	StatusReceivedInCash       = "RECEIVED_IN_CASH"
	StatusPending              = "PENDING"
	StatusAwaitingRiskAnalysis = "AWAITING_RISK_ANALYSIS"
	StatusOverdue              = "OVERDUE"
	StatusRefunded             = "REFUNDED"
	StatusRefundRequested      = "REFUND_REQUESTED"
	StatusRefundInProgress     = "REFUND_IN_PROGRESS"
)

type listResponse[T any] struct {
	Data       []T  `json:"data"`
	HasMore    bool `json:"hasMore"`
	TotalCount int  `json:"totalCount"`
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
}

type Customer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CpfCnpj       string `json:"cpfCnpj"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	MobilePhone   string `json:"mobilePhone"`
	Address       string `json:"address"`
	AddressNumber string `json:"addressNumber"`
	Province      string `json:"province"`
	PostalCode    string `json:"postalCode"`
	Deleted       bool   `json:"deleted"`
}

type Discount struct {
	Value decimal.Decimal `json:"value"`
}

type Payment struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	Value             decimal.Decimal `json:"value"`
	NetValue          decimal.Decimal `json:"netValue"`
	InterestValue     decimal.Decimal `json:"interestValue"`
	FineValue         decimal.Decimal `json:"fineValue"`
	Discount          *Discount       `json:"discount"`
	Status            string          `json:"status"`
	BillingType       string          `json:"billingType"`
	Description       string          `json:"description"`
	DateCreated       string          `json:"dateCreated"`
	DueDate           string          `json:"dueDate"`
	PaymentDate       string          `json:"paymentDate"`
	ClientPaymentDate string          `json:"clientPaymentDate"`
	ExternalReference string          `json:"externalReference"`
}

type TransferRequest struct {
	Value             decimal.Decimal
	PixAddressKey     string
	PixAddressKeyType string
	Description       string
}

// transferPayload sends the value as a JSON number
type transferPayload struct {
	Value             json.Number `json:"value"`
	PixAddressKey     string      `json:"pixAddressKey"`
	PixAddressKeyType string      `json:"pixAddressKeyType"`
	Description       string      `json:"description"`
	OperationType     string      `json:"operationType"`
}

type Transfer struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Value         decimal.Decimal `json:"value"`
	NetValue      decimal.Decimal `json:"netValue"`
	TransferFee   decimal.Decimal `json:"transferFee"`
	EffectiveDate string          `json:"effectiveDate"`
}

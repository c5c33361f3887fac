// Package gateway is the client for the payment gateway (boleto/Pix charges
// and the receivables balance).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider"

	"github.com/shopspring/decimal"
)

const (
	providerName    = "gateway"
	defaultBaseURL  = "https://api.asaas.com/v3"
	defaultPageSize = 100
	dateLayout      = "2006-01-02"
)

// Settings is read on every call so credential changes apply immediately
type Settings interface {
	Get(key string) string
}

type Client struct {
	settings Settings
	http     provider.Clients
	pageSize int
}

func NewClient(settings Settings, opts provider.Options) *Client {
	return &Client{
		settings: settings,
		http:     provider.NewClients(nil, opts),
		pageSize: defaultPageSize,
	}
}

func (c *Client) baseURL() string {
	if u := c.settings.Get(config.KeyGatewayBaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultBaseURL
}

func (c *Client) apiKey() (string, error) {
	key := c.settings.Get(config.KeyGatewayAPIKey)
	if key == "" {
		return "", &provider.ConfigError{Provider: providerName, Setting: config.KeyGatewayAPIKey}
	}
	return key, nil
}

// GetBalance returns the available gateway balance
func (c *Client) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := c.get(ctx, "get balance", "/finance/balance", nil, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

// GetCustomers follows offset pagination until the server reports no more pages
func (c *Client) GetCustomers(ctx context.Context) ([]Customer, error) {
	return paginate[Customer](ctx, c, "list customers", "/customers", url.Values{})
}

// GetAllPayments lists payments created within [from, to], all pages
func (c *Client) GetAllPayments(ctx context.Context, from, to time.Time) ([]Payment, error) {
	q := url.Values{}
	q.Set("dateCreated[ge]", from.Format(dateLayout))
	q.Set("dateCreated[le]", to.Format(dateLayout))
	return paginate[Payment](ctx, c, "list payments", "/payments", q)
}

// GetReceivedPayments lists RECEIVED payments whose payment date falls
// within [from, to], all pages
func (c *Client) GetReceivedPayments(ctx context.Context, from, to time.Time) ([]Payment, error) {
	q := url.Values{}
	q.Set("paymentDate[ge]", from.Format(dateLayout))
	q.Set("paymentDate[le]", to.Format(dateLayout))
	q.Set("status", StatusReceived)
	return paginate[Payment](ctx, c, "list received payments", "/payments", q)
}

// CreatePixTransfer initiates an irreversible outbound transfer. The caller
// is responsible for checking the balance first. The request is sent once.
func (c *Client) CreatePixTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(transferPayload{
		Value:             json.Number(req.Value.StringFixed(2)),
		PixAddressKey:     req.PixAddressKey,
		PixAddressKeyType: req.PixAddressKeyType,
		Description:       req.Description,
		OperationType:     "PIX",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("access_token", key)
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	logger.ExternalServiceCall(providerName, "create transfer", "value", req.Value.StringFixed(2), "key_type", req.PixAddressKeyType)
	resp, err := c.http.Write.Do(httpReq)
	if err != nil {
		logger.ExternalServiceResult(providerName, "create transfer", started, err)
		return nil, fmt.Errorf("gateway create transfer: %w", err)
	}
	defer resp.Body.Close()

	if err := provider.CheckResponse(providerName, "create transfer", resp); err != nil {
		logger.ExternalServiceResult(providerName, "create transfer", started, err)
		return nil, err
	}

	var transfer Transfer
	if err := json.NewDecoder(resp.Body).Decode(&transfer); err != nil {
		return nil, fmt.Errorf("failed to decode transfer response: %w", err)
	}
	logger.ExternalServiceResult(providerName, "create transfer", started, nil, "transfer_id", transfer.ID)
	return &transfer, nil
}

func paginate[T any](ctx context.Context, c *Client, operation, path string, q url.Values) ([]T, error) {
	var all []T
	offset := 0
	for {
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(c.pageSize))

		var page listResponse[T]
		if err := c.get(ctx, operation, path, q, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		// an empty page ends the walk even if the server claims more
		if !page.HasMore || len(page.Data) == 0 {
			return all, nil
		}
		offset += c.pageSize
	}
}

func (c *Client) get(ctx context.Context, operation, path string, q url.Values, out any) error {
	key, err := c.apiKey()
	if err != nil {
		return err
	}

	u := c.baseURL() + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("access_token", key)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	logger.ExternalServiceCall(providerName, operation, "path", path)
	resp, err := c.http.Read.Do(req)
	if err != nil {
		logger.ExternalServiceResult(providerName, operation, started, err)
		return fmt.Errorf("gateway %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if err := provider.CheckResponse(providerName, operation, resp); err != nil {
		logger.ExternalServiceResult(providerName, operation, started, err)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode gateway %s response: %w", operation, err)
	}
	logger.ExternalServiceResult(providerName, operation, started, nil)
	return nil
}

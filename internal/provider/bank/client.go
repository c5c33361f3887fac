// Package bank is the client for the checking-account provider. Every call
// goes over mutual TLS; the OAuth2 token is fetched once per client and
// reused until Authenticate is called again.
package bank

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	providerName   = "bank"
	defaultBaseURL = "https://cdpj.partners.bancointer.com.br"
	statementScope = "extrato.read"
	dateLayout     = "2006-01-02"
)

type Settings interface {
	Get(key string) string
}

type ExportFormat string

const (
	FormatPDF ExportFormat = "PDF"
	FormatOFX ExportFormat = "OFX"
)

type Client struct {
	settings Settings
	opts     provider.Options
	certDir  string
	rootCAs  *x509.CertPool

	mu      sync.Mutex
	clients *provider.Clients
	token   string
}

type Option func(*Client)

// WithRootCAs overrides the trusted server roots
func WithRootCAs(pool *x509.CertPool) Option {
	return func(c *Client) { c.rootCAs = pool }
}

func NewClient(settings Settings, certDir string, opts provider.Options, options ...Option) *Client {
	c := &Client{settings: settings, opts: opts, certDir: certDir}
	for _, o := range options {
		o(c)
	}
	return c
}

func (c *Client) baseURL() string {
	if u := c.settings.Get(config.KeyBankBaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return defaultBaseURL
}

// Authenticate fetches a fresh access token, replacing any cached one
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	_, _, err := c.sessionLocked(ctx)
	return err
}

// session returns the mTLS clients and a bearer token, building either on
// first use.
func (c *Client) session(ctx context.Context) (*provider.Clients, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionLocked(ctx)
}

func (c *Client) sessionLocked(ctx context.Context) (*provider.Clients, string, error) {
	clientID := c.settings.Get(config.KeyBankClientID)
	if clientID == "" {
		return nil, "", &provider.ConfigError{Provider: providerName, Setting: config.KeyBankClientID}
	}
	clientSecret := c.settings.Get(config.KeyBankClientSecret)
	if clientSecret == "" {
		return nil, "", &provider.ConfigError{Provider: providerName, Setting: config.KeyBankClientSecret}
	}

	if c.clients == nil {
		cert, err := loadCertificate(c.settings, c.certDir)
		if err != nil {
			return nil, "", err
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      c.rootCAs,
			MinVersion:   tls.VersionTLS12,
		}
		clients := provider.NewClients(transport, c.opts)
		c.clients = &clients
	}

	if c.token == "" {
		token, err := c.fetchToken(ctx, clientID, clientSecret)
		if err != nil {
			return nil, "", err
		}
		c.token = token
	}
	return c.clients, c.token, nil
}

func (c *Client) fetchToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     c.baseURL() + "/oauth/v2/token",
		Scopes:       []string{statementScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	started := time.Now()
	logger.ExternalServiceCall(providerName, "fetch token")
	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.clients.Write))
	if err != nil {
		logger.ExternalServiceResult(providerName, "fetch token", started, err)
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", &provider.StatusError{
				Provider:   providerName,
				Operation:  "fetch token",
				StatusCode: retrieveErr.Response.StatusCode,
				Message:    retrieveErr.ErrorDescription,
				Body:       string(retrieveErr.Body),
			}
		}
		return "", fmt.Errorf("bank fetch token: %w", err)
	}
	logger.ExternalServiceResult(providerName, "fetch token", started, nil)
	return tok.AccessToken, nil
}

// GetBalance returns the balance as of the given day, or today when nil
func (c *Client) GetBalance(ctx context.Context, asOf *time.Time) (*Balance, error) {
	q := url.Values{}
	if asOf != nil {
		q.Set("dataSaldo", asOf.Format(dateLayout))
	}
	var out Balance
	if err := c.get(ctx, "get balance", "/banking/v2/saldo", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatement fetches [from, to] in consecutive windows of at most 90 days
// and concatenates the lines in request order.
func (c *Client) GetStatement(ctx context.Context, from, to time.Time) (*Statement, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("statement range ends before it starts")
	}
	out := &Statement{Transactions: []StatementLine{}}
	for _, w := range SplitWindows(from, to) {
		var page Statement
		if err := c.get(ctx, "get statement", "/banking/v2/extrato", w.query(), &page); err != nil {
			return nil, err
		}
		out.Transactions = append(out.Transactions, page.Transactions...)
	}
	return out, nil
}

// ExportStatement returns the provider-generated file for [from, to] as the
// base64 string the provider sends. The payload is not interpreted.
func (c *Client) ExportStatement(ctx context.Context, from, to time.Time, format ExportFormat) (string, error) {
	if format != FormatPDF && format != FormatOFX {
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if to.Before(from) {
		return "", fmt.Errorf("export range ends before it starts")
	}
	if len(SplitWindows(from, to)) > 1 {
		return "", fmt.Errorf("export range exceeds %d days", WindowDays)
	}
	q := Window{Start: from, End: to}.query()
	q.Set("tipoArquivo", string(format))

	// The file is returned under "pdf" for every format.
	var out struct {
		PDF string `json:"pdf"`
	}
	if err := c.get(ctx, "export statement", "/banking/v2/extrato/exportar", q, &out); err != nil {
		return "", err
	}
	return out.PDF, nil
}

func (c *Client) get(ctx context.Context, operation, path string, q url.Values, out any) error {
	clients, token, err := c.session(ctx)
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
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	logger.ExternalServiceCall(providerName, operation, "query", q.Encode())
	resp, err := clients.Read.Do(req)
	if err != nil {
		logger.ExternalServiceResult(providerName, operation, started, err)
		return fmt.Errorf("bank %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if err := provider.CheckResponse(providerName, operation, resp); err != nil {
		logger.ExternalServiceResult(providerName, operation, started, err)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode bank %s response: %w", operation, err)
	}
	logger.ExternalServiceResult(providerName, operation, started, nil)
	return nil
}

type Balance struct {
	Disponivel              decimal.Decimal `json:"disponivel"`
	BloqueadoCheque         decimal.Decimal `json:"bloqueadoCheque"`
	BloqueadoJudicialmente  decimal.Decimal `json:"bloqueadoJudicialmente"`
	BloqueadoAdministrativo decimal.Decimal `json:"bloqueadoAdministrativo"`
	Limite                  decimal.Decimal `json:"limite"`
}

type Statement struct {
	Transactions []StatementLine `json:"transacoes"`
}

// StatementLine is one movement; TipoOperacao is "C" for credit, "D" for debit
type StatementLine struct {
	DataEntrada   string          `json:"dataEntrada"`
	TipoTransacao string          `json:"tipoTransacao"`
	TipoOperacao  string          `json:"tipoOperacao"`
	Valor         decimal.Decimal `json:"valor"`
	Titulo        string          `json:"titulo"`
	Descricao     string          `json:"descricao"`
}

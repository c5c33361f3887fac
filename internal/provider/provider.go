// Package provider holds the transport and error types shared by the
// gateway and bank clients.
package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fleet-backoffice/internal/logger"

	"github.com/hashicorp/go-retryablehttp"
)

const maxErrorBody = 64 << 10

// ConfigError reports a credential or certificate that is absent at first use
type ConfigError struct {
	Provider string
	Setting  string
	Detail   string
}

func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s is not configured: %s", e.Provider, e.Setting, e.Detail)
	}
	return fmt.Sprintf("%s: %s is not configured", e.Provider, e.Setting)
}

// StatusError is a non-2xx provider response
type StatusError struct {
	Provider   string
	Operation  string
	StatusCode int
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Provider, e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed with status %d", e.Provider, e.Operation, e.StatusCode)
}

// CheckResponse returns a StatusError for non-2xx responses. The body is
// consumed only on failure.
func CheckResponse(providerName, operation string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Provider:   providerName,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body),
		Body:       strings.TrimSpace(string(body)),
	}
}

// errorMessage extracts a human readable message from the common provider
// error envelopes: {"errors":[{"description":...}]} and {"title","detail"}.
func errorMessage(body []byte) string {
	var envelope struct {
		Errors []struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"errors"`
		Message string `json:"message"`
		Title   string `json:"title"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	switch {
	case len(envelope.Errors) > 0 && envelope.Errors[0].Description != "":
		return envelope.Errors[0].Description
	case envelope.Detail != "" && envelope.Title != "":
		return envelope.Title + ": " + envelope.Detail
	case envelope.Detail != "":
		return envelope.Detail
	case envelope.Message != "":
		return envelope.Message
	}
	return envelope.Title
}

// Options bound every outbound call
type Options struct {
	Timeout  time.Duration
	RetryMax int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.RetryMax < 0 {
		o.RetryMax = 0
	}
	if o.RetryMax > 3 {
		o.RetryMax = 3
	}
	return o
}

// Clients pairs a retrying client for idempotent reads with a plain client
// for writes. Transfers and token requests must never be replayed.
type Clients struct {
	Read  *http.Client
	Write *http.Client
}

// NewClients builds both clients over the given transport (nil means the
// default transport).
func NewClients(transport http.RoundTripper, opts Options) Clients {
	opts = opts.withDefaults()
	if transport == nil {
		transport = http.DefaultTransport
	}
	base := &http.Client{Timeout: opts.Timeout, Transport: transport}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = logger.WithService("provider-http")

	return Clients{Read: rc.StandardClient(), Write: &http.Client{Timeout: opts.Timeout, Transport: transport}}
}

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"Errors envelope", 400, `{"errors":[{"code":"invalid_value","description":"Saldo insuficiente"}]}`, "Saldo insuficiente"},
		{"Problem details", 403, `{"title":"Forbidden","detail":"scope missing"}`, "Forbidden: scope missing"},
		{"Plain text", 502, `bad gateway`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rec.WriteHeader(tt.status)
			rec.WriteString(tt.body)

			err := CheckResponse("gateway", "get balance", rec.Result())
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.message, statusErr.Message)
			assert.Equal(t, tt.body, statusErr.Body)
		})
	}

	t.Run("Success passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusOK)
		assert.NoError(t, CheckResponse("gateway", "get balance", rec.Result()))
	})
}

func TestNewClients_RetriesOnlyReads(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	clients := NewClients(nil, Options{Timeout: 2 * time.Second, RetryMax: 2})

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	resp, err := clients.Read.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	req, _ = http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, nil)
	resp, err = clients.Write.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(1), calls.Load())
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Provider: "gateway", Setting: "ASAAS_API_KEY"}
	assert.Equal(t, "gateway: ASAAS_API_KEY is not configured", err.Error())
}

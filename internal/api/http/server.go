package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fleet-backoffice/internal/config"
	"fleet-backoffice/internal/logger"
	"fleet-backoffice/internal/provider"
	"fleet-backoffice/internal/repository"
	"fleet-backoffice/internal/security"
	"fleet-backoffice/internal/service"
	"fleet-backoffice/internal/webhook"

	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

// SettingsManager is the runtime settings view exposed to operators
type SettingsManager interface {
	Masked() []config.SettingView
	Update(ctx context.Context, key, value string) error
}

// Services holds everything the handlers call into
type Services struct {
	Auth     service.AuthService
	Ledger   service.LedgerService
	Fleet    service.FleetService
	Renter   service.RenterService
	Export   service.ExportService
	Sweep    service.SweepService
	Webhook  service.WebhookService
	Report   service.ReportService
	Settings SettingsManager
}

type Server struct {
	services     *Services
	tokens       security.TokenManager
	webhookToken string
}

func NewServer(services *Services, tokens security.TokenManager, webhookToken string) *Server {
	return &Server{services: services, tokens: tokens, webhookToken: webhookToken}
}

// Router registers every route under /api/v1
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/webhooks/gateway", s.handleGatewayWebhook).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(s.authenticate)

	protected.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	protected.HandleFunc("/reports/period", s.handlePeriod).Methods(http.MethodGet)
	protected.HandleFunc("/reports/customers/{taxID}", s.handleCustomer).Methods(http.MethodGet)
	protected.HandleFunc("/reports/bank", s.handleBankMovements).Methods(http.MethodGet)
	protected.HandleFunc("/reports/fleet-valuation", s.handleFleetValuation).Methods(http.MethodGet)

	protected.HandleFunc("/ledger", s.handleListLedger).Methods(http.MethodGet)
	protected.HandleFunc("/ledger", s.handleCreateLedger).Methods(http.MethodPost)
	protected.HandleFunc("/ledger/categories", s.handleCategories).Methods(http.MethodGet)
	protected.HandleFunc("/ledger/{id:[0-9]+}", s.handleGetLedger).Methods(http.MethodGet)
	protected.HandleFunc("/ledger/{id:[0-9]+}", s.handleUpdateLedger).Methods(http.MethodPut)
	protected.HandleFunc("/ledger/{id:[0-9]+}", s.handleDeleteLedger).Methods(http.MethodDelete)
	protected.HandleFunc("/ledger/{id:[0-9]+}/status", s.handleLedgerStatus).Methods(http.MethodPut)

	protected.HandleFunc("/assets", s.handleListAssets).Methods(http.MethodGet)
	protected.HandleFunc("/assets", s.handleCreateAsset).Methods(http.MethodPost)
	protected.HandleFunc("/assets/{plate}", s.handleGetAsset).Methods(http.MethodGet)
	protected.HandleFunc("/assets/{plate}", s.handleUpdateAsset).Methods(http.MethodPut)
	protected.HandleFunc("/assets/{plate}/bind", s.handleBind).Methods(http.MethodPost)
	protected.HandleFunc("/assets/{plate}/unbind", s.handleUnbind).Methods(http.MethodPost)
	protected.HandleFunc("/assets/{plate}/rentals", s.handleRentalHistory).Methods(http.MethodGet)
	protected.HandleFunc("/assets/{plate}/rentals", s.handleStartRental).Methods(http.MethodPost)
	protected.HandleFunc("/assets/{plate}/rentals/end", s.handleEndRental).Methods(http.MethodPost)

	protected.HandleFunc("/renters", s.handleListRenters).Methods(http.MethodGet)
	protected.HandleFunc("/renters", s.handleCreateRenter).Methods(http.MethodPost)
	protected.HandleFunc("/renters/sync", s.handleSyncRenters).Methods(http.MethodPost)
	protected.HandleFunc("/renters/{id:[0-9]+}", s.handleGetRenter).Methods(http.MethodGet)
	protected.HandleFunc("/renters/{id:[0-9]+}", s.handleUpdateRenter).Methods(http.MethodPut)

	protected.HandleFunc("/exports", s.handleExportHistory).Methods(http.MethodGet)
	protected.HandleFunc("/exports", s.handleRunExport).Methods(http.MethodPost)
	protected.HandleFunc("/sweep", s.handleSweep).Methods(http.MethodPost)

	admin := protected.NewRoute().Subrouter()
	admin.Use(requireRole("admin"))
	admin.HandleFunc("/settings", s.handleListSettings).Methods(http.MethodGet)
	admin.HandleFunc("/settings/{key}", s.handleUpdateSetting).Methods(http.MethodPut)
	admin.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/webhooks/payments/{paymentID}", s.handleClearWebhookPayment).Methods(http.MethodDelete)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps service and provider errors onto HTTP statuses
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		inputErr  *service.InputError
		configErr *provider.ConfigError
		statusErr *provider.StatusError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &inputErr), errors.Is(err, service.ErrInvalidEvent), errors.Is(err, config.ErrUnknownSetting):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, webhook.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrUserNotApproved):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrAssetExists), errors.Is(err, service.ErrRenterExists),
		errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrRentalOpen),
		errors.Is(err, service.ErrNoOpenRental), errors.Is(err, service.ErrAssetNotAvailable),
		errors.Is(err, webhook.ErrNotUnknown):
		status = http.StatusConflict
	case errors.As(err, &configErr):
		status = http.StatusInternalServerError
	case errors.As(err, &statusErr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeMessage(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &service.InputError{Err: fmt.Errorf("invalid request body: %w", err)}
	}
	return nil
}

// decodeWebhook tolerates the many payload fields the gateway adds
func decodeWebhook(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return &service.InputError{Err: fmt.Errorf("invalid webhook body: %w", err)}
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &service.InputError{Err: fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)}
	}
	return t, nil
}

// dateRange reads from/to query parameters, defaulting to the current month
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = parseDate(v); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = parseDate(v); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

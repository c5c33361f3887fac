package http

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"fleet-backoffice/internal/domain"
	"fleet-backoffice/internal/service"

	"github.com/gorilla/mux"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token, user, err := s.services.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

type createUserRequest struct {
	Name     string          `json:"name"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.services.Auth.CreateUser(r.Context(), req.Name, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Reports

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.services.Report.Dashboard(r.Context()))
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.services.Report.Period(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCustomer(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rollup, section, err := s.services.Report.Customer(r.Context(), mux.Vars(r)["taxID"], from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": rollup, "gateway": section})
}

func (s *Server) handleBankMovements(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.services.Report.BankMovements(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleFleetValuation(w http.ResponseWriter, r *http.Request) {
	vals, err := s.services.Report.FleetValuation(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vals)
}

// Exports and transfers

type runExportRequest struct {
	Month string `json:"month"`
}

func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request) {
	var req runExportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month, err := domain.ParseMonth(req.Month)
	if err != nil {
		writeError(w, r, &service.InputError{Err: err})
		return
	}
	// outcomes, failures included, are reported in the body
	writeJSON(w, http.StatusOK, s.services.Export.RunMonthly(r.Context(), month, operatorName(r.Context())))
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.services.Export.History(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := s.services.Sweep.Sweep(r.Context(), operatorName(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookToken != "" {
		got := r.Header.Get("asaas-access-token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookToken)) != 1 {
			writeMessage(w, http.StatusUnauthorized, "invalid webhook token")
			return
		}
	}

	var event service.WebhookEvent
	if err := decodeWebhook(w, r, &event); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.services.Webhook.HandleEvent(r.Context(), event)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClearWebhookPayment(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Webhook.ClearUnknown(r.Context(), mux.Vars(r)["paymentID"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Settings

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.services.Settings.Masked())
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req updateSettingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key := strings.ToUpper(mux.Vars(r)["key"])
	if err := s.services.Settings.Update(r.Context(), key, req.Value); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

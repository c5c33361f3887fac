package http

import (
	"net/http"

	"fleet-backoffice/internal/domain"

	"github.com/shopspring/decimal"
)

type transactionRequest struct {
	Kind          domain.TransactionKind  `json:"kind"`
	Origin        string                  `json:"origin"`
	Category      string                  `json:"category"`
	Gross         decimal.Decimal         `json:"gross"`
	Net           decimal.Decimal         `json:"net"`
	OccurredOn    string                  `json:"occurred_on"`
	Status        domain.SettlementStatus `json:"status"`
	CustomerTaxID string                  `json:"customer_tax_id"`
	AssetPlate    string                  `json:"asset_plate"`
	Description   string                  `json:"description"`
}

func (req transactionRequest) toDomain() (*domain.Transaction, error) {
	day, err := parseDate(req.OccurredOn)
	if err != nil {
		return nil, err
	}
	return &domain.Transaction{
		Kind:          req.Kind,
		Origin:        req.Origin,
		Category:      req.Category,
		Gross:         req.Gross,
		Net:           req.Net,
		OccurredOn:    day,
		Status:        req.Status,
		CustomerTaxID: req.CustomerTaxID,
		AssetPlate:    req.AssetPlate,
		Description:   req.Description,
	}, nil
}

func (s *Server) handleListLedger(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.services.Ledger.List(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateLedger(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Ledger.Record(r.Context(), tx); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	tx, err := s.services.Ledger.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateLedger(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := pathID(r)
	tx.ID = &id
	if err := s.services.Ledger.Update(r.Context(), tx); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteLedger(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Ledger.Delete(r.Context(), pathID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status domain.SettlementStatus `json:"status"`
}

func (s *Server) handleLedgerStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Ledger.SetStatus(r.Context(), pathID(r), req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.services.Ledger.Categories())
}


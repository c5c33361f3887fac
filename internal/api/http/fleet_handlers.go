package http

import (
	"net/http"
	"time"

	"fleet-backoffice/internal/domain"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type assetRequest struct {
	Plate           string                   `json:"plate"`
	Model           string                   `json:"model"`
	Availability    domain.AssetAvailability `json:"availability"`
	AcquisitionCost decimal.Decimal          `json:"acquisition_cost"`
	AcquiredOn      string                   `json:"acquired_on"`
	OdometerKm      int64                    `json:"odometer_km"`
}

func (req assetRequest) toDomain() (*domain.Asset, error) {
	a := &domain.Asset{
		Plate:           req.Plate,
		Model:           req.Model,
		Availability:    req.Availability,
		AcquisitionCost: req.AcquisitionCost,
		OdometerKm:      req.OdometerKm,
	}
	if req.AcquiredOn != "" {
		day, err := parseDate(req.AcquiredOn)
		if err != nil {
			return nil, err
		}
		a.AcquiredOn = day
	}
	return a, nil
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.services.Fleet.ListAssets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	asset, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Fleet.CreateAsset(r.Context(), asset); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.services.Fleet.GetAsset(r.Context(), mux.Vars(r)["plate"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	asset, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	asset.Plate = mux.Vars(r)["plate"]
	if err := s.services.Fleet.UpdateAsset(r.Context(), asset); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

type bindRequest struct {
	RenterID int64  `json:"renter_id"`
	Date     string `json:"date"`
}

func (req bindRequest) day() (time.Time, error) {
	if req.Date == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return parseDate(req.Date)
}

func (s *Server) handleBind(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Fleet.Bind(r.Context(), mux.Vars(r)["plate"], req.RenterID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnbind(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Fleet.Unbind(r.Context(), mux.Vars(r)["plate"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartRental(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	start, err := req.day()
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := s.services.Fleet.StartRental(r.Context(), mux.Vars(r)["plate"], req.RenterID, start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

func (s *Server) handleEndRental(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	end, err := req.day()
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := s.services.Fleet.EndRental(r.Context(), mux.Vars(r)["plate"], end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, period)
}

func (s *Server) handleRentalHistory(w http.ResponseWriter, r *http.Request) {
	periods, err := s.services.Fleet.RentalHistory(r.Context(), mux.Vars(r)["plate"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

// Renters

func (s *Server) handleListRenters(w http.ResponseWriter, r *http.Request) {
	renters, err := s.services.Renter.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renters)
}

func (s *Server) handleCreateRenter(w http.ResponseWriter, r *http.Request) {
	var renter domain.Renter
	if err := decodeJSON(w, r, &renter); err != nil {
		writeError(w, r, err)
		return
	}
	renter.ID = 0
	renter.AssetPlate = ""
	if err := s.services.Renter.Create(r.Context(), &renter); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, renter)
}

func (s *Server) handleGetRenter(w http.ResponseWriter, r *http.Request) {
	renter, err := s.services.Renter.Get(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renter)
}

func (s *Server) handleUpdateRenter(w http.ResponseWriter, r *http.Request) {
	var renter domain.Renter
	if err := decodeJSON(w, r, &renter); err != nil {
		writeError(w, r, err)
		return
	}
	renter.ID = pathID(r)
	if err := s.services.Renter.Update(r.Context(), &renter); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renter)
}

func (s *Server) handleSyncRenters(w http.ResponseWriter, r *http.Request) {
	res, err := s.services.Renter.SyncFromGateway(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

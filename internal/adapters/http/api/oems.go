package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/supplyline/internal/app"
	"github.com/okian/supplyline/internal/domain/model"
)

// OEMDependencies defines the interface for per-OEM queries.
type OEMDependencies interface {
	OEMExposures(ctx context.Context, oemID string) ([]model.OEMExposure, error)
	OEMCommodities(ctx context.Context, oemID string) (model.OEMCommodityReport, error)
}

// OEMHandler serves per-OEM exposure and commodity views.
type OEMHandler struct {
	deps OEMDependencies
}

// NewOEMHandler creates a new OEM handler.
func NewOEMHandler(deps OEMDependencies) *OEMHandler {
	return &OEMHandler{deps: deps}
}

// HandleGetExposure handles GET /oems/{oemID}/exposure requests.
func (h *OEMHandler) HandleGetExposure(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_oem_exposure"

	oemID := chi.URLParam(r, "oemID")
	if oemID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	exposures, err := h.deps.OEMExposures(r.Context(), oemID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if exposures == nil {
		exposures = []model.OEMExposure{}
	}
	writeJSON(w, http.StatusOK, exposures)
}

// HandleGetCommodities handles GET /oems/{oemID}/commodities requests.
func (h *OEMHandler) HandleGetCommodities(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_oem_commodities"

	oemID := chi.URLParam(r, "oemID")
	if oemID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	report, err := h.deps.OEMCommodities(r.Context(), oemID)
	if err != nil {
		if errors.Is(err, app.ErrOEMNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

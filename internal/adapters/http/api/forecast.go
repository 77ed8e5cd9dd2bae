package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/supplyline/internal/app"
	"github.com/okian/supplyline/internal/domain/model"
)

// maxForecastHorizonWeeks bounds the projection window. Decay makes longer
// projections meaningless noise.
const maxForecastHorizonWeeks = 52

// ForecastDependencies defines the interface for risk and forecast queries.
type ForecastDependencies interface {
	Risk(ctx context.Context, id string) (model.Risk, error)
	Forecast(ctx context.Context, riskID string, horizonWeeks int) (model.ForecastResult, error)
}

// ForecastHandler serves risk lookups and disruption forecasts.
type ForecastHandler struct {
	deps           ForecastDependencies
	defaultHorizon int
}

// NewForecastHandler creates a new forecast handler.
func NewForecastHandler(deps ForecastDependencies, defaultHorizon int) *ForecastHandler {
	if defaultHorizon < 1 {
		defaultHorizon = 6
	}
	return &ForecastHandler{
		deps:           deps,
		defaultHorizon: defaultHorizon,
	}
}

// HandleGetRisk handles GET /risks/{riskID} requests.
func (h *ForecastHandler) HandleGetRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_risk"

	riskID := chi.URLParam(r, "riskID")
	risk, err := h.deps.Risk(r.Context(), riskID)
	if err != nil {
		if errors.Is(err, app.ErrRiskNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, risk)
}

// HandleGetForecast handles GET /risks/{riskID}/forecast?horizon=N requests.
func (h *ForecastHandler) HandleGetForecast(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_forecast"

	riskID := chi.URLParam(r, "riskID")
	horizon := h.defaultHorizon
	if hs := r.URL.Query().Get("horizon"); hs != "" {
		n, err := strconv.Atoi(hs)
		if err != nil || n < 1 || n > maxForecastHorizonWeeks {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		horizon = n
	}

	result, err := h.deps.Forecast(r.Context(), riskID, horizon)
	if err != nil {
		if errors.Is(err, app.ErrRiskNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

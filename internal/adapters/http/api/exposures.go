package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/supplyline/internal/domain/model"
)

// ExposureDependencies defines the interface for the ranked exposure view.
type ExposureDependencies interface {
	TopExposures(ctx context.Context, n int) ([]model.OEMExposure, error)
}

// ExposureHandler serves the ranked exposure list.
type ExposureHandler struct {
	deps     ExposureDependencies
	maxLimit int
}

// NewExposureHandler creates a new exposure handler.
func NewExposureHandler(deps ExposureDependencies, maxLimit int) *ExposureHandler {
	return &ExposureHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetExposures handles GET /exposures?limit=N requests.
func (h *ExposureHandler) HandleGetExposures(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_exposures"

	limitStr := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	exposures, err := h.deps.TopExposures(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if exposures == nil {
		exposures = []model.OEMExposure{}
	}
	writeJSON(w, http.StatusOK, exposures)
}

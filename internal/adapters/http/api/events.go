package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/supplyline/internal/domain/dedupe"
	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/pkg/metrics"
)

// EventDependencies defines the interface for signal ingestion.
type EventDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, e model.Event) bool
}

// EventsHandler handles signal ingestion requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordSignalRejected()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		metrics.RecordSignalRejected()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check, mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), req.SignalID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), req.toEvent()); !ok {
		// Roll back the seen mark so a retry is not treated as duplicate.
		h.deps.Unrecord(r.Context(), req.SignalID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

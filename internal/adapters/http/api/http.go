// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/supplyline/internal/domain/dedupe"
	"github.com/okian/supplyline/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a classified signal for async scoring. Returns false
	// on backpressure.
	Enqueue(ctx context.Context, e model.Event) bool

	// Read operations expose assessment and forecast data.
	TopExposures(ctx context.Context, n int) ([]model.OEMExposure, error)
	OEMExposures(ctx context.Context, oemID string) ([]model.OEMExposure, error)
	OEMCommodities(ctx context.Context, oemID string) (model.OEMCommodityReport, error)
	Risk(ctx context.Context, id string) (model.Risk, error)
	Forecast(ctx context.Context, riskID string, horizonWeeks int) (model.ForecastResult, error)
}

// Server wires HTTP routes for the risk engine API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	eventsHandler   *EventsHandler
	exposureHandler *ExposureHandler
	oemHandler      *OEMHandler
	forecastHandler *ForecastHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit, defaultHorizon int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		eventsHandler:   NewEventsHandler(deps),
		exposureHandler: NewExposureHandler(deps, maxLimit),
		oemHandler:      NewOEMHandler(deps),
		forecastHandler: NewForecastHandler(deps, defaultHorizon),
	}
}

// Router builds the chi router with middleware and all routes attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Post("/events", s.eventsHandler.HandlePostEvent)
	r.Get("/exposures", s.exposureHandler.HandleGetExposures)
	r.Get("/oems/{oemID}/exposure", s.oemHandler.HandleGetExposure)
	r.Get("/oems/{oemID}/commodities", s.oemHandler.HandleGetCommodities)
	r.Get("/risks/{riskID}", s.forecastHandler.HandleGetRisk)
	r.Get("/risks/{riskID}/forecast", s.forecastHandler.HandleGetForecast)
	return r
}

// eventRequest mirrors the wire schema for POST /events.
type eventRequest struct {
	SignalID   string            `json:"signal_id"`
	Type       string            `json:"type"`
	Severity   int               `json:"severity,omitempty"`
	Confidence float64           `json:"confidence"`
	DetectedAt string            `json:"detected_at"`
	Indicators *model.Indicators `json:"indicators,omitempty"`
	FacilityID string            `json:"facility_id"`
	Region     string            `json:"region"`
	Commodity  string            `json:"commodity"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.SignalID) == "":
		return errors.New("missing signal_id")
	case strings.TrimSpace(e.Type) == "":
		return errors.New("missing type")
	case strings.TrimSpace(e.Commodity) == "":
		return errors.New("missing commodity")
	}
	if e.Severity < 0 || e.Severity > 5 {
		return errors.New("severity must be between 0 and 5")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return errors.New("confidence must be between 0 and 1")
	}
	if e.DetectedAt != "" {
		if _, err := time.Parse(time.RFC3339, e.DetectedAt); err != nil {
			return errors.New("invalid detected_at; must be RFC3339")
		}
	}
	return nil
}

// toEvent converts a validated request to the domain event.
func (e eventRequest) toEvent() model.Event {
	var detected time.Time
	if e.DetectedAt != "" {
		detected, _ = time.Parse(time.RFC3339, e.DetectedAt)
	}
	return model.Event{
		ID:         e.SignalID,
		Type:       model.EventType(e.Type),
		Severity:   e.Severity,
		Confidence: e.Confidence,
		DetectedAt: detected,
		Indicators: e.Indicators,
		FacilityID: e.FacilityID,
		Region:     e.Region,
		Commodity:  e.Commodity,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

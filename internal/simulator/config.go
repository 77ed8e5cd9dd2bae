// Package simulator generates synthetic classified disruption signals and
// drives them through a running engine over HTTP.
package simulator

import "time"

// Config holds configuration for one simulation run.
type Config struct {
	BaseURL    string        // base URL of the engine
	NumSignals int           // number of signals to generate
	TopN       int           // number of top exposures to fetch afterwards
	Workers    int           // number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // RNG seed; same seed, same signals
	Verbose    bool
}

// Signal is the wire shape submitted to POST /events.
type Signal struct {
	SignalID   string      `json:"signal_id"`
	Type       string      `json:"type"`
	Severity   int         `json:"severity,omitempty"`
	Confidence float64     `json:"confidence"`
	DetectedAt string      `json:"detected_at"`
	Indicators *Indicators `json:"indicators,omitempty"`
	FacilityID string      `json:"facility_id"`
	Region     string      `json:"region"`
	Commodity  string      `json:"commodity"`
}

// Indicators mirrors the classifier-extracted evidence fields.
type Indicators struct {
	Scope            string `json:"scope,omitempty"`
	Participants     int    `json:"participants,omitempty"`
	HistoricalImpact string `json:"historical_impact,omitempty"`
}

// AckResponse is the response from signal submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	SignalsGenerated int
	SignalsSubmitted int
	SignalsAccepted  int
	SignalsDuplicate int
	SignalsFailed    int
	ExposuresFetched int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

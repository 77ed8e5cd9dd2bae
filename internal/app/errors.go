package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrRiskNotFound = errors.New("risk not found")
	ErrOEMNotFound  = errors.New("oem not found")
)

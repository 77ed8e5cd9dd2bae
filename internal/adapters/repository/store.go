// Package repository defines the ranked assessment store interface and
// errors.
package repository

import (
	"context"

	"github.com/okian/supplyline/internal/domain/model"
)

// Store provides read/write access to per-OEM exposure assessments,
// ranked descending by exposure score.
type Store interface {
	// Upsert inserts or replaces the assessment keyed by (OEM, risk).
	// Returns true when the stored exposure score changed.
	Upsert(ctx context.Context, e model.OEMExposure) (bool, error)

	// Get returns the assessment for one (OEM, risk) pair.
	// Returns ErrNotFound when the pair is unknown.
	Get(ctx context.Context, oemID, riskID string) (model.OEMExposure, error)

	// ForOEM returns every assessment held for an OEM, ranked.
	ForOEM(ctx context.Context, oemID string) ([]model.OEMExposure, error)

	// TopN returns the n highest-exposure assessments across all OEMs.
	TopN(ctx context.Context, n int) ([]model.OEMExposure, error)

	// Count returns the number of assessments tracked.
	Count(ctx context.Context) int
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/pkg/metrics"
)

// Catalog is the in-memory snapshot of reference data the engine scores
// against. Loaded once at startup; the graph is small and slow-changing.
type Catalog struct {
	Facilities  map[string]model.Facility
	Regions     map[string]model.Region
	Commodities map[string]model.Commodity
	Connections []model.SupplyChainConnection
}

// Region resolves the production-share record for a region/commodity pair,
// falling back to a neutral record when the pair is uncatalogued.
func (c *Catalog) Region(name, commodity string) model.Region {
	if r, ok := c.Regions[name+"|"+commodity]; ok {
		return r
	}
	return model.Region{Name: name, Commodity: commodity}
}

// Commodity resolves a commodity by code, falling back to a zero record.
func (c *Catalog) Commodity(code string) model.Commodity {
	if com, ok := c.Commodities[code]; ok {
		return com
	}
	return model.Commodity{Code: code}
}

// Repository reads the reference catalog and persists assessment history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadCatalog reads every reference table into one snapshot.
func (r *Repository) LoadCatalog(ctx context.Context) (*Catalog, error) {
	cat := &Catalog{
		Facilities:  make(map[string]model.Facility),
		Regions:     make(map[string]model.Region),
		Commodities: make(map[string]model.Commodity),
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id, country, region, commodity, annual_capacity_tonnes, regional_share_pct
        FROM facilities
    `)
	if err != nil {
		return nil, fmt.Errorf("query facilities: %w", err)
	}
	for rows.Next() {
		var f model.Facility
		if err := rows.Scan(&f.ID, &f.Country, &f.Region, &f.Commodity, &f.AnnualCapacityTonnes, &f.RegionalSharePct); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		cat.Facilities[f.ID] = f
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `
        SELECT name, commodity, production_share
        FROM regions
    `)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	for rows.Next() {
		var reg model.Region
		if err := rows.Scan(&reg.Name, &reg.Commodity, &reg.ProductionShare); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan region: %w", err)
		}
		cat.Regions[reg.Name+"|"+reg.Commodity] = reg
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `
        SELECT code, category, substitution_difficulty
        FROM commodities
    `)
	if err != nil {
		return nil, fmt.Errorf("query commodities: %w", err)
	}
	for rows.Next() {
		var com model.Commodity
		if err := rows.Scan(&com.Code, &com.Category, &com.SubstitutionDifficulty); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan commodity: %w", err)
		}
		cat.Commodities[com.Code] = com
	}
	rows.Close()

	rows, err = r.pool.Query(ctx, `
        SELECT supplier_id, buyer_id, tier, dependency_pct, commodity, has_alternative
        FROM supply_chain_connections
    `)
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}
	for rows.Next() {
		var c model.SupplyChainConnection
		if err := rows.Scan(&c.SupplierID, &c.BuyerID, &c.Tier, &c.DependencyPct, &c.Commodity, &c.HasAlternative); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		cat.Connections = append(cat.Connections, c)
	}
	rows.Close()

	metrics.UpdateCatalogEntities("facility", len(cat.Facilities))
	metrics.UpdateCatalogEntities("region", len(cat.Regions))
	metrics.UpdateCatalogEntities("commodity", len(cat.Commodities))
	metrics.UpdateCatalogEntities("connection", len(cat.Connections))
	return cat, nil
}

// InsertAssessment appends a scored assessment to the history table.
// Recommendations travel as jsonb.
func (r *Repository) InsertAssessment(ctx context.Context, e model.OEMExposure) error {
	recs, err := json.Marshal(e.Impact.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
        INSERT INTO assessments
            (oem_id, risk_id, exposure_score, affected_tier1, commodity,
             dependency_pct, alternative_sources, disruption_probability_6w,
             estimated_disruption_days, risk_level, recommendations)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)
        ON CONFLICT (oem_id, risk_id) DO UPDATE SET
            exposure_score = EXCLUDED.exposure_score,
            affected_tier1 = EXCLUDED.affected_tier1,
            dependency_pct = EXCLUDED.dependency_pct,
            alternative_sources = EXCLUDED.alternative_sources,
            disruption_probability_6w = EXCLUDED.disruption_probability_6w,
            estimated_disruption_days = EXCLUDED.estimated_disruption_days,
            risk_level = EXCLUDED.risk_level,
            recommendations = EXCLUDED.recommendations,
            updated_at = NOW()
    `, e.OEMID, e.RiskID, e.ExposureScore, e.AffectedTier1Suppliers, e.Commodity,
		e.DependencyPct, e.AlternativeSources, e.DisruptionProbability6W,
		e.EstimatedDisruptionDays, string(e.Impact.RiskLevel), string(recs))
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// PublishAssessment lets the Repository double as a history sink behind
// the service's publisher fanout.
func (r *Repository) PublishAssessment(ctx context.Context, e model.OEMExposure) error {
	return r.InsertAssessment(ctx, e)
}

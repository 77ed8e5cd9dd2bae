package storage

import (
	"strconv"

	"github.com/okian/supplyline/internal/domain/model"
)

// Seed reference data for running without a database. The graph mirrors a
// small mining-to-OEM chain: facilities feed regional processors (tier 2
// edges), processors feed the OEMs (tier 1 edges).
var (
	seedRegions = []struct {
		name  string
		share float64
	}{
		{"peru", 0.12},
		{"mexico", 0.08},
		{"vietnam", 0.05},
		{"china", 0.38},
		{"india", 0.07},
		{"chile", 0.24},
	}

	seedCommodities = []model.Commodity{
		{Code: "copper", Category: "metal", SubstitutionDifficulty: model.DifficultyHigh},
		{Code: "zinc", Category: "metal", SubstitutionDifficulty: model.DifficultyMedium},
		{Code: "silver", Category: "metal", SubstitutionDifficulty: model.DifficultyMedium},
		{Code: "rare_earth", Category: "mineral", SubstitutionDifficulty: model.DifficultyHigh},
		{Code: "lithium", Category: "mineral", SubstitutionDifficulty: model.DifficultyHigh},
	}

	seedOEMs = []string{"oem-aurora-motors", "oem-helix-electronics", "oem-cascade-industrial"}
)

const seedFacilitiesPerRegion = 4

// SeedCatalog builds the built-in demo catalog. Facility ids follow the
// fac-<region>-<n> convention the simulator generates against.
func SeedCatalog() *Catalog {
	c := &Catalog{
		Facilities:  make(map[string]model.Facility),
		Regions:     make(map[string]model.Region),
		Commodities: make(map[string]model.Commodity),
	}

	for _, com := range seedCommodities {
		c.Commodities[com.Code] = com
	}

	for ri, r := range seedRegions {
		commodity := seedCommodities[ri%len(seedCommodities)].Code
		c.Regions[r.name+"|"+commodity] = model.Region{
			Name:            r.name,
			Commodity:       commodity,
			ProductionShare: r.share,
		}

		processor := "proc-" + r.name
		for i := 0; i < seedFacilitiesPerRegion; i++ {
			id := "fac-" + r.name + "-" + strconv.Itoa(i)
			c.Facilities[id] = model.Facility{
				ID:                   id,
				Country:              r.name,
				Region:               r.name,
				Commodity:            commodity,
				AnnualCapacityTonnes: float64(40_000 + 25_000*i),
				RegionalSharePct:     r.share * 100 / seedFacilitiesPerRegion,
			}
			c.Connections = append(c.Connections, model.SupplyChainConnection{
				SupplierID:     id,
				BuyerID:        processor,
				Tier:           2,
				DependencyPct:  25 + float64(10*i),
				Commodity:      commodity,
				HasAlternative: i%2 == 1,
			})
		}

		// Each processor supplies every OEM with uneven dependency so the
		// ranked views have structure.
		for oi, oem := range seedOEMs {
			c.Connections = append(c.Connections, model.SupplyChainConnection{
				SupplierID:     processor,
				BuyerID:        oem,
				Tier:           1,
				DependencyPct:  float64(15 + 12*((ri+oi)%3)),
				Commodity:      commodity,
				HasAlternative: (ri+oi)%3 == 2,
			})
		}
	}
	return c
}

package engine

import (
	"math"

	"github.com/spektr-org/pulse/schema"
)

// HHI bands (shares as fractions).
const (
	hhiModerate = 0.15
	hhiHigh     = 0.25
)

// ProductConcentration measures how dependent revenue is on single products.
// Products whose share exceeds ConcentrationThreshold are dependency risks.
// Returns nil without product and revenue fields, or with no positive revenue.
func ProductConcentration(view FieldView, cfg *Config) *Concentration {
	if !view.Has(schema.FieldProduct) || !view.Has(schema.FieldRevenue) {
		return nil
	}
	total, _ := SumNumber(view, schema.FieldRevenue)
	if total <= 0 {
		return nil
	}

	products := RevenueShares(view, schema.FieldProduct, 0)
	if len(products) == 0 {
		return nil
	}

	c := &Concentration{Products: products, TopSharePct: products[0].SharePct}
	var hhi float64
	for _, p := range products {
		share := p.Revenue / total
		hhi += share * share
		if p.SharePct > cfg.ConcentrationThreshold {
			c.Dependencies = append(c.Dependencies, p)
		}
	}
	c.HHI = math.Round(hhi*1000) / 1000

	switch {
	case hhi < hhiModerate:
		c.Band = "unconcentrated"
	case hhi < hhiHigh:
		c.Band = "moderately_concentrated"
	default:
		c.Band = "highly_concentrated"
	}
	return c
}

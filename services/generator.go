package services

import (
	"math/rand"
	"time"

	"estate-recommender/models"
)

// Generator produces a deterministic synthetic listings table for running
// the dashboard without a real dataset.
type Generator struct {
	Rows  int
	Seed  int64
	Start time.Time
}

// NewGenerator returns a Generator with the stock start date (2025-01-01).
func NewGenerator(rows int, seed int64) *Generator {
	return &Generator{
		Rows:  rows,
		Seed:  seed,
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var (
	floorChoices     = []float64{1, 2, 3}
	renovatedChoices = []int{0, 2000, 2010, 2018, 2022}
)

// Generate returns Rows listings, one per day from Start.
// The same Rows and Seed always yield the same table.
func (g *Generator) Generate() []*models.Listing {
	if g.Rows <= 0 {
		return []*models.Listing{}
	}
	rng := rand.New(rand.NewSource(g.Seed))

	out := make([]*models.Listing, g.Rows)
	for i := range out {
		out[i] = &models.Listing{
			Index:         i,
			Date:          g.Start.AddDate(0, 0, i),
			Price:         float64(between(rng, 50000, 500000)),
			Bedrooms:      between(rng, 1, 6),
			Floors:        floorChoices[rng.Intn(len(floorChoices))],
			Condition:     between(rng, 1, 6),
			Grade:         float64(between(rng, 1, 13)),
			YearBuilt:     between(rng, 1980, 2025),
			YearRenovated: renovatedChoices[rng.Intn(len(renovatedChoices))],
		}
	}
	return out
}

// between returns an int in [lo, hi).
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo)
}

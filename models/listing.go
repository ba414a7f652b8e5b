package models

import "time"

// Recommendation is the derived category attached to every labeled listing.
type Recommendation string

const (
	RecommendationBest   Recommendation = "Best"
	RecommendationDecent Recommendation = "Decent"
	RecommendationOthers Recommendation = "Others"
)

// Recommendations lists every label in display order.
var Recommendations = []Recommendation{
	RecommendationBest,
	RecommendationDecent,
	RecommendationOthers,
}

// Valid reports whether r is one of the three known labels.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendationBest, RecommendationDecent, RecommendationOthers:
		return true
	}
	return false
}

// Listing is one property record after schema mapping and cleaning.
// PerBedroom and Recommendation are only meaningful on labeled copies.
type Listing struct {
	Index         int               `json:"index"`
	Date          time.Time         `json:"date"`
	Price         float64           `json:"price"`
	Bedrooms      int               `json:"bedrooms"`
	Floors        float64           `json:"floors"`
	Condition     int               `json:"condition"`
	Grade         float64           `json:"grade"`
	YearBuilt     int               `json:"year_built"`
	YearRenovated int               `json:"year_renovated"`
	Extra         map[string]string `json:"extra,omitempty"`

	PerBedroom     float64        `json:"per_bedroom"`
	Recommendation Recommendation `json:"recommendation"`
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	c := *l
	if l.Extra != nil {
		c.Extra = make(map[string]string, len(l.Extra))
		for k, v := range l.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// Dataset is one loaded and labeled table. A new ID is assigned on every
// load so consumers can tell a reload apart from the previous snapshot.
type Dataset struct {
	ID              string     `json:"id"`
	Source          string     `json:"source"`
	LoadedAt        time.Time  `json:"loaded_at"`
	Listings        []*Listing `json:"-"`
	PriceMedian     float64    `json:"price_median"`
	GradeMedian     float64    `json:"grade_median"`
	FallbackApplied bool       `json:"fallback_applied"`
	DroppedRows     int        `json:"dropped_rows"`
}

// LabelCount is the number of listings carrying one recommendation.
type LabelCount struct {
	Label Recommendation `json:"label"`
	Count int            `json:"count"`
}

// InsightReport holds the computed analytics over a labeled dataset.
type InsightReport struct {
	DatasetID       string       `json:"dataset_id"`
	TotalListings   int          `json:"total_listings"`
	LabelCounts     []LabelCount `json:"label_counts"`
	AveragePrice    float64      `json:"average_price"`
	MinPrice        float64      `json:"min_price"`
	MaxPrice        float64      `json:"max_price"`
	PriceMedian     float64      `json:"price_median"`
	GradeMedian     float64      `json:"grade_median"`
	FallbackApplied bool         `json:"fallback_applied"`
	TopValue        []*Listing   `json:"top_value"`
}

package services

import (
	"fmt"
	"math"
	"sort"

	"estate-recommender/models"
	"estate-recommender/utils"
)

// LabelResult is the output of one labeling pass.
type LabelResult struct {
	Listings        []*models.Listing
	PriceMedian     float64
	GradeMedian     float64
	FallbackApplied bool
}

// Labeler assigns Best/Decent/Others by comparing each listing's price and
// grade against the dataset medians.
type Labeler struct {
	logger *utils.Logger
}

// NewLabeler creates a Labeler with the given logger.
func NewLabeler(logger *utils.Logger) *Labeler {
	return &Labeler{logger: logger}
}

// Label returns labeled copies of listings. The input is never modified and
// any Recommendation already present on it is ignored.
func (l *Labeler) Label(listings []*models.Listing) (*LabelResult, error) {
	if len(listings) == 0 {
		return &LabelResult{Listings: []*models.Listing{}}, ErrEmptyInput
	}

	out := make([]*models.Listing, len(listings))
	prices := make([]float64, len(listings))
	grades := make([]float64, len(listings))

	for i, src := range listings {
		if err := validate(src); err != nil {
			return nil, fmt.Errorf("row %d: %w", src.Index, err)
		}
		c := src.Clone()
		c.PerBedroom = math.RoundToEven(c.Price / float64(c.Bedrooms))
		c.Recommendation = models.RecommendationOthers
		out[i] = c
		prices[i] = c.Price
		grades[i] = c.Grade
	}

	res := &LabelResult{
		Listings:    out,
		PriceMedian: median(prices),
		GradeMedian: median(grades),
	}

	bestCount := 0
	for _, c := range out {
		cheap := c.Price <= res.PriceMedian
		good := c.Grade >= res.GradeMedian
		switch {
		case cheap && good:
			c.Recommendation = models.RecommendationBest
			bestCount++
		case cheap != good:
			c.Recommendation = models.RecommendationDecent
		}
	}

	if bestCount == 0 {
		idx, err := bestValueIndex(out)
		if err != nil {
			return nil, err
		}
		out[idx].Recommendation = models.RecommendationBest
		res.FallbackApplied = true
		l.logger.Warn("[labeler] No listing met both medians; row %d promoted to Best by grade/price ratio",
			out[idx].Index)
	}

	l.logger.Debug("[labeler] Labeled %d listings (price median %.2f, grade median %.2f)",
		len(out), res.PriceMedian, res.GradeMedian)
	return res, nil
}

func validate(l *models.Listing) error {
	if math.IsNaN(l.Price) || math.IsInf(l.Price, 0) {
		return fmt.Errorf("%w: price %v", ErrInvalidData, l.Price)
	}
	if math.IsNaN(l.Grade) || math.IsInf(l.Grade, 0) {
		return fmt.Errorf("%w: grade %v", ErrInvalidData, l.Grade)
	}
	if l.Bedrooms < 0 {
		return fmt.Errorf("%w: bedrooms %d", ErrInvalidData, l.Bedrooms)
	}
	if l.Bedrooms == 0 {
		return fmt.Errorf("%w: bedrooms is zero", ErrDivision)
	}
	return nil
}

// bestValueIndex returns the index of the highest Grade/Price ratio.
// Ties keep the earliest listing.
func bestValueIndex(listings []*models.Listing) (int, error) {
	best := -1
	var bestRatio float64
	for i, l := range listings {
		if l.Price == 0 {
			return -1, fmt.Errorf("row %d: %w: price is zero in grade/price ratio", l.Index, ErrDivision)
		}
		r := l.Grade / l.Price
		if best < 0 || r > bestRatio {
			best, bestRatio = i, r
		}
	}
	if best < 0 {
		return -1, ErrEmptyInput
	}
	return best, nil
}

// median of values; the mean of the two middle values for even lengths.
func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// ValueRatio is the Grade/Price ratio used to rank listings by value.
// It returns 0 for a zero price.
func ValueRatio(l *models.Listing) float64 {
	if l.Price == 0 {
		return 0
	}
	return l.Grade / l.Price
}

package services

import (
	"fmt"
	"math"
	"sort"

	"estate-recommender/models"
)

// FilterKind selects which dimension a Filter restricts.
type FilterKind string

const (
	FilterPrice          FilterKind = "price"
	FilterGrade          FilterKind = "grade"
	FilterRecommendation FilterKind = "recommendation"
)

// Filter restricts a labeled dataset along one dimension.
// Empty Grades or Recommendations select everything unless Explicit is set,
// in which case they are the exact selection and an empty one selects nothing.
type Filter struct {
	Kind            FilterKind
	MinPrice        *float64
	MaxPrice        *float64
	Grades          []float64
	Recommendations []models.Recommendation
	Explicit        bool
}

// Apply returns the listings matching f, preserving input order.
func (f Filter) Apply(listings []*models.Listing) ([]*models.Listing, error) {
	match, err := f.matcher()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f Filter) matcher() (func(*models.Listing) bool, error) {
	switch f.Kind {
	case "", FilterPrice:
		lo, hi := math.Inf(-1), math.Inf(1)
		if f.MinPrice != nil {
			lo = *f.MinPrice
		}
		if f.MaxPrice != nil {
			hi = *f.MaxPrice
		}
		return func(l *models.Listing) bool { return l.Price >= lo && l.Price <= hi }, nil

	case FilterGrade:
		if len(f.Grades) == 0 {
			return func(*models.Listing) bool { return !f.Explicit }, nil
		}
		set := make(map[float64]bool, len(f.Grades))
		for _, g := range f.Grades {
			set[g] = true
		}
		return func(l *models.Listing) bool { return set[l.Grade] }, nil

	case FilterRecommendation:
		if len(f.Recommendations) == 0 {
			return func(*models.Listing) bool { return !f.Explicit }, nil
		}
		set := make(map[models.Recommendation]bool, len(f.Recommendations))
		for _, r := range f.Recommendations {
			if !r.Valid() {
				return nil, fmt.Errorf("%w: unknown recommendation %q", ErrInvalidFilter, r)
			}
			set[r] = true
		}
		return func(l *models.Listing) bool { return set[l.Recommendation] }, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidFilter, f.Kind)
}

// FilterOptions are the choices offered by the dashboard controls.
type FilterOptions struct {
	MinPrice        int                     `json:"min_price"`
	MaxPrice        int                     `json:"max_price"`
	Grades          []float64               `json:"grades"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// Options derives slider bounds, sorted unique grades and the labels in
// order of first appearance.
func Options(listings []*models.Listing) FilterOptions {
	opts := FilterOptions{Grades: []float64{}, Recommendations: []models.Recommendation{}}
	if len(listings) == 0 {
		return opts
	}

	lo, hi := listings[0].Price, listings[0].Price
	grades := make(map[float64]bool)
	recs := make(map[models.Recommendation]bool)
	for _, l := range listings {
		lo = math.Min(lo, l.Price)
		hi = math.Max(hi, l.Price)
		if !grades[l.Grade] {
			grades[l.Grade] = true
			opts.Grades = append(opts.Grades, l.Grade)
		}
		if l.Recommendation != "" && !recs[l.Recommendation] {
			recs[l.Recommendation] = true
			opts.Recommendations = append(opts.Recommendations, l.Recommendation)
		}
	}
	sort.Float64s(opts.Grades)
	opts.MinPrice = int(lo)
	opts.MaxPrice = int(hi)
	return opts
}

package services

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-recommender/models"
	"estate-recommender/utils"
)

func newTestLabeler() *Labeler { return NewLabeler(utils.NewNopLogger()) }

func listingsOf(pairs ...[2]float64) []*models.Listing {
	out := make([]*models.Listing, len(pairs))
	for i, p := range pairs {
		out[i] = &models.Listing{Index: i, Price: p[0], Grade: p[1], Bedrooms: 1}
	}
	return out
}

func labelsOf(listings []*models.Listing) []models.Recommendation {
	out := make([]models.Recommendation, len(listings))
	for i, l := range listings {
		out[i] = l.Recommendation
	}
	return out
}

func TestLabelMedianRule(t *testing.T) {
	in := listingsOf([2]float64{100, 5}, [2]float64{200, 3}, [2]float64{150, 8}, [2]float64{300, 9})

	res, err := newTestLabeler().Label(in)
	require.NoError(t, err)

	assert.Equal(t, 175.0, res.PriceMedian)
	assert.Equal(t, 6.5, res.GradeMedian)
	assert.False(t, res.FallbackApplied)
	assert.Equal(t, []models.Recommendation{
		models.RecommendationDecent,
		models.RecommendationOthers,
		models.RecommendationBest,
		models.RecommendationDecent,
	}, labelsOf(res.Listings))
}

func TestLabelPerBedroom(t *testing.T) {
	in := []*models.Listing{
		{Index: 0, Price: 300, Grade: 9, Bedrooms: 4},
		{Index: 1, Price: 250, Grade: 5, Bedrooms: 4},
		{Index: 2, Price: 350, Grade: 5, Bedrooms: 4},
	}

	res, err := newTestLabeler().Label(in)
	require.NoError(t, err)

	assert.Equal(t, 75.0, res.Listings[0].PerBedroom)
	assert.Equal(t, 62.0, res.Listings[1].PerBedroom, "62.5 rounds half to even")
	assert.Equal(t, 88.0, res.Listings[2].PerBedroom, "87.5 rounds half to even")
}

func TestLabelIdenticalListingsAreAllBest(t *testing.T) {
	in := listingsOf([2]float64{250, 7}, [2]float64{250, 7}, [2]float64{250, 7})

	res, err := newTestLabeler().Label(in)
	require.NoError(t, err)

	for _, l := range res.Listings {
		assert.Equal(t, models.RecommendationBest, l.Recommendation)
	}
	assert.False(t, res.FallbackApplied)
}

func TestLabelFallbackPicksBestRatio(t *testing.T) {
	in := listingsOf([2]float64{10, 1}, [2]float64{20, 4})

	res, err := newTestLabeler().Label(in)
	require.NoError(t, err)

	assert.True(t, res.FallbackApplied)
	assert.Equal(t, []models.Recommendation{
		models.RecommendationDecent,
		models.RecommendationBest,
	}, labelsOf(res.Listings))
}

func TestLabelFallbackTieKeepsFirst(t *testing.T) {
	in := listingsOf([2]float64{1, 1}, [2]float64{2, 2})

	res, err := newTestLabeler().Label(in)
	require.NoError(t, err)

	assert.True(t, res.FallbackApplied)
	assert.Equal(t, []models.Recommendation{
		models.RecommendationBest,
		models.RecommendationDecent,
	}, labelsOf(res.Listings))
}

func TestLabelFallbackZeroPrice(t *testing.T) {
	in := listingsOf([2]float64{0, 1}, [2]float64{20, 4})

	_, err := newTestLabeler().Label(in)
	assert.ErrorIs(t, err, ErrDivision)
}

func TestLabelZeroPriceWithoutFallbackIsFine(t *testing.T) {
	in := listingsOf([2]float64{0, 9}, [2]float64{20, 1})

	res, err := newTestLabeler().Label(in)
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationBest, res.Listings[0].Recommendation)
}

func TestLabelEmptyInput(t *testing.T) {
	res, err := newTestLabeler().Label(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	require.NotNil(t, res)
	assert.Empty(t, res.Listings)
}

func TestLabelErrors(t *testing.T) {
	tests := []struct {
		name    string
		listing *models.Listing
		want    error
	}{
		{"zero bedrooms", &models.Listing{Price: 100, Grade: 5, Bedrooms: 0}, ErrDivision},
		{"negative bedrooms", &models.Listing{Price: 100, Grade: 5, Bedrooms: -1}, ErrInvalidData},
		{"nan price", &models.Listing{Price: math.NaN(), Grade: 5, Bedrooms: 1}, ErrInvalidData},
		{"inf grade", &models.Listing{Price: 100, Grade: math.Inf(1), Bedrooms: 1}, ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []*models.Listing{{Index: 0, Price: 50, Grade: 5, Bedrooms: 2}, tt.listing}
			tt.listing.Index = 1

			_, err := newTestLabeler().Label(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "row 1")
		})
	}
}

func TestLabelDoesNotMutateInput(t *testing.T) {
	in := listingsOf([2]float64{100, 5}, [2]float64{200, 3})
	in[0].Recommendation = models.RecommendationOthers
	in[0].Extra = map[string]string{"bathrooms": "2"}

	res, err := newTestLabeler().Label(in)
	require.NoError(t, err)

	assert.Equal(t, models.RecommendationOthers, in[0].Recommendation)
	assert.Empty(t, in[1].Recommendation)
	assert.Zero(t, in[0].PerBedroom)

	res.Listings[0].Extra["bathrooms"] = "9"
	assert.Equal(t, "2", in[0].Extra["bathrooms"])
}

func TestLabelIsIdempotent(t *testing.T) {
	in := randomListings(rand.New(rand.NewSource(7)), 40)

	first, err := newTestLabeler().Label(in)
	require.NoError(t, err)

	scrambled := make([]*models.Listing, len(first.Listings))
	for i, l := range first.Listings {
		c := l.Clone()
		c.Recommendation = models.Recommendations[(i+1)%len(models.Recommendations)]
		scrambled[i] = c
	}

	second, err := newTestLabeler().Label(scrambled)
	require.NoError(t, err)
	assert.Equal(t, labelsOf(first.Listings), labelsOf(second.Listings))
	assert.Equal(t, first.PriceMedian, second.PriceMedian)
}

func TestLabelInvariantsOnRandomData(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		in := randomListings(rng, 1+rng.Intn(30))

		res, err := newTestLabeler().Label(in)
		require.NoError(t, err)
		require.Len(t, res.Listings, len(in))

		best := 0
		for _, l := range res.Listings {
			require.True(t, l.Recommendation.Valid(), "label %q", l.Recommendation)
			if l.Recommendation == models.RecommendationBest {
				best++
			}
		}
		require.Positive(t, best, "iteration %d produced no Best", iter)
	}
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 7.0, median([]float64{7}))
	assert.True(t, math.IsNaN(median(nil)))
}

func randomListings(rng *rand.Rand, n int) []*models.Listing {
	out := make([]*models.Listing, n)
	for i := range out {
		out[i] = &models.Listing{
			Index:    i,
			Price:    float64(1 + rng.Intn(20)),
			Grade:    float64(1 + rng.Intn(12)),
			Bedrooms: 1 + rng.Intn(5),
		}
	}
	return out
}

package dashboard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-recommender/models"
)

func TestRenderDistribution(t *testing.T) {
	listings := []*models.Listing{
		{Price: 1, Grade: 1, Recommendation: models.RecommendationBest},
		{Price: 2, Grade: 2, Recommendation: models.RecommendationOthers},
		{Price: 3, Grade: 3, Recommendation: models.RecommendationOthers},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderDistribution(&buf, listings))

	out := buf.String()
	assert.Contains(t, out, "Recommendation Distribution")
	assert.Contains(t, out, "3 listings")
	assert.Contains(t, out, "gray")
}

func TestRenderScatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderScatter(&buf, nil))
	assert.Contains(t, buf.String(), "Price vs Grade by Recommendation")
}

package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-recommender/models"
	"estate-recommender/services"
)

// selectionParam marks a submitted checkbox group. Its value names the filter
// kind the form was showing, so an empty group selects nothing for that kind.
const selectionParam = "sel"

// parseFilter reads type, min_price, max_price, grade, rec and sel query
// parameters. Missing parameters select everything.
func parseFilter(c *gin.Context) (services.Filter, error) {
	f := services.Filter{Kind: services.FilterKind(strings.ToLower(c.DefaultQuery("type", string(services.FilterPrice))))}

	switch f.Kind {
	case services.FilterPrice, services.FilterGrade, services.FilterRecommendation:
	default:
		return f, fmt.Errorf("%w: unknown type %q", services.ErrInvalidFilter, f.Kind)
	}

	var err error
	if f.MinPrice, err = optionalFloat(c.Query("min_price")); err != nil {
		return f, fmt.Errorf("%w: min_price: %v", services.ErrInvalidFilter, err)
	}
	if f.MaxPrice, err = optionalFloat(c.Query("max_price")); err != nil {
		return f, fmt.Errorf("%w: max_price: %v", services.ErrInvalidFilter, err)
	}

	for _, raw := range c.QueryArray("grade") {
		g, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return f, fmt.Errorf("%w: grade %q", services.ErrInvalidFilter, raw)
		}
		f.Grades = append(f.Grades, g)
	}
	for _, raw := range c.QueryArray("rec") {
		f.Recommendations = append(f.Recommendations, models.Recommendation(strings.TrimSpace(raw)))
	}
	f.Explicit = strings.EqualFold(c.Query(selectionParam), string(f.Kind))
	return f, nil
}

func optionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

package dashboard

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"estate-recommender/models"
	"estate-recommender/services"
)

// LabelColors are the marker colours used for each recommendation.
var LabelColors = map[models.Recommendation]string{
	models.RecommendationBest:   "green",
	models.RecommendationDecent: "orange",
	models.RecommendationOthers: "gray",
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     "100%",
		Height:    "420px",
	})
}

// RenderDistribution writes a bar chart of listings per label, in the order
// services.LabelCounts returns them.
func RenderDistribution(w io.Writer, listings []*models.Listing) error {
	counts := services.LabelCounts(listings)

	names := make([]string, 0, len(counts))
	items := make([]opts.BarData, 0, len(counts))
	for _, lc := range counts {
		names = append(names, string(lc.Label))
		items = append(items, opts.BarData{
			Name:      string(lc.Label),
			Value:     lc.Count,
			ItemStyle: &opts.ItemStyle{Color: LabelColors[lc.Label]},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Recommendation Distribution"),
		charts.WithTitleOpts(opts.Title{
			Title:    "Recommendation Distribution",
			Subtitle: fmt.Sprintf("%d listings", len(listings)),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Listings"}),
	)
	bar.SetXAxis(names).AddSeries("Listings", items)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("chart: render distribution: %w", err)
	}
	return nil
}

// RenderScatter writes a Price vs Grade scatter plot with one series per label.
func RenderScatter(w io.Writer, listings []*models.Listing) error {
	series := make(map[models.Recommendation][]opts.ScatterData, len(models.Recommendations))
	for _, l := range listings {
		series[l.Recommendation] = append(series[l.Recommendation], opts.ScatterData{
			Name:  fmt.Sprintf("row %d", l.Index),
			Value: []interface{}{l.Grade, l.Price},
		})
	}

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		initOpts("Price vs Grade"),
		charts.WithTitleOpts(opts.Title{Title: "Price vs Grade by Recommendation"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Grade", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Price", Type: "value"}),
	)
	for _, r := range models.Recommendations {
		sc.AddSeries(string(r), series[r],
			charts.WithItemStyleOpts(opts.ItemStyle{Color: LabelColors[r]}))
	}

	if err := sc.Render(w); err != nil {
		return fmt.Errorf("chart: render scatter: %w", err)
	}
	return nil
}

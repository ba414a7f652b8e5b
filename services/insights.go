package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"estate-recommender/models"
	"estate-recommender/utils"
)

const topValueCount = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises the given listings. The dataset supplies the medians
// and fallback flag, which describe the full table rather than a filtered view.
func (s *InsightService) Generate(ds *models.Dataset, listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		LabelCounts: LabelCounts(listings),
		TopValue:    []*models.Listing{},
	}
	if ds != nil {
		report.DatasetID = ds.ID
		report.PriceMedian = ds.PriceMedian
		report.GradeMedian = ds.GradeMedian
		report.FallbackApplied = ds.FallbackApplied
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)
	report.MinPrice = listings[0].Price
	report.MaxPrice = listings[0].Price
	var total float64
	for _, l := range listings {
		total += l.Price
		if l.Price < report.MinPrice {
			report.MinPrice = l.Price
		}
		if l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
		}
	}
	report.AveragePrice = round2(total / float64(len(listings)))
	report.MinPrice = round2(report.MinPrice)
	report.MaxPrice = round2(report.MaxPrice)

	byValue := make([]*models.Listing, len(listings))
	copy(byValue, listings)
	sort.SliceStable(byValue, func(i, j int) bool {
		return ValueRatio(byValue[i]) > ValueRatio(byValue[j])
	})
	if len(byValue) > topValueCount {
		byValue = byValue[:topValueCount]
	}
	report.TopValue = byValue

	return report
}

// LabelCounts counts listings per label, largest first. Equal counts keep
// the Best, Decent, Others order; absent labels are omitted.
func LabelCounts(listings []*models.Listing) []models.LabelCount {
	counts := make(map[models.Recommendation]int)
	for _, l := range listings {
		counts[l.Recommendation]++
	}
	out := make([]models.LabelCount, 0, len(models.Recommendations))
	for _, r := range models.Recommendations {
		if n := counts[r]; n > 0 {
			out = append(out, models.LabelCount{Label: r, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 LISTING RECOMMENDATIONS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Dataset        : %s\n", r.DatasetID)
	fmt.Fprintf(w, "  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Price median   : $%s\n", humanize.Commaf(r.PriceMedian))
	fmt.Fprintf(w, "  Grade median   : %g\n", r.GradeMedian)
	if r.FallbackApplied {
		fmt.Fprintf(w, "  \033[33mNo listing met both medians; best value ratio promoted to Best\033[0m\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.TotalListings > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m$%s\033[0m\n", humanize.Commaf(r.AveragePrice))
		fmt.Fprintf(w, "  Minimum price : \033[1;32m$%s\033[0m\n", humanize.Commaf(r.MinPrice))
		fmt.Fprintf(w, "  Maximum price : \033[1;32m$%s\033[0m\n", humanize.Commaf(r.MaxPrice))
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Recommendation Distribution\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.LabelCounts) == 0 {
		fmt.Fprintf(w, "  No labeled listings\n")
	}
	for _, lc := range r.LabelCounts {
		bar := strings.Repeat("█", scaleBar(lc.Count, r.TotalListings, 30))
		fmt.Fprintf(w, "  %-8s %s (%d)\n", lc.Label, bar, lc.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top %d by Grade per Price\033[0m\n", topValueCount)
	fmt.Fprintf(w, "  %s\n", thin)
	for i, l := range r.TopValue {
		fmt.Fprintf(w, "  \033[1m%d.\033[0m row %-6d grade %-5g $%-12s %s\n",
			i+1, l.Index, l.Grade, humanize.Commaf(l.Price), l.Recommendation)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func scaleBar(count, total, width int) int {
	if total == 0 || count == 0 {
		return 0
	}
	n := count * width / total
	if n == 0 {
		n = 1
	}
	return n
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

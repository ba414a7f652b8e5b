package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"estate-recommender/models"
	"estate-recommender/services"
	"estate-recommender/storage"
)

var (
	labelOut  string
	labelRecs []string
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Label the dataset and print a recommendation summary",
	Example: `  estate-recommender label --data archive.zip
  estate-recommender label --out filtered_recommendations.csv --rec Best --rec Decent`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		ds, err := loader.Load()
		if err != nil {
			return err
		}

		listings := ds.Listings
		if len(labelRecs) > 0 {
			f := services.Filter{Kind: services.FilterRecommendation}
			for _, r := range labelRecs {
				f.Recommendations = append(f.Recommendations, models.Recommendation(r))
			}
			if listings, err = f.Apply(listings); err != nil {
				return err
			}
		}

		insights := services.NewInsightService(logger)
		insights.Print(cmd.OutOrStdout(), insights.Generate(ds, listings))

		if labelOut == "" {
			return nil
		}
		out := *ds
		out.Listings = listings
		if err := writeDataset(labelOut, &out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  Wrote %d labeled listings to %s\n", len(listings), labelOut)
		return nil
	},
}

// writeDataset writes ds as CSV to path.
func writeDataset(path string, ds *models.Dataset) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	return writeAndClose(w, ds)
}

func writeAndClose(w storage.ListingWriter, ds *models.Dataset) error {
	if err := w.Write(ds); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func init() {
	labelCmd.Flags().StringVarP(&labelOut, "out", "o", "", "write the labeled table as CSV")
	labelCmd.Flags().StringSliceVar(&labelRecs, "rec", nil, "keep only these recommendations (Best, Decent, Others)")
	rootCmd.AddCommand(labelCmd)
}

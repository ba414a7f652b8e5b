package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"estate-recommender/services"
	"estate-recommender/storage"
)

var storeDatabaseURL string

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Label the dataset and persist it to PostgreSQL",
	Long: `store labels the configured dataset, writes it to the labeled_listings
table under a fresh dataset ID, then reads it back and prints the summary
from the stored rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("database-url") {
			cfg.DatabaseURL = storeDatabaseURL
		}

		loader, err := newLoader()
		if err != nil {
			return err
		}
		ds, err := loader.Load()
		if err != nil {
			return err
		}

		pg, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("[store] Failed to connect to PostgreSQL: %v", err)
			logger.Error("[store] Make sure Docker is running: docker compose up -d")
			return err
		}
		defer pg.Close()

		if err := pg.Write(ds); err != nil {
			return fmt.Errorf("store dataset %s: %w", ds.ID, err)
		}
		logger.Info("[store] Stored %d listings as dataset %s", len(ds.Listings), ds.ID)

		stored, err := pg.FetchAll(ds.ID)
		if err != nil {
			logger.Error("[store] Failed to read listings back for insights: %v", err)
			stored = ds.Listings
		}

		insights := services.NewInsightService(logger)
		insights.Print(cmd.OutOrStdout(), insights.Generate(ds, stored))
		fmt.Fprintf(cmd.OutOrStdout(), "  Done. Dataset %s -> PostgreSQL (labeled_listings table)\n\n", ds.ID)
		return nil
	},
}

func init() {
	storeCmd.Flags().StringVar(&storeDatabaseURL, "database-url", "", "PostgreSQL URL (default: DATABASE_URL or POSTGRES_*)")
	rootCmd.AddCommand(storeCmd)
}

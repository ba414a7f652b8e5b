package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"estate-recommender/config"
	"estate-recommender/services"
	"estate-recommender/utils"
)

var (
	// Global flags, each overriding its environment variable when set.
	flagData     string
	flagSchema   string
	flagLogLevel string
	flagRows     int
	flagSeed     int64

	cfg    *config.Config
	logger *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "estate-recommender",
	Short: "Label real-estate listings as Best, Decent or Others and explore them",
	Long: `estate-recommender loads a listings table (CSV or a zip archive holding one),
labels every listing against the price and grade medians, and serves a
filterable dashboard over the result. Without a data file it uses a
seeded synthetic table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadConfig(cmd)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flagData, "data", "", "CSV or zip dataset (default: DATA_PATH, synthetic when empty)")
	f.StringVar(&flagSchema, "schema", "", "YAML column schema (default: SCHEMA_PATH, built-in when empty)")
	f.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (default: LOG_LEVEL)")
	f.IntVar(&flagRows, "rows", 0, "synthetic row count (default: SYNTHETIC_ROWS)")
	f.Int64Var(&flagSeed, "seed", 0, "synthetic seed (default: SYNTHETIC_SEED)")
}

func loadConfig(cmd *cobra.Command) {
	cfg = config.Load()

	f := cmd.Flags()
	if f.Changed("data") {
		cfg.DataPath = flagData
	}
	if f.Changed("schema") {
		cfg.SchemaPath = flagSchema
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("rows") && flagRows > 0 {
		cfg.SyntheticRows = flagRows
	}
	if f.Changed("seed") {
		cfg.SyntheticSeed = flagSeed
	}

	logger = utils.NewLoggerWithLevel(cfg.LogLevel)
}

// newLoader wires the schema, cleaner, generator and labeler for the
// configured source.
func newLoader() (*services.Loader, error) {
	schema, err := config.LoadSchema(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}

	if cfg.UsesSyntheticData() {
		logger.Info("[cli] No dataset configured, using %d synthetic rows (seed %d)", cfg.SyntheticRows, cfg.SyntheticSeed)
	}
	gen := services.NewGenerator(cfg.SyntheticRows, cfg.SyntheticSeed)
	return services.NewLoader(logger, schema, cfg.DataPath, gen), nil
}

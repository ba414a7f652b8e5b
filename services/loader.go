package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"estate-recommender/config"
	"estate-recommender/models"
	"estate-recommender/storage"
	"estate-recommender/utils"
)

// SourceSynthetic is the Dataset.Source of generated data.
const SourceSynthetic = "synthetic"

// Loader reads the configured source, cleans it and labels it into a Dataset.
type Loader struct {
	logger    *utils.Logger
	cleaner   *Cleaner
	labeler   *Labeler
	dataPath  string
	generator *Generator
}

// NewLoader builds a Loader. An empty dataPath selects the synthetic generator.
func NewLoader(logger *utils.Logger, schema *config.Schema, dataPath string, gen *Generator) *Loader {
	return &Loader{
		logger:    logger,
		cleaner:   NewCleaner(logger, schema),
		labeler:   NewLabeler(logger),
		dataPath:  dataPath,
		generator: gen,
	}
}

// Load produces a freshly labeled Dataset with a new ID.
func (ld *Loader) Load() (*models.Dataset, error) {
	var (
		listings []*models.Listing
		dropped  int
		source   = ld.dataPath
	)

	if source == "" {
		if ld.generator == nil {
			return nil, errors.New("loader: no data path and no generator configured")
		}
		source = SourceSynthetic
		listings = ld.generator.Generate()
		ld.logger.Info("[loader] Generated %d synthetic listings (seed %d)", len(listings), ld.generator.Seed)
	} else {
		tbl, err := storage.ReadDataset(ld.dataPath)
		if err != nil {
			return nil, err
		}
		res, err := ld.cleaner.Clean(tbl)
		if err != nil {
			return nil, err
		}
		listings, dropped = res.Listings, res.Dropped
	}

	return ld.LabelDataset(source, listings, dropped)
}

// LabelDataset labels listings and wraps them in a Dataset.
func (ld *Loader) LabelDataset(source string, listings []*models.Listing, dropped int) (*models.Dataset, error) {
	res, err := ld.labeler.Label(listings)
	if err != nil {
		return nil, fmt.Errorf("label %s: %w", source, err)
	}

	ds := &models.Dataset{
		ID:              uuid.NewString(),
		Source:          source,
		LoadedAt:        time.Now(),
		Listings:        res.Listings,
		PriceMedian:     res.PriceMedian,
		GradeMedian:     res.GradeMedian,
		FallbackApplied: res.FallbackApplied,
		DroppedRows:     dropped,
	}
	ld.logger.Info("[loader] Dataset %s ready: %d listings from %s", ds.ID, len(ds.Listings), source)
	return ds, nil
}

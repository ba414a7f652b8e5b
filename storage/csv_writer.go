package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"estate-recommender/models"
)

// ExportFileName is the download name of the filtered CSV export.
const ExportFileName = "filtered_recommendations.csv"

const dateLayout = "2006-01-02"

// CSVWriter writes labeled listings to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}
	return &CSVWriter{file: f}, nil
}

// Write replaces the file contents with the dataset's listings.
func (c *CSVWriter) Write(ds *models.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.file.Truncate(0); err != nil {
		return fmt.Errorf("csv: truncate: %w", err)
	}
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("csv: seek: %w", err)
	}
	return EncodeCSV(c.file, ds.Listings)
}

// Close closes the underlying file.
func (c *CSVWriter) Close() error {
	return c.file.Close()
}

// EncodeCSV writes listings with a header row. Extra source columns are
// emitted between the mapped fields and the derived ones, sorted by name.
func EncodeCSV(w io.Writer, listings []*models.Listing) error {
	extras := extraColumns(listings)

	header := []string{"Date", "Price", "Bedrooms", "Floors", "Condition", "Grade", "Year_Built", "Year_Renovated"}
	header = append(header, extras...)
	header = append(header, "per_bedroom", "Recommendation")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, l := range listings {
		date := ""
		if !l.Date.IsZero() {
			date = l.Date.Format(dateLayout)
		}
		row := []string{
			date,
			formatFloat(l.Price),
			strconv.Itoa(l.Bedrooms),
			formatFloat(l.Floors),
			strconv.Itoa(l.Condition),
			formatFloat(l.Grade),
			strconv.Itoa(l.YearBuilt),
			strconv.Itoa(l.YearRenovated),
		}
		for _, name := range extras {
			row = append(row, l.Extra[name])
		}
		row = append(row, formatFloat(l.PerBedroom), string(l.Recommendation))

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func extraColumns(listings []*models.Listing) []string {
	set := make(map[string]struct{})
	for _, l := range listings {
		for k := range l.Extra {
			set[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for k := range set {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package services

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"estate-recommender/config"
	"estate-recommender/models"
	"estate-recommender/storage"
	"estate-recommender/utils"
)

var (
	// currencyRegexp strips currency symbols and spaces.
	currencyRegexp = regexp.MustCompile(`[\s$€£฿]`)
	// numberRegexp accepts plain and scientific decimal notation.
	numberRegexp = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?$`)

	missingTokens = map[string]bool{"": true, "na": true, "nan": true, "null": true, "none": true, "<nil>": true}

	errMissingValue = errors.New("missing value")
)

// CleanResult is the outcome of mapping a raw table onto Listings.
type CleanResult struct {
	Listings []*models.Listing
	Dropped  int
}

// Cleaner maps raw table columns onto Listings through a Schema and drops
// rows whose required values are missing.
type Cleaner struct {
	logger *utils.Logger
	schema *config.Schema
}

// NewCleaner creates a Cleaner. A nil schema means config.DefaultSchema().
func NewCleaner(logger *utils.Logger, schema *config.Schema) *Cleaner {
	if schema == nil {
		schema = config.DefaultSchema()
	}
	return &Cleaner{logger: logger, schema: schema}
}

// Clean resolves the schema against the table's columns and converts every
// row. Absent required columns fail with ErrMissingColumns.
func (c *Cleaner) Clean(t *storage.Table) (*CleanResult, error) {
	dec := c.decimalMark(t.Delimiter)
	df, err := c.dropColumns(t.Frame)
	if err != nil {
		return nil, err
	}

	resolved, err := c.resolve(df.Names())
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool, len(resolved))
	cols := make(map[string][]string, len(resolved))
	for field, source := range resolved {
		used[source] = true
		cols[field] = df.Col(source).Records()
	}

	var extraNames []string
	extraCols := make(map[string][]string)
	for _, name := range df.Names() {
		if !used[name] {
			extraNames = append(extraNames, name)
			extraCols[name] = df.Col(name).Records()
		}
	}

	res := &CleanResult{Listings: make([]*models.Listing, 0, df.Nrow())}
	for i := 0; i < df.Nrow(); i++ {
		cell := func(field string) string {
			if v, ok := cols[field]; ok {
				return v[i]
			}
			return ""
		}

		l, err := c.convert(i, cell, dec)
		if err != nil {
			c.logger.Debug("[cleaner] Dropping row %d: %v", i, err)
			res.Dropped++
			continue
		}
		if c.schema.DropZeroBedrooms && l.Bedrooms == 0 {
			c.logger.Warn("[cleaner] Dropping row %d: zero bedrooms", i)
			res.Dropped++
			continue
		}
		if c.schema.DropZeroPrice && l.Price == 0 {
			c.logger.Warn("[cleaner] Dropping row %d: zero price", i)
			res.Dropped++
			continue
		}

		if len(extraNames) > 0 {
			l.Extra = make(map[string]string, len(extraNames))
			for _, name := range extraNames {
				l.Extra[name] = extraCols[name][i]
			}
		}
		res.Listings = append(res.Listings, l)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		df.Nrow(), len(res.Listings), res.Dropped)
	return res, nil
}

func (c *Cleaner) dropColumns(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	drop := make(map[string]bool, len(c.schema.Drop))
	for _, d := range c.schema.Drop {
		drop[strings.ToLower(d)] = true
	}

	var names []string
	for _, n := range df.Names() {
		if drop[strings.ToLower(n)] {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return df, nil
	}

	out := df.Drop(names)
	if out.Err != nil {
		return df, fmt.Errorf("cleaner: drop columns: %w", out.Err)
	}
	return out, nil
}

// resolve maps each schema field onto the first present source column.
func (c *Cleaner) resolve(names []string) (map[string]string, error) {
	byLower := make(map[string]string, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if _, ok := byLower[key]; !ok {
			byLower[key] = n
		}
	}

	resolved := make(map[string]string)
	var missing []string
	for _, m := range c.schema.Columns {
		found := ""
		for _, src := range m.Sources {
			if n, ok := byLower[strings.ToLower(src)]; ok {
				found = n
				break
			}
		}
		switch {
		case found != "":
			resolved[m.Field] = found
		case m.Required:
			missing = append(missing, fmt.Sprintf("%s (tried %s)", m.Field, strings.Join(m.Sources, ", ")))
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, "; "))
	}
	return resolved, nil
}

// decimalMark picks the decimal mark for a table read with delim.
// Zero means it is decided per value.
func (c *Cleaner) decimalMark(delim rune) rune {
	switch c.schema.Decimal {
	case config.DecimalPoint:
		return '.'
	case config.DecimalComma:
		return ','
	}
	if delim == ';' {
		return 0
	}
	return '.'
}

func (c *Cleaner) convert(row int, cell func(string) string, dec rune) (*models.Listing, error) {
	l := &models.Listing{Index: row}

	price, err := parseNumber(cell(config.FieldPrice), dec)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	grade, err := parseNumber(cell(config.FieldGrade), dec)
	if err != nil {
		return nil, fmt.Errorf("grade: %w", err)
	}
	beds, err := parseNumber(cell(config.FieldBedrooms), dec)
	if err != nil {
		return nil, fmt.Errorf("bedrooms: %w", err)
	}
	if beds < 0 || beds != math.Trunc(beds) {
		return nil, fmt.Errorf("bedrooms: %w: %v", ErrInvalidData, beds)
	}

	l.Price = price
	l.Grade = grade
	l.Bedrooms = int(beds)
	l.Date = c.parseDate(cell(config.FieldDate))
	l.Floors = optionalNumber(cell(config.FieldFloors), dec)
	l.Condition = int(optionalNumber(cell(config.FieldCondition), dec))
	l.YearBuilt = int(optionalNumber(cell(config.FieldYearBuilt), dec))
	l.YearRenovated = int(optionalNumber(cell(config.FieldYearRenovated), dec))
	return l, nil
}

// parseDate tries each schema layout; unparsable dates become the zero time.
func (c *Cleaner) parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return time.Time{}
	}
	for _, layout := range c.schema.DateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseNumber reads a number whose decimal mark is dec ('.' or ','); the
// other separator is treated as a thousands separator. A zero dec reads ','
// as the decimal mark only when the value contains one.
func parseNumber(raw string, dec rune) (float64, error) {
	if isMissing(raw) {
		return 0, errMissingValue
	}
	cleaned := currencyRegexp.ReplaceAllString(raw, "")
	if dec == 0 {
		dec = '.'
		if strings.ContainsRune(cleaned, ',') {
			dec = ','
		}
	}
	if dec == ',' {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	if !numberRegexp.MatchString(cleaned) {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidData, raw)
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidData, raw)
	}
	return f, nil
}

func optionalNumber(raw string, dec rune) float64 {
	f, err := parseNumber(raw, dec)
	if err != nil {
		return 0
	}
	return f
}

func isMissing(raw string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(raw))]
}

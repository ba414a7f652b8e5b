package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Listing fields a source column can be mapped onto.
const (
	FieldDate          = "Date"
	FieldPrice         = "Price"
	FieldBedrooms      = "Bedrooms"
	FieldFloors        = "Floors"
	FieldCondition     = "Condition"
	FieldGrade         = "Grade"
	FieldYearBuilt     = "Year_Built"
	FieldYearRenovated = "Year_Renovated"
)

var knownFields = map[string]bool{
	FieldDate: true, FieldPrice: true, FieldBedrooms: true, FieldFloors: true,
	FieldCondition: true, FieldGrade: true, FieldYearBuilt: true, FieldYearRenovated: true,
}

// Fields the labeler cannot work without.
var coreFields = []string{FieldPrice, FieldGrade, FieldBedrooms}

// ColumnMapping binds one Listing field to the source columns that may carry
// it. Sources are tried in order and matched case-insensitively.
type ColumnMapping struct {
	Field    string   `yaml:"field"`
	Sources  []string `yaml:"sources"`
	Required bool     `yaml:"required"`
}

// Decimal marks accepted by Schema.Decimal. DecimalAuto reads ',' as the
// decimal mark in ';'-delimited tables when a value contains one, and as a
// thousands separator otherwise.
const (
	DecimalAuto  = ""
	DecimalPoint = "."
	DecimalComma = ","
)

// Schema describes how a raw table becomes Listings.
type Schema struct {
	Columns          []ColumnMapping `yaml:"columns"`
	Drop             []string        `yaml:"drop"`
	DateLayouts      []string        `yaml:"date_layouts"`
	Decimal          string          `yaml:"decimal"`
	DropZeroBedrooms bool            `yaml:"drop_zero_bedrooms"`
	DropZeroPrice    bool            `yaml:"drop_zero_price"`
}

// DefaultSchema maps the King County house-sales export as well as tables
// that already use the display column names.
func DefaultSchema() *Schema {
	return &Schema{
		Columns: []ColumnMapping{
			{Field: FieldDate, Sources: []string{"date", "Date"}},
			{Field: FieldPrice, Sources: []string{"price", "Price"}, Required: true},
			{Field: FieldBedrooms, Sources: []string{"bedrooms", "Bedrooms"}, Required: true},
			{Field: FieldFloors, Sources: []string{"floors", "Floors"}},
			{Field: FieldCondition, Sources: []string{"condition", "Condition"}},
			{Field: FieldGrade, Sources: []string{"grade", "Grade"}, Required: true},
			{Field: FieldYearBuilt, Sources: []string{"yr_built", "Year_Built"}},
			{Field: FieldYearRenovated, Sources: []string{"yr_renovated", "Year_Renovated"}},
		},
		Drop: []string{
			"id", "zipcode", "sqft_living", "sqft_lot", "waterfront", "view",
			"sqft_above", "sqft_basement", "lat", "long", "sqft_living15", "sqft_lot15",
			"per_bedroom", "Recommendation",
		},
		DateLayouts:      []string{"20060102T150405", "2006-01-02", "2006-01-02 15:04:05", time.RFC3339},
		DropZeroBedrooms: true,
		DropZeroPrice:    true,
	}
}

// LoadSchema reads a YAML schema file. An empty path yields DefaultSchema.
func LoadSchema(path string) (*Schema, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSchema(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %q: %w", path, err)
	}
	s := &Schema{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("schema: parse %q: %w", path, err)
	}
	if len(s.DateLayouts) == 0 {
		s.DateLayouts = DefaultSchema().DateLayouts
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects unknown or duplicated fields, mappings without sources,
// unknown decimal marks and schemas that make Price, Grade or Bedrooms
// optional.
func (s *Schema) Validate() error {
	switch s.Decimal {
	case DecimalAuto, DecimalPoint, DecimalComma:
	default:
		return fmt.Errorf("schema: decimal must be %q or %q, got %q", DecimalPoint, DecimalComma, s.Decimal)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if !knownFields[c.Field] {
			return fmt.Errorf("schema: unknown field %q", c.Field)
		}
		if seen[c.Field] {
			return fmt.Errorf("schema: field %q mapped twice", c.Field)
		}
		seen[c.Field] = true
		if len(c.Sources) == 0 {
			return fmt.Errorf("schema: field %q has no source columns", c.Field)
		}
	}
	for _, f := range coreFields {
		m, ok := s.Mapping(f)
		if !ok {
			return fmt.Errorf("schema: field %q must be mapped", f)
		}
		if !m.Required {
			return fmt.Errorf("schema: field %q must be required", f)
		}
	}
	return nil
}

// Mapping returns the mapping for a field.
func (s *Schema) Mapping(field string) (ColumnMapping, bool) {
	for _, c := range s.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return ColumnMapping{}, false
}

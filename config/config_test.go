package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DATA_PATH", "")
	t.Setenv("SYNTHETIC_ROWS", "")

	c := FromEnv()
	assert.Equal(t, ":8501", c.HTTPAddr)
	assert.Equal(t, 100, c.SyntheticRows)
	assert.EqualValues(t, 42, c.SyntheticSeed)
	assert.True(t, c.UsesSyntheticData())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DATA_PATH", "archive.zip")
	t.Setenv("SYNTHETIC_ROWS", "250")
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	c := FromEnv()
	assert.False(t, c.UsesSyntheticData())
	assert.Equal(t, 250, c.SyntheticRows)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	c := &Config{PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://u:p@db/d"
	assert.Equal(t, "postgres://u:p@db/d", c.DSN())
}

func TestDefaultSchemaIsValid(t *testing.T) {
	require.NoError(t, DefaultSchema().Validate())
}

func TestLoadSchemaFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	body := `
columns:
  - field: Price
    sources: [sale_price]
    required: true
  - field: Grade
    sources: [quality]
    required: true
  - field: Bedrooms
    sources: [beds]
    required: true
  - field: Floors
    sources: [levels]
drop: [internal_id]
drop_zero_bedrooms: true
decimal: ","
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	m, ok := s.Mapping(FieldPrice)
	require.True(t, ok)
	assert.Equal(t, []string{"sale_price"}, m.Sources)
	assert.Equal(t, []string{"internal_id"}, s.Drop)
	assert.True(t, s.DropZeroBedrooms)
	assert.False(t, s.DropZeroPrice)
	assert.NotEmpty(t, s.DateLayouts)
	assert.Equal(t, DecimalComma, s.Decimal)
}

func TestLoadSchemaEmptyPathIsDefault(t *testing.T) {
	s, err := LoadSchema("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchema(), s)
}

func TestSchemaValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		want   string
	}{
		{
			name: "unknown field",
			schema: Schema{Columns: []ColumnMapping{
				{Field: "Bathrooms", Sources: []string{"bathrooms"}},
			}},
			want: "unknown field",
		},
		{
			name: "optional grade",
			schema: Schema{Columns: []ColumnMapping{
				{Field: FieldPrice, Sources: []string{"price"}, Required: true},
				{Field: FieldGrade, Sources: []string{"grade"}},
				{Field: FieldBedrooms, Sources: []string{"bedrooms"}, Required: true},
			}},
			want: `"Grade" must be required`,
		},
		{
			name: "missing bedrooms",
			schema: Schema{Columns: []ColumnMapping{
				{Field: FieldPrice, Sources: []string{"price"}, Required: true},
				{Field: FieldGrade, Sources: []string{"grade"}, Required: true},
			}},
			want: `"Bedrooms" must be mapped`,
		},
		{
			name: "no sources",
			schema: Schema{Columns: []ColumnMapping{
				{Field: FieldPrice, Required: true},
			}},
			want: "no source columns",
		},
		{
			name:   "unknown decimal mark",
			schema: Schema{Decimal: "'"},
			want:   "decimal must be",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"estate-recommender/models"
)

const insertColumns = 12

// PostgresWriter persists labeled dataset snapshots to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS labeled_listings (
			dataset_id     UUID          NOT NULL,
			row_index      INTEGER       NOT NULL,
			sale_date      DATE,
			price          NUMERIC(14,2) NOT NULL,
			bedrooms       INTEGER       NOT NULL,
			floors         NUMERIC(4,1)  NOT NULL DEFAULT 0,
			condition      INTEGER       NOT NULL DEFAULT 0,
			grade          NUMERIC(6,2)  NOT NULL,
			year_built     INTEGER       NOT NULL DEFAULT 0,
			year_renovated INTEGER       NOT NULL DEFAULT 0,
			per_bedroom    NUMERIC(14,0) NOT NULL,
			recommendation VARCHAR(10)   NOT NULL,
			created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			PRIMARY KEY (dataset_id, row_index)
		);

		CREATE INDEX IF NOT EXISTS idx_labeled_listings_recommendation ON labeled_listings(recommendation);
		CREATE INDEX IF NOT EXISTS idx_labeled_listings_price          ON labeled_listings(price);
	`)
	return err
}

// Write batch-inserts all labeled listings, replacing the dataset's old rows.
// The replacement is atomic.
func (pw *PostgresWriter) Write(ds *models.Dataset) error {
	if len(ds.Listings) == 0 {
		return nil
	}

	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM labeled_listings WHERE dataset_id = $1", ds.ID); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(ds.Listings); i += batchSize {
		end := i + batchSize
		if end > len(ds.Listings) {
			end = len(ds.Listings)
		}
		query, args := buildInsert(ds.ID, ds.Listings[i:end])
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func buildInsert(datasetID string, batch []*models.Listing) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*insertColumns)

	for idx, l := range batch {
		base := idx * insertColumns
		ph := make([]string, insertColumns)
		for k := range ph {
			ph[k] = fmt.Sprintf("$%d", base+k+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")

		var date interface{}
		if !l.Date.IsZero() {
			date = l.Date
		}
		valueArgs = append(valueArgs,
			datasetID, l.Index, date, l.Price, l.Bedrooms, l.Floors, l.Condition,
			l.Grade, l.YearBuilt, l.YearRenovated, l.PerBedroom, string(l.Recommendation))
	}

	query := fmt.Sprintf(`
		INSERT INTO labeled_listings (dataset_id, row_index, sale_date, price, bedrooms, floors, condition,
			grade, year_built, year_renovated, per_bedroom, recommendation)
		VALUES %s
		ON CONFLICT (dataset_id, row_index) DO NOTHING
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves one dataset's stored listings in source row order.
func (pw *PostgresWriter) FetchAll(datasetID string) ([]*models.Listing, error) {
	rows, err := pw.db.Query(`
		SELECT row_index, sale_date, price, bedrooms, floors, condition, grade,
		       year_built, year_renovated, per_bedroom, recommendation
		FROM labeled_listings
		WHERE dataset_id = $1
		ORDER BY row_index
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var date sql.NullTime
		var rec string
		if err := rows.Scan(
			&l.Index, &date, &l.Price, &l.Bedrooms, &l.Floors, &l.Condition, &l.Grade,
			&l.YearBuilt, &l.YearRenovated, &l.PerBedroom, &rec,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if date.Valid {
			l.Date = date.Time
		}
		l.Recommendation = models.Recommendation(rec)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

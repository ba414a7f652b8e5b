package storage

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is a raw listings table plus the field delimiter it was read with.
// A ';' delimiter usually means ',' is the decimal mark.
type Table struct {
	Frame     dataframe.DataFrame
	Delimiter rune
}

// ReadDataset loads a listings table from a .csv file or from the first .csv
// entry of a .zip archive. Every column is read as text.
func ReadDataset(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return readZippedCSV(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses CSV content into a string-typed data frame. The delimiter is
// sniffed from the header line among ',', ';' and tab. A header without data
// rows yields an empty table with those columns.
func ReadCSV(r io.Reader) (*Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: read csv: %w", err)
	}
	delim := sniffDelimiter(b)

	df := dataframe.ReadCSV(bytes.NewReader(b),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.WithDelimiter(delim),
	)
	if df.Err != nil {
		header, ok := headerOnly(b, delim)
		if !ok {
			return nil, fmt.Errorf("dataset: parse csv: %w", df.Err)
		}
		df = emptyFrame(header)
		if df.Err != nil {
			return nil, fmt.Errorf("dataset: parse csv header: %w", df.Err)
		}
	}
	return &Table{Frame: df, Delimiter: delim}, nil
}

// headerOnly returns the header when the content holds exactly one record.
func headerOnly(b []byte, delim rune) ([]string, bool) {
	cr := csv.NewReader(bytes.NewReader(b))
	cr.Comma = delim
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil || len(header) == 0 {
		return nil, false
	}
	if _, err := cr.Read(); err != io.EOF {
		return nil, false
	}
	return header, true
}

func emptyFrame(header []string) dataframe.DataFrame {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	return dataframe.New(cols...)
}

func readZippedCSV(path string) (*Table, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open archive %q: %w", path, err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(zf.Name), ".csv") {
			continue
		}
		if strings.HasPrefix(filepath.Base(zf.Name), "._") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("dataset: open %q in archive: %w", zf.Name, err)
		}
		defer rc.Close()
		return ReadCSV(rc)
	}
	return nil, fmt.Errorf("dataset: archive %q contains no .csv file", path)
}

func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source yields a header row followed by data rows. Next returns io.EOF
// after the last row.
type Source interface {
	Header() ([]string, error)
	Next() ([]string, error)
}

// Format names a tabular file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from an explicit name or, when that is
// empty, from the file extension. Unknown extensions read as CSV.
func DetectFormat(explicit, filename string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(explicit))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported format %q", explicit)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return FormatCSV, nil
}

// Open wraps r as a source of the given format.
func Open(format Format, r io.Reader) (Source, error) {
	if format == FormatXLSX {
		return ReadXLSX(r)
	}
	return NewCSVSource(r), nil
}

type csvSource struct {
	r *csv.Reader
}

// NewCSVSource reads comma separated rows. Rows may have fewer or more
// cells than the header.
func NewCSVSource(r io.Reader) Source {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &csvSource{r: cr}
}

func (s *csvSource) Header() ([]string, error) {
	header, err := s.r.Read()
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, nil
}

func (s *csvSource) Next() ([]string, error) {
	return s.r.Read()
}

type tableSource struct {
	rows [][]string
	pos  int
}

// NewTableSource serves rows held in memory; the first row is the header.
func NewTableSource(rows [][]string) Source {
	return &tableSource{rows: rows}
}

func (s *tableSource) Header() ([]string, error) {
	return s.Next()
}

func (s *tableSource) Next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// ReadXLSX loads the first sheet of a workbook.
func ReadXLSX(r io.Reader) (Source, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return NewTableSource(rows), nil
}

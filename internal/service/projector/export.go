package projector

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ougirez/hvac-catalog/internal/domain"
)

const sheetName = "Catalog"

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat defaults to CSV.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, true
	case FormatXLSX:
		return FormatXLSX, true
	}
	return "", false
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write exports rows in the given format.
func (p *Projector) Write(w io.Writer, format Format, rows []domain.Row, columns []domain.Column) error {
	if format == FormatXLSX {
		return p.WriteXLSX(w, rows, columns)
	}
	return p.WriteCSV(w, rows, columns)
}

// WriteCSV writes a label header line followed by one line per row.
func (p *Projector) WriteCSV(w io.Writer, rows []domain.Row, columns []domain.Column) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(columns)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range p.Project(rows, columns) {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same table as a single sheet workbook with a bold,
// frozen header row.
func (p *Projector) WriteXLSX(w io.Writer, rows []domain.Row, columns []domain.Column) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, label := range Header(columns) {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, label); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
	}

	for r, row := range p.Project(rows, columns) {
		for c, cell := range row {
			if cell.Null && cell.Value == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, name, cell.Value); err != nil {
				return fmt.Errorf("set cell %s: %w", name, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

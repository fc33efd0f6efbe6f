package projector

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
)

var testColumns = []domain.Column{
	{Name: "id", Label: "ID"},
	{Name: "seer", Label: "SEER"},
	{Name: "market_entry", Label: "Market Entry Date"},
	{Name: "refrigerant_type", Label: "Refrigerant"},
}

func testRows() []domain.Row {
	return []domain.Row{
		{
			{Key: "id", Value: int64(2)},
			{Key: "seer", Value: 6.125},
			{Key: "market_entry", Value: domain.NewDate(time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))},
			{Key: "refrigerant_type", Value: nil},
		},
		{
			{Key: "id", Value: int64(1)},
		},
	}
}

func TestProject_ConstantWidth(t *testing.T) {
	p := New(registry.MustDefault(), "-")
	out := p.Project(testRows(), testColumns)

	require.Len(t, out, 2)
	for _, row := range out {
		require.Len(t, row, len(testColumns))
		for i, cell := range row {
			assert.Equal(t, testColumns[i].Name, cell.Key)
			assert.Equal(t, testColumns[i].Label, cell.Label)
		}
	}

	assert.Equal(t, []string{"2", "6.13", "2020-01-15", "-"}, out[0].Values())
	assert.True(t, out[0][3].Null)
	assert.Equal(t, []string{"1", "-", "-", "-"}, out[1].Values())
}

func TestProject_AggregateColumns(t *testing.T) {
	p := New(registry.MustDefault(), "")
	out := p.Project(
		[]domain.Row{{{Key: "year", Value: int64(2019)}, {Key: "count", Value: int64(3)}, {Key: "avg_seer", Value: 6.66666}}},
		[]domain.Column{{Name: "year", Label: "Year"}, {Name: "count", Label: "Count"}, {Name: "avg_seer", Label: "Average SEER"}},
	)
	assert.Equal(t, []string{"2019", "3", "6.67"}, out[0].Values())
}

func TestWriteCSV(t *testing.T) {
	p := New(registry.MustDefault(), "")
	var buf bytes.Buffer
	require.NoError(t, p.WriteCSV(&buf, testRows(), testColumns))

	assert.Equal(t,
		"ID,SEER,Market Entry Date,Refrigerant\n2,6.13,2020-01-15,\n1,,,\n",
		buf.String())
}

func TestWriteXLSX(t *testing.T) {
	p := New(registry.MustDefault(), "")
	var buf bytes.Buffer
	require.NoError(t, p.WriteXLSX(&buf, testRows(), testColumns))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "SEER", "Market Entry Date", "Refrigerant"}, rows[0])
	assert.Equal(t, []string{"2", "6.13", "2020-01-15"}, rows[1])
	assert.Equal(t, []string{"1"}, rows[2])
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("")
	assert.True(t, ok)
	assert.Equal(t, FormatCSV, f)

	f, ok = ParseFormat("xlsx")
	assert.True(t, ok)
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, ok = ParseFormat("pdf")
	assert.False(t, ok)
}

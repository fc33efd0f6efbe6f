// Package projector turns search rows into fixed-width tables for display
// and export.
package projector

import (
	"strings"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/coerce"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
)

// Cell is one formatted value of a tabular row.
type Cell struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	Null  bool   `json:"null"`
}

// TabularRow has exactly one cell per column, in column order.
type TabularRow []Cell

// Values returns the formatted cell values.
func (r TabularRow) Values() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Value
	}
	return out
}

type Projector struct {
	reg        *registry.Registry
	nullMarker string
}

// New returns a projector rendering missing values as nullMarker.
func New(reg *registry.Registry, nullMarker string) *Projector {
	return &Projector{reg: reg, nullMarker: nullMarker}
}

// Project lays rows out along columns. Keys absent from a row and nil values
// both become null cells so every output row has the same width.
func (p *Projector) Project(rows []domain.Row, columns []domain.Column) []TabularRow {
	defs := make([]domain.FieldDefinition, len(columns))
	for i, col := range columns {
		defs[i] = p.definition(col.Name)
	}

	out := make([]TabularRow, 0, len(rows))
	for _, row := range rows {
		tr := make(TabularRow, len(columns))
		for i, col := range columns {
			cell := Cell{Key: col.Name, Label: col.Label}
			v, ok := row.Get(col.Name)
			if !ok || v == nil {
				cell.Null = true
				cell.Value = p.nullMarker
			} else {
				cell.Value = coerce.Format(defs[i], v)
			}
			tr[i] = cell
		}
		out = append(out, tr)
	}
	return out
}

// Header returns the column labels.
func Header(columns []domain.Column) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = col.Label
		if out[i] == "" {
			out[i] = col.Name
		}
	}
	return out
}

// definition finds the field a column renders. Aggregate columns such as
// avg_<metric> borrow the precision of their metric.
func (p *Projector) definition(name string) domain.FieldDefinition {
	if def, ok := p.reg.Resolve(name); ok {
		return def
	}
	if metric, found := strings.CutPrefix(name, "avg_"); found {
		if def, ok := p.reg.Resolve(metric); ok {
			return domain.FieldDefinition{Name: name, Type: domain.TypeFloat, Precision: def.Precision}
		}
	}
	return domain.FieldDefinition{Name: name}
}

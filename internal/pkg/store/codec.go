package store

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/coerce"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
)

// subtypeCodec reads and writes the table of one device family.
type subtypeCodec struct {
	kind    domain.EntityKind
	columns []string
	types   map[string]domain.ValueType
}

func newCodecs(reg *registry.Registry) map[domain.EntityKind]subtypeCodec {
	codecs := make(map[domain.EntityKind]subtypeCodec)
	for _, family := range domain.Families() {
		c := subtypeCodec{kind: family, types: make(map[string]domain.ValueType)}
		for _, def := range reg.Attributes(family) {
			c.columns = append(c.columns, def.Attribute)
			c.types[def.Attribute] = def.Type
		}
		codecs[family] = c
	}
	return codecs
}

func (s *store) codec(family domain.EntityKind) (subtypeCodec, error) {
	c, ok := s.codecs[family]
	if !ok {
		return subtypeCodec{}, fmt.Errorf("%w: %q", constants.ErrUnknownFamily, family)
	}
	return c, nil
}

// insert writes the subtype row for id. Only the attributes present are
// written so column defaults apply to the rest.
func (c subtypeCodec) insert(id int64, attrs map[string]any) (squirrel.InsertBuilder, error) {
	for attr := range attrs {
		if _, ok := c.types[attr]; !ok {
			return squirrel.InsertBuilder{}, fmt.Errorf("%w: %s has no attribute %q", constants.ErrBadRequest, c.kind, attr)
		}
	}

	columns := []string{"id"}
	values := []any{id}
	for _, col := range c.columns {
		v, ok := attrs[col]
		if !ok {
			continue
		}
		columns = append(columns, col)
		values = append(values, dbValue(v))
	}

	return builder().Insert(c.kind.Table()).Columns(columns...).Values(values...), nil
}

func (c subtypeCodec) selectQuery(id int64) squirrel.SelectBuilder {
	columns := c.columns
	if len(columns) == 0 {
		columns = []string{"id"}
	}
	return builder().Select(columns...).From(c.kind.Table()).Where(squirrel.Eq{"id": id})
}

// decode maps raw column values onto attribute names, normalizing the
// driver types. Nulls are kept as nil.
func (c subtypeCodec) decode(raw []any) map[string]any {
	attrs := make(map[string]any, len(c.columns))
	for i, col := range c.columns {
		if i >= len(raw) {
			break
		}
		attrs[col] = coerce.FromDB(c.types[col], raw[i])
	}
	return attrs
}

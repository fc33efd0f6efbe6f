package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// RowSet is the raw result of a dynamically shaped query.
type RowSet struct {
	Columns []string
	Values  [][]any
}

// Query runs query and reads every row as driver values in select order.
func (s *store) Query(ctx context.Context, query squirrel.Sqlizer) (*RowSet, error) {
	rows, err := s.pool.Rowsx(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := &RowSet{}
	for _, fd := range rows.FieldDescriptions() {
		set.Columns = append(set.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		set.Values = append(set.Values, values)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return set, nil
}

// Count runs a query selecting a single integer.
func (s *store) Count(ctx context.Context, query squirrel.Sqlizer) (int64, error) {
	row, err := s.pool.Rowx(ctx, query)
	if err != nil {
		return 0, err
	}

	var n int64
	if err = row.Scan(&n); err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

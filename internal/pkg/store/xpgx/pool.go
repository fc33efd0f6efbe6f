// Package xpgx adapts pgx to squirrel builders: every helper takes a
// squirrel.Sqlizer instead of raw SQL and arguments.
package xpgx

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn runs squirrel queries against a Querier.
type Conn struct {
	q Querier
}

// Execx executes a statement that returns no rows.
func (c Conn) Execx(ctx context.Context, query sq.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build query: %w", err)
	}
	return c.q.Exec(ctx, sql, args...)
}

// Rowsx runs a query and hands back the open rows. The caller closes them.
func (c Conn) Rowsx(ctx context.Context, query sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return c.q.Query(ctx, sql, args...)
}

// Rowx runs a query expected to return exactly one row.
func (c Conn) Rowx(ctx context.Context, query sq.Sqlizer) (pgx.Row, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return c.q.QueryRow(ctx, sql, args...), nil
}

// Getx scans a single row into T by db tag.
func Getx[T any](ctx context.Context, c Conn, query sq.Sqlizer) (*T, error) {
	rows, err := c.Rowsx(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByNameLax[T])
}

// Selectx scans every row into T by db tag.
func Selectx[T any](ctx context.Context, c Conn, query sq.Sqlizer) ([]*T, error) {
	rows, err := c.Rowsx(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[T])
}

// Pool wraps pgxpool.Pool.
type Pool struct {
	Conn
	*pgxpool.Pool
}

// NewPool parses dsn, connects and pings.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Conn: Conn{q: pool}, Pool: pool}, nil
}

// InTx runs fn inside one transaction, committing when fn returns nil and
// rolling back otherwise.
func (p *Pool) InTx(ctx context.Context, fn func(tx Conn) error) error {
	return pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		return fn(Conn{q: tx})
	})
}

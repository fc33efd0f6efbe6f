package store

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
)

const (
	tableDevices      = "devices"
	tableObservations = "heat_pump_observations"
)

// postgres error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	deviceColumns = []string{
		"id", "manufacturer", "model_identifier", "market_entry", "market_exit",
		"noise_level_dba", "price_amount", "price_currency", "data_source",
		"device_family", "custom_fields", "created_at", "updated_at",
	}
	observationColumns = []string{
		"id", "heat_pump_id", "condition_group", "condition_name", "metric_name", "metric_value", "created_at",
	}
)

var mapping = map[error]error{pgx.ErrNoRows: constants.ErrDBNotFound}

var pgMapping = map[string]error{
	pgUniqueViolation:     constants.ErrConflict,
	pgForeignKeyViolation: constants.ErrDBNotFound,
}

func wrapErr(err error) error {
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if v, ok := pgMapping[pgErr.Code]; ok {
			return v
		}
	}
	return err
}

// builder returns a squirrel builder using postgres placeholders.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Builder is the statement builder every catalog query is built with.
func Builder() squirrel.StatementBuilderType {
	return builder()
}

// dbValue converts catalog values into arguments pgx encodes natively.
func dbValue(v any) any {
	switch t := v.(type) {
	case domain.Date:
		return t.Time
	case *domain.Date:
		if t == nil {
			return nil
		}
		return t.Time
	}
	return v
}

func dateArg(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}

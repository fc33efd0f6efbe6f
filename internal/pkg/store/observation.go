package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/store/xpgx"
)

// UpsertObservation stores one operating point. A second write for the same
// heat pump, condition and metric replaces the value.
func (s *store) UpsertObservation(ctx context.Context, obs *domain.Observation) error {
	query := builder().Insert(tableObservations).
		Columns("heat_pump_id", "condition_group", "condition_name", "metric_name", "metric_value").
		Values(obs.HeatPumpID, obs.ConditionGroup, obs.ConditionName, obs.MetricName, obs.MetricValue).
		Suffix(`ON CONFLICT (heat_pump_id, condition_name, metric_name) DO UPDATE
			SET metric_value = EXCLUDED.metric_value, condition_group = EXCLUDED.condition_group
			RETURNING id, created_at`)

	row, err := s.pool.Rowx(ctx, query)
	if err != nil {
		return err
	}
	if err = row.Scan(&obs.ID, &obs.CreatedAt); err != nil {
		return fmt.Errorf("upsert observation: %w", wrapErr(err))
	}
	return nil
}

func (s *store) ListObservations(ctx context.Context, heatPumpID int64) ([]*domain.Observation, error) {
	query := builder().Select(observationColumns...).
		From(tableObservations).
		Where(squirrel.Eq{"heat_pump_id": heatPumpID}).
		OrderBy("condition_name", "metric_name")

	selected, err := xpgx.Selectx[domain.Observation](ctx, s.pool.Conn, query)
	if err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}

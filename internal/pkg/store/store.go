package store

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

type Store interface {
	DeviceStore
	ObservationStore
	RowStore
	Ping(ctx context.Context) error
}

type DeviceStore interface {
	CreateDevice(ctx context.Context, device *domain.Device) (int64, error)
	GetDevice(ctx context.Context, id int64) (*domain.Device, error)
}

type ObservationStore interface {
	UpsertObservation(ctx context.Context, obs *domain.Observation) error
	ListObservations(ctx context.Context, heatPumpID int64) ([]*domain.Observation, error)
}

// RowStore runs dynamically shaped catalog queries.
type RowStore interface {
	Query(ctx context.Context, query squirrel.Sqlizer) (*RowSet, error)
	Count(ctx context.Context, query squirrel.Sqlizer) (int64, error)
}

type store struct {
	pool   *Pool
	codecs map[domain.EntityKind]subtypeCodec
}

var _ Store = (*store)(nil)

func NewStore(pool *Pool, reg *registry.Registry) Store {
	return &store{pool: pool, codecs: newCodecs(reg)}
}

func (s *store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

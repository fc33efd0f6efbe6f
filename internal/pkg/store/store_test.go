package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store/storetest"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	return NewStore(storetest.NewPool(t), registry.MustDefault())
}

func TestStore_CreateAndGetDevice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := domain.NewDate(time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC))
	device := domain.NewDevice(domain.KindAirConditioner)
	device.Manufacturer = "Acme"
	device.ModelIdentifier = "AC-1"
	device.MarketEntry = &entry
	device.NoiseLevelDBA = storetest.Ptr(42.5)
	device.CustomFields = map[string]string{"warranty": "5y"}
	device.Attributes["seer"] = 6.1
	device.Attributes["refrigerant_type"] = "R32"
	device.Attributes["refrigerant_gwp"] = int64(675)

	id, err := s.CreateDevice(ctx, device)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Manufacturer)
	assert.Equal(t, domain.KindAirConditioner, got.DeviceFamily)
	require.NotNil(t, got.MarketEntry)
	assert.Equal(t, "2019-03-01", got.MarketEntry.String())
	assert.Equal(t, 42.5, *got.NoiseLevelDBA)
	assert.Nil(t, got.PriceAmount)
	assert.Equal(t, map[string]string{"warranty": "5y"}, got.CustomFields)
	assert.Equal(t, 6.1, got.Attributes["seer"])
	assert.Equal(t, "R32", got.Attributes["refrigerant_type"])
	assert.Equal(t, int64(675), got.Attributes["refrigerant_gwp"])
	assert.Nil(t, got.Attributes["eer"])
	assert.NotZero(t, got.CreatedAt)
}

func TestStore_VentilationHeatRecoveryDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	device := domain.NewDevice(domain.KindVentilationUnit)
	device.Manufacturer = "Vent"
	device.ModelIdentifier = "V-1"

	id, err := s.CreateDevice(ctx, device)
	require.NoError(t, err)

	got, err := s.GetDevice(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "NONE", got.Attributes["heat_recovery_system"])
}

func TestStore_CreateDeviceRejectsForeignAttribute(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	device := domain.NewDevice(domain.KindHeatPump)
	device.Manufacturer = "Acme"
	device.ModelIdentifier = "HP-1"
	device.Attributes["seer"] = 5.0

	_, err := s.CreateDevice(ctx, device)
	require.ErrorIs(t, err, constants.ErrBadRequest)

	rows, err := s.Query(ctx, builder().Select("COUNT(*)").From(tableDevices))
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows.Values[0][0], "base row must roll back with the subtype")
}

func TestStore_GetDeviceNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDevice(context.Background(), 999)
	assert.ErrorIs(t, err, constants.ErrDBNotFound)
}

func TestStore_UpsertObservation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	device := domain.NewDevice(domain.KindHeatPump)
	device.Manufacturer = "Acme"
	device.ModelIdentifier = "HP-1"
	id, err := s.CreateDevice(ctx, device)
	require.NoError(t, err)

	obs := &domain.Observation{HeatPumpID: id, ConditionName: "A7W35", MetricName: "cop", MetricValue: 4.1}
	require.NoError(t, s.UpsertObservation(ctx, obs))

	again := &domain.Observation{HeatPumpID: id, ConditionName: "A7W35", MetricName: "cop", MetricValue: 4.3}
	require.NoError(t, s.UpsertObservation(ctx, again))
	assert.Equal(t, obs.ID, again.ID)

	list, err := s.ListObservations(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4.3, list[0].MetricValue)

	orphan := &domain.Observation{HeatPumpID: id + 100, ConditionName: "A7W35", MetricName: "cop", MetricValue: 1}
	assert.ErrorIs(t, s.UpsertObservation(ctx, orphan), constants.ErrDBNotFound)
}

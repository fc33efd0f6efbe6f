package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
)

// memWriter stores devices in memory. Models listed in fail are refused.
type memWriter struct {
	mu           sync.Mutex
	nextID       int64
	devices      map[int64]*domain.Device
	observations []*domain.Observation
	fail         map[string]bool
}

func newMemWriter(fail ...string) *memWriter {
	w := &memWriter{nextID: 100, devices: make(map[int64]*domain.Device), fail: make(map[string]bool)}
	for _, m := range fail {
		w.fail[m] = true
	}
	return w
}

func (w *memWriter) CreateDevice(_ context.Context, d *domain.Device) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail[d.ModelIdentifier] {
		return 0, fmt.Errorf("%w: constraint violation", constants.ErrConflict)
	}
	w.nextID++
	d.ID = w.nextID
	w.devices[d.ID] = d
	return d.ID, nil
}

func (w *memWriter) UpsertObservation(_ context.Context, obs *domain.Observation) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.devices[obs.HeatPumpID]; !ok {
		return constants.ErrDBNotFound
	}
	w.observations = append(w.observations, obs)
	return nil
}

func (w *memWriter) models() []string {
	var out []string
	for id := int64(101); id <= w.nextID; id++ {
		if d, ok := w.devices[id]; ok {
			out = append(out, d.ModelIdentifier)
		}
	}
	return out
}

func csvLines(lines ...string) Source {
	return NewCSVSource(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func newTestPipeline(w Writer) *Pipeline {
	return NewPipeline(registry.MustDefault(), w, WithMaxDiagnostics(5))
}

func TestIngest_RowIsolation(t *testing.T) {
	w := newMemWriter()
	p := newTestPipeline(w)

	res, err := p.Ingest(context.Background(), csvLines(
		"Manufacturer,Model Identifier,SEER,EER",
		"Acme,AC-1,6.1,3.2",
		"Acme,AC-2,\"5,8\",3.0",
		"N/A,AC-3,5.0,2.9",
		"Acme,AC-4,7.0,3.5",
		"Acme,AC-5,6.6,3.3",
	), "air_conditioner")
	require.NoError(t, err)

	assert.Equal(t, 4, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, []string{"AC-1", "AC-2", "AC-4", "AC-5"}, w.models())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "row 3: missing manufacturer", res.Diagnostics[0])
	assert.NotEmpty(t, res.BatchID)
	assert.Nil(t, res.Observations)

	ac2 := w.devices[102]
	assert.Equal(t, 5.8, ac2.Attributes["seer"])
	assert.Equal(t, domain.KindAirConditioner, ac2.DeviceFamily)
}

func TestIngest_CoercionAndCustomFields(t *testing.T) {
	w := newMemWriter()
	p := newTestPipeline(w)

	res, err := p.Ingest(context.Background(), csvLines(
		"supplier_or_trademark,model,on_market_start_date,noise_level,Refrigerant GWP,SEER,Warranty,id,device_family,Created At",
		"Acme,AC-1,2019-05-01,52.5,675.0,fast,5 years,999,heat_pump,yesterday",
		"Acme,AC-2,\"[2020, 1, 2]\",NaN,,,-,,,",
	), "air_conditioner")
	require.NoError(t, err)
	require.Equal(t, 2, res.Accepted)

	first := w.devices[101]
	assert.Equal(t, "Acme", first.Manufacturer)
	require.NotNil(t, first.MarketEntry)
	assert.Equal(t, "2019-05-01", first.MarketEntry.String())
	assert.Equal(t, 52.5, *first.NoiseLevelDBA)
	assert.Equal(t, int64(675), first.Attributes["refrigerant_gwp"])
	assert.NotContains(t, first.Attributes, "seer", "invalid optional value stays null")
	assert.Equal(t, map[string]string{"warranty": "5 years"}, first.CustomFields)
	assert.Equal(t, domain.KindAirConditioner, first.DeviceFamily)

	second := w.devices[102]
	assert.Equal(t, "2020-01-02", second.MarketEntry.String())
	assert.Nil(t, second.NoiseLevelDBA)
	assert.Nil(t, second.CustomFields)
}

func TestIngest_VentilationDefaults(t *testing.T) {
	w := newMemWriter()
	p := newTestPipeline(w)

	_, err := p.Ingest(context.Background(), csvLines(
		"manufacturer,model_identifier,HeatRecoverySystem,maximumflowrate",
		"Vent,V-1,,350",
		"Vent,V-2,TWIN,",
	), "residential_ventilation_unit")
	require.NoError(t, err)

	assert.Equal(t, "NONE", w.devices[101].Attributes["heat_recovery_system"])
	assert.Equal(t, 350.0, w.devices[101].Attributes["maximum_flow_rate"])
	assert.Equal(t, "TWIN", w.devices[102].Attributes["heat_recovery_system"])
}

func TestIngest_StructuralErrors(t *testing.T) {
	p := newTestPipeline(newMemWriter())
	ctx := context.Background()

	_, err := p.Ingest(ctx, csvLines("manufacturer", "Acme"), "air_conditioner")
	assert.ErrorIs(t, err, constants.ErrMissingColumns)
	assert.Contains(t, err.Error(), "model_identifier")

	_, err = p.Ingest(ctx, NewCSVSource(strings.NewReader("")), "air_conditioner")
	assert.ErrorIs(t, err, constants.ErrEmptySource)

	_, err = p.Ingest(ctx, csvLines(",,"), "air_conditioner")
	assert.ErrorIs(t, err, constants.ErrEmptySource)

	_, err = p.Ingest(ctx, csvLines("manufacturer,model", "a,b"), "boiler")
	assert.ErrorIs(t, err, constants.ErrUnknownFamily)
}

func TestIngest_StoreFailureRejectsRow(t *testing.T) {
	w := newMemWriter("AC-2")
	p := newTestPipeline(w)

	res, err := p.Ingest(context.Background(), csvLines(
		"manufacturer,model",
		"Acme,AC-1",
		"Acme,AC-2",
		"Acme,AC-3",
	), "air_conditioner")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Contains(t, res.Diagnostics[0], "row 2")
	assert.Contains(t, res.Diagnostics[0], "constraint violation")
}

// brokenWriter accepts the first ok writes and then fails every call with err.
type brokenWriter struct {
	*memWriter
	ok  int
	err error
}

func (w *brokenWriter) CreateDevice(ctx context.Context, d *domain.Device) (int64, error) {
	if w.ok == 0 {
		return 0, w.err
	}
	w.ok--
	return w.memWriter.CreateDevice(ctx, d)
}

func (w *brokenWriter) UpsertObservation(ctx context.Context, obs *domain.Observation) error {
	if w.ok == 0 {
		return w.err
	}
	w.ok--
	return w.memWriter.UpsertObservation(ctx, obs)
}

func TestIngest_StoreOutageAbortsRun(t *testing.T) {
	w := &brokenWriter{memWriter: newMemWriter(), ok: 1, err: errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")}

	res, err := newTestPipeline(w).Ingest(context.Background(), csvLines(
		"manufacturer,model",
		"Acme,m1",
		"Acme,m2",
		"Acme,m3",
	), "air_conditioner")
	require.ErrorIs(t, err, constants.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	require.NotNil(t, res)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 0, res.Rejected)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "row 2: store unavailable")
	assert.Equal(t, []string{"m1"}, w.models())
}

func TestIngest_StoreOutageDuringObservations(t *testing.T) {
	w := &brokenWriter{memWriter: newMemWriter(), ok: 3, err: &pgconn.PgError{Code: "57P01", Message: "terminating connection"}}

	res, err := newTestPipeline(w).IngestHeatPumps(context.Background(), heatPumpBase(), csvLines(
		"correlation_id,condition_name,metric_name,metric_value",
		"1,A7/W35,cop,4.6",
		"1,A2/W35,cop,3.9",
	))
	require.ErrorIs(t, err, constants.ErrStoreUnavailable)
	require.NotNil(t, res)
	require.NotNil(t, res.Observations)
	assert.Zero(t, res.Observations.Rejected)
	assert.Positive(t, res.Base.Accepted)
}

func TestIngest_DataErrorsStayRowRejections(t *testing.T) {
	for name, writeErr := range map[string]error{
		"not null":     &pgconn.PgError{Code: "23502"},
		"out of range": &pgconn.PgError{Code: "22003"},
		"conflict":     fmt.Errorf("insert device: %w", constants.ErrConflict),
	} {
		t.Run(name, func(t *testing.T) {
			w := &brokenWriter{memWriter: newMemWriter(), ok: 1, err: writeErr}
			res, err := newTestPipeline(w).Ingest(context.Background(), csvLines(
				"manufacturer,model",
				"Acme,m1",
				"Acme,m2",
			), "air_conditioner")
			require.NoError(t, err)
			assert.Equal(t, 1, res.Accepted)
			assert.Equal(t, 1, res.Rejected)
		})
	}
}

func TestIngest_DiagnosticsAreBounded(t *testing.T) {
	lines := []string{"manufacturer,model"}
	for i := 0; i < 12; i++ {
		lines = append(lines, ",missing")
	}
	res, err := newTestPipeline(newMemWriter()).Ingest(context.Background(), csvLines(lines...), "heat_pump")
	require.NoError(t, err)

	assert.Equal(t, 12, res.Rejected)
	require.Len(t, res.Diagnostics, 6)
	assert.Equal(t, "... and 7 more", res.Diagnostics[5])
}

func TestIngest_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(newMemWriter()).Ingest(ctx, csvLines("manufacturer,model", "a,b"), "air_conditioner")
	assert.ErrorIs(t, err, context.Canceled)
}

func heatPumpBase() Source {
	return csvLines(
		"Manufacturer,Model,Refrigerant,Compressor Number",
		"Acme,HP-1,R290,1",
		",HP-2,R32,2",
		"Acme,HP-3,R410A,2.0",
	)
}

func TestIngestHeatPumps_Correlation(t *testing.T) {
	w := newMemWriter()
	p := newTestPipeline(w)

	res, err := p.IngestHeatPumps(context.Background(), heatPumpBase(), csvLines(
		"temp_id,condition_group,condition_name,metric_name,metric_value",
		"1,heating,A7W35,cop,\"4,1\"",
		"2,heating,A7W35,cop,3.9",
		"3,,A2W35,cop,3.4",
	))
	require.NoError(t, err)

	assert.Equal(t, PhaseResult{Accepted: 2, Rejected: 1}, res.Base)
	require.NotNil(t, res.Observations)
	assert.Equal(t, PhaseResult{Accepted: 2, Skipped: 1}, *res.Observations)
	assert.Equal(t, 4, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, res.Skipped)

	require.Len(t, w.observations, 2)
	assert.Equal(t, int64(101), w.observations[0].HeatPumpID)
	assert.Equal(t, 4.1, w.observations[0].MetricValue)
	assert.Equal(t, "heating", *w.observations[0].ConditionGroup)
	assert.Equal(t, int64(102), w.observations[1].HeatPumpID)
	assert.Nil(t, w.observations[1].ConditionGroup)

	assert.Contains(t, res.Diagnostics, "row 2: missing manufacturer")
	assert.Contains(t, res.Diagnostics, "observation row 2: correlation id 2 has no imported heat pump, skipped")

	hp := w.devices[102]
	assert.Equal(t, "HP-3", hp.ModelIdentifier)
	assert.Equal(t, int64(2), hp.Attributes["compressor_number"])
}

func TestIngestHeatPumps_ObservationRowErrors(t *testing.T) {
	w := newMemWriter()
	res, err := newTestPipeline(w).IngestHeatPumps(context.Background(), heatPumpBase(), csvLines(
		"correlation_id,condition_name,metric_name,metric_value",
		"one,A7W35,cop,4",
		"1,,cop,4",
		"1,A7W35,cop,n/a",
		"1,A7W35,cop,high",
		"3,A7W35,pdesign,6",
	))
	require.NoError(t, err)

	assert.Equal(t, PhaseResult{Accepted: 1, Rejected: 4}, *res.Observations)
	assert.Contains(t, res.Diagnostics, `observation row 1: invalid correlation id "one"`)
	assert.Contains(t, res.Diagnostics, "observation row 2: missing condition_name")
	assert.Contains(t, res.Diagnostics, "observation row 3: missing metric_value")
	assert.Contains(t, res.Diagnostics, `observation row 4: metric_value "high" is not a number`)
}

func TestIngestHeatPumps_WithoutObservations(t *testing.T) {
	res, err := newTestPipeline(newMemWriter()).IngestHeatPumps(context.Background(), heatPumpBase(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	assert.Nil(t, res.Observations)

	res, err = newTestPipeline(newMemWriter()).IngestHeatPumps(context.Background(), heatPumpBase(), NewCSVSource(strings.NewReader("")))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	assert.Nil(t, res.Observations)
	assert.Contains(t, res.Diagnostics, "observations: file is empty, nothing attached")
}

func TestIngestHeatPumps_NoBaseRowsSkipsObservations(t *testing.T) {
	w := newMemWriter()
	res, err := newTestPipeline(w).IngestHeatPumps(context.Background(),
		csvLines("manufacturer,model", ",HP-1"),
		csvLines("correlation_id,condition_name,metric_name,metric_value", "1,A7W35,cop,4"),
	)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Accepted)
	assert.Nil(t, res.Observations)
	assert.Empty(t, w.observations)
	assert.Contains(t, res.Diagnostics, "observations: skipped, no heat pump rows were imported")
}

func TestIngestHeatPumps_BadObservationHeaderKeepsBaseResult(t *testing.T) {
	w := newMemWriter()
	res, err := newTestPipeline(w).IngestHeatPumps(context.Background(), heatPumpBase(),
		csvLines("correlation_id,condition_name", "1,A7W35"),
	)
	require.ErrorIs(t, err, constants.ErrMissingColumns)
	assert.Contains(t, err.Error(), "metric_name, metric_value")

	require.NotNil(t, res)
	assert.Equal(t, 2, res.Base.Accepted)
	assert.Len(t, w.devices, 2)
}

func TestPipeline_CreateDevice(t *testing.T) {
	w := newMemWriter()
	p := newTestPipeline(w)

	id, warnings, err := p.CreateDevice(context.Background(), "air_conditioner", map[string]string{
		"manufacturer":     "Acme",
		"model_identifier": "AC-9",
		"seer":             "7,25",
		"eer":              "fast",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(101), id)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "eer")
	assert.Equal(t, 7.25, w.devices[id].Attributes["seer"])

	_, _, err = p.CreateDevice(context.Background(), "air_conditioner", map[string]string{"manufacturer": "Acme", "model_identifier": "null"})
	assert.ErrorIs(t, err, constants.ErrBadRequest)

	_, _, err = p.CreateDevice(context.Background(), "boiler", map[string]string{})
	assert.ErrorIs(t, err, constants.ErrUnknownFamily)
}

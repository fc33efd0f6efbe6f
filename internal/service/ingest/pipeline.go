package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
	"github.com/ougirez/hvac-catalog/internal/pkg/metrics"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
)

const (
	phaseBase         = "base"
	phaseObservations = "observations"
)

// Writer persists ingested entities. Each call is its own transaction.
type Writer interface {
	CreateDevice(ctx context.Context, device *domain.Device) (int64, error)
	UpsertObservation(ctx context.Context, obs *domain.Observation) error
}

// rowError reports whether a writer error is caused by the row itself
// (constraint, bad value, missing parent). Anything else means the store
// cannot take writes and the run stops.
func rowError(err error) bool {
	if errors.Is(err, constants.ErrConflict) ||
		errors.Is(err, constants.ErrBadRequest) ||
		errors.Is(err, constants.ErrDBNotFound) ||
		errors.Is(err, constants.ErrUnknownFamily) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// data exception, integrity constraint violation
		return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}

func storeFailure(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", constants.ErrStoreUnavailable, err)
}

// PhaseResult counts the rows of one input file.
type PhaseResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	// Skipped observation rows whose correlation id has no imported device.
	Skipped int `json:"skipped,omitempty"`
}

// Result is the outcome of one ingestion run.
type Result struct {
	BatchID      string            `json:"batch_id"`
	Family       domain.EntityKind `json:"family"`
	Accepted     int               `json:"accepted"`
	Rejected     int               `json:"rejected"`
	Skipped      int               `json:"skipped"`
	Base         PhaseResult       `json:"base"`
	Observations *PhaseResult      `json:"observations,omitempty"`
	Diagnostics  []string          `json:"diagnostics"`
}

type Pipeline struct {
	reg            *registry.Registry
	writer         Writer
	metrics        *metrics.CatalogMetrics
	maxDiagnostics int
}

type Option func(*Pipeline)

// WithMaxDiagnostics bounds the number of example messages in a result.
func WithMaxDiagnostics(n int) Option {
	return func(p *Pipeline) {
		p.maxDiagnostics = n
	}
}

func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func NewPipeline(reg *registry.Registry, writer Writer, opts ...Option) *Pipeline {
	p := &Pipeline{reg: reg, writer: writer, maxDiagnostics: defaultMaxDiagnostics}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run is the state of one ingestion call.
type run struct {
	result *Result
	diag   *diagnostics
	// correlation id (1-based base row) -> device id
	committed map[int64]int64
}

func (p *Pipeline) newRun(ctx context.Context, family domain.EntityKind) (context.Context, *run) {
	id := uuid.NewString()
	ctx = logger.WithFields(ctx, "batch_id", id, "family", family.String())
	return ctx, &run{
		result:    &Result{BatchID: id, Family: family},
		diag:      newDiagnostics(p.maxDiagnostics),
		committed: make(map[int64]int64),
	}
}

func (r *run) finish() *Result {
	r.result.Accepted = r.result.Base.Accepted
	r.result.Rejected = r.result.Base.Rejected
	if obs := r.result.Observations; obs != nil {
		r.result.Accepted += obs.Accepted
		r.result.Rejected += obs.Rejected
		r.result.Skipped = obs.Skipped
	}
	r.result.Diagnostics = r.diag.list()
	return r.result
}

// Ingest loads every row of src as a device of family. Rows fail
// independently; only a structurally unusable source or an unreachable
// store is an error. In the latter case the partial result is returned too.
func (p *Pipeline) Ingest(ctx context.Context, src Source, family string) (*Result, error) {
	kind, ok := domain.ParseFamily(family)
	if !ok {
		p.metrics.ObserveRun("unknown", constants.ErrUnknownFamily)
		return nil, fmt.Errorf("%w: %q", constants.ErrUnknownFamily, family)
	}
	if kind == domain.KindHeatPump {
		return p.IngestHeatPumps(ctx, src, nil)
	}

	ctx, r := p.newRun(ctx, kind)
	err := p.ingestBase(ctx, r, src)
	p.metrics.ObserveRun(family, err)
	if errors.Is(err, constants.ErrStoreUnavailable) {
		return r.finish(), err
	}
	if err != nil {
		return nil, err
	}

	res := r.finish()
	logger.Infof(ctx, "ingest finished: accepted %d, rejected %d", res.Accepted, res.Rejected)
	return res, nil
}

// IngestHeatPumps loads heat pumps from base and then their operating
// points from observations, linked by the 1-based position of the base row.
// A nil observations source imports the base file alone.
//
// When the observations file is structurally invalid or the store stops
// taking writes, the error is returned together with the rows already
// committed.
func (p *Pipeline) IngestHeatPumps(ctx context.Context, base, observations Source) (*Result, error) {
	family := domain.KindHeatPump.String()
	ctx, r := p.newRun(ctx, domain.KindHeatPump)

	if err := p.ingestBase(ctx, r, base); err != nil {
		p.metrics.ObserveRun(family, err)
		if errors.Is(err, constants.ErrStoreUnavailable) {
			return r.finish(), err
		}
		return nil, err
	}

	err := p.ingestObservations(ctx, r, observations)
	p.metrics.ObserveRun(family, err)

	res := r.finish()
	if err != nil {
		logger.Errorf(ctx, "observations: %s", err.Error())
		return res, err
	}
	logger.Infof(ctx, "ingest finished: accepted %d, rejected %d, skipped %d", res.Accepted, res.Rejected, res.Skipped)
	return res, nil
}

func readHeader(src Source) ([]string, error) {
	if src == nil {
		return nil, constants.ErrEmptySource
	}
	header, err := src.Header()
	if errors.Is(err, io.EOF) {
		return nil, constants.ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrEmptySource, err)
	}
	if blank(header) {
		return nil, constants.ErrEmptySource
	}
	return header, nil
}

func (p *Pipeline) ingestBase(ctx context.Context, r *run, src Source) error {
	family := r.result.Family

	header, err := readHeader(src)
	if err != nil {
		return err
	}
	l, err := newLayout(p.reg, family, header)
	if err != nil {
		return err
	}

	phase := &r.result.Base
	defer func() {
		p.metrics.ObserveRows(family.String(), phaseBase, phase.Accepted, phase.Rejected)
	}()

	for rowNum := 1; ; rowNum++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			phase.Rejected++
			r.diag.add("row %d: unreadable: %v", rowNum, err)
			continue
		}
		if blank(record) {
			continue
		}

		device, warnings, err := l.build(record)
		if err != nil {
			phase.Rejected++
			r.diag.add("row %d: %v", rowNum, err)
			continue
		}
		for _, w := range warnings {
			logger.Warnf(ctx, "row %d: %s", rowNum, w)
		}

		id, err := p.writer.CreateDevice(ctx, device)
		if err != nil && !rowError(err) {
			logger.Errorf(ctx, "row %d: CreateDevice: %s", rowNum, err.Error())
			r.diag.add("row %d: store unavailable, import stopped", rowNum)
			return storeFailure(ctx, err)
		}
		if err != nil {
			phase.Rejected++
			r.diag.add("row %d: %q not stored: %v", rowNum, device.ModelIdentifier, err)
			logger.Errorf(ctx, "row %d: CreateDevice: %s", rowNum, err.Error())
			continue
		}

		phase.Accepted++
		r.committed[int64(rowNum)] = id
	}
	return nil
}

func (p *Pipeline) ingestObservations(ctx context.Context, r *run, src Source) error {
	if src == nil {
		return nil
	}

	header, err := readHeader(src)
	if errors.Is(err, constants.ErrEmptySource) {
		r.diag.add("observations: file is empty, nothing attached")
		return nil
	}
	if err != nil {
		return err
	}

	if r.result.Base.Accepted == 0 {
		r.diag.add("observations: skipped, no heat pump rows were imported")
		return nil
	}

	l, err := newObservationLayout(header)
	if err != nil {
		return err
	}

	phase := &PhaseResult{}
	r.result.Observations = phase
	defer func() {
		p.metrics.ObserveRows(domain.KindHeatPump.String(), phaseObservations, phase.Accepted, phase.Rejected)
	}()

	for rowNum := 1; ; rowNum++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			phase.Rejected++
			r.diag.add("observation row %d: unreadable: %v", rowNum, err)
			continue
		}
		if blank(record) {
			continue
		}

		correlation, obs, err := l.build(record)
		if err != nil {
			phase.Rejected++
			r.diag.add("observation row %d: %v", rowNum, err)
			continue
		}

		deviceID, ok := r.committed[correlation]
		if !ok {
			phase.Skipped++
			r.diag.add("observation row %d: correlation id %d has no imported heat pump, skipped", rowNum, correlation)
			continue
		}
		obs.HeatPumpID = deviceID

		err = p.writer.UpsertObservation(ctx, obs)
		if err != nil && !rowError(err) {
			logger.Errorf(ctx, "observation row %d: UpsertObservation: %s", rowNum, err.Error())
			r.diag.add("observation row %d: store unavailable, import stopped", rowNum)
			return storeFailure(ctx, err)
		}
		if err != nil {
			phase.Rejected++
			r.diag.add("observation row %d: not stored: %v", rowNum, err)
			logger.Errorf(ctx, "observation row %d: UpsertObservation: %s", rowNum, err.Error())
			continue
		}
		phase.Accepted++
	}
	return nil
}

// CreateDevice builds one device from logical field values keyed by header
// name, with the same coercion rules as file ingestion, and stores it.
// Coercion warnings are returned alongside the id.
func (p *Pipeline) CreateDevice(ctx context.Context, family string, fields map[string]string) (int64, []string, error) {
	kind, ok := domain.ParseFamily(family)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", constants.ErrUnknownFamily, family)
	}

	header := make([]string, 0, len(fields))
	for k := range fields {
		header = append(header, k)
	}
	sort.Strings(header)

	record := make([]string, len(header))
	for i, k := range header {
		record[i] = fields[k]
	}

	l, err := newLayout(p.reg, kind, header)
	if err != nil {
		return 0, nil, err
	}
	device, warnings, err := l.build(record)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", constants.ErrBadRequest, err)
	}

	id, err := p.writer.CreateDevice(ctx, device)
	if err != nil {
		return 0, warnings, fmt.Errorf("create device: %w", err)
	}
	return id, warnings, nil
}

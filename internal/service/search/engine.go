package search

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/coerce"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/logger"
	"github.com/ougirez/hvac-catalog/internal/pkg/metrics"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store"
)

const (
	defaultPageSize = 20
	defaultMaxPage  = 500

	groupCountKey = "count"
	trendYearKey  = "year"
)

// Engine answers metadata driven catalog queries.
type Engine struct {
	reg     *registry.Registry
	store   store.RowStore
	metrics *metrics.CatalogMetrics

	pageSize    int
	maxPageSize int
}

type Option func(*Engine)

// WithPageSizes overrides the default and the maximum page size.
func WithPageSizes(pageSize, maxPageSize int) Option {
	return func(e *Engine) {
		if pageSize > 0 {
			e.pageSize = pageSize
		}
		if maxPageSize > 0 {
			e.maxPageSize = maxPageSize
		}
	}
}

func WithMetrics(m *metrics.CatalogMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func NewEngine(reg *registry.Registry, rows store.RowStore, opts ...Option) *Engine {
	e := &Engine{
		reg:         reg,
		store:       rows,
		pageSize:    defaultPageSize,
		maxPageSize: defaultMaxPage,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fields lists the fields having a capability, in catalog order.
func (e *Engine) Fields(c domain.Capability) ([]domain.Column, error) {
	switch c {
	case domain.CapSearchableMetric, domain.CapDisplayable, domain.CapGroupable:
		return e.reg.List(c), nil
	}
	return nil, fmt.Errorf("%w: unknown capability %q", constants.ErrBadRequest, c)
}

func (e *Engine) filtered(params Params) *plan {
	p := newPlan(e.reg)
	p.applyBase(params)
	p.applyMetric(params)
	p.applyAdvanced(params)
	return p
}

// Search filters the catalog and returns either (group, count) pairs or a
// page of projected rows. Bad parameters only produce diagnostics; errors
// come from the store.
func (e *Engine) Search(ctx context.Context, params Params) (result *Result, err error) {
	started := time.Now()
	mode := "projected"
	defer func() {
		diagnostics := 0
		if result != nil {
			diagnostics = len(result.Diagnostics)
		}
		e.metrics.ObserveSearch(mode, time.Since(started), diagnostics, err)
	}()

	p := e.filtered(params)

	if params.GroupBy != "" {
		if group, ok := p.resolve("group by", params.GroupBy, domain.CapGroupable); ok {
			mode = "grouped"
			return e.group(ctx, p, group)
		}
	}
	return e.project(ctx, p, params)
}

func (e *Engine) group(ctx context.Context, p *plan, group fieldRef) (*Result, error) {
	key := group.def.Name
	query := p.selectFrom(p.use(group)+" AS "+key, "COUNT(*) AS "+groupCountKey).
		GroupBy("1").
		OrderBy("1 ASC")

	set, err := e.store.Query(ctx, query)
	if err != nil {
		logger.Errorf(ctx, "group by %s: %s", key, err.Error())
		return nil, fmt.Errorf("group by %s: %w", key, err)
	}

	result := &Result{
		Columns:     []domain.Column{{Name: key, Label: group.def.Label}, {Name: groupCountKey, Label: "Count"}},
		Grouped:     true,
		Diagnostics: p.diagnostics,
		Rows:        make([]domain.Row, 0, len(set.Values)),
	}
	for _, values := range set.Values {
		result.Rows = append(result.Rows, domain.Row{
			{Key: key, Value: coerce.FromDB(group.def.Type, values[0])},
			{Key: groupCountKey, Value: coerce.FromDB(domain.TypeInteger, values[1])},
		})
	}
	logDiagnostics(ctx, result.Diagnostics)
	return result, nil
}

func (e *Engine) project(ctx context.Context, p *plan, params Params) (*Result, error) {
	refs := p.projection(params.DisplayFields)

	columns := make([]string, 0, len(refs))
	descriptors := make([]domain.Column, 0, len(refs))
	for _, f := range refs {
		p.use(f)
		columns = append(columns, f.selectAs(f.def.Name))
		descriptors = append(descriptors, domain.Column{Name: f.def.Name, Label: f.def.Label})
	}

	query := p.selectFrom(columns...).OrderBy(baseID + " DESC")

	result := &Result{Columns: descriptors, Diagnostics: p.diagnostics}

	if !params.All {
		page := e.paginate(params)
		total, err := e.store.Count(ctx, p.selectFrom("COUNT(*)"))
		if err != nil {
			logger.Errorf(ctx, "count devices: %s", err.Error())
			return nil, fmt.Errorf("count devices: %w", err)
		}
		page.TotalRows = total
		page.TotalPages = int((total + int64(page.PageSize) - 1) / int64(page.PageSize))
		if last := max(page.TotalPages, 1); page.Page > last {
			p.diag("page %d is past the last page, showing page %d", page.Page, last)
			page.Page = last
		}
		result.Pagination = page
		result.Diagnostics = p.diagnostics

		query = query.
			Limit(uint64(page.PageSize)).
			Offset(uint64(int64(page.Page-1) * int64(page.PageSize)))
	}

	set, err := e.store.Query(ctx, query)
	if err != nil {
		logger.Errorf(ctx, "select devices: %s", err.Error())
		return nil, fmt.Errorf("select devices: %w", err)
	}

	result.Rows = toRows(set, refs)
	logDiagnostics(ctx, result.Diagnostics)
	return result, nil
}

func (e *Engine) paginate(params Params) *Pagination {
	page := &Pagination{Page: params.Page, PageSize: params.PageSize}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize < 1 {
		page.PageSize = e.pageSize
	}
	if page.PageSize > e.maxPageSize {
		page.PageSize = e.maxPageSize
	}
	return page
}

// Trends aggregates the filtered catalog per market entry year: the device
// count and, for a numeric metric, its average. Devices without a market
// entry date are left out.
func (e *Engine) Trends(ctx context.Context, params Params, metricName string) (result *Result, err error) {
	started := time.Now()
	defer func() {
		diagnostics := 0
		if result != nil {
			diagnostics = len(result.Diagnostics)
		}
		e.metrics.ObserveSearch("trend", time.Since(started), diagnostics, err)
	}()

	p := e.filtered(params)
	year, _ := p.resolve("trend", "market_entry_year", domain.CapGroupable)

	columns := []string{year.selectAs(trendYearKey), "COUNT(*) AS " + groupCountKey}
	descriptors := []domain.Column{{Name: trendYearKey, Label: "Year"}, {Name: groupCountKey, Label: "Count"}}

	var metric *fieldRef
	if metricName != "" {
		if f, ok := p.resolve("trend", metricName, domain.CapSearchableMetric); ok {
			switch f.def.Type {
			case domain.TypeFloat, domain.TypeInteger:
				metric = &f
				key := "avg_" + f.def.Name
				columns = append(columns, fmt.Sprintf("AVG(%s)::double precision AS %s", p.use(f), key))
				descriptors = append(descriptors, domain.Column{Name: key, Label: "Average " + f.def.Label})
			default:
				p.diag("trend: field %q is not numeric, ignored", metricName)
			}
		}
	}

	query := p.selectFrom(columns...).
		Where(sq.NotEq{"d.market_entry": nil}).
		GroupBy("1").
		OrderBy("1 ASC")

	set, err := e.store.Query(ctx, query)
	if err != nil {
		logger.Errorf(ctx, "trends: %s", err.Error())
		return nil, fmt.Errorf("trends: %w", err)
	}

	result = &Result{Columns: descriptors, Grouped: true, Diagnostics: p.diagnostics}
	for _, values := range set.Values {
		row := domain.Row{
			{Key: trendYearKey, Value: coerce.FromDB(domain.TypeInteger, values[0])},
			{Key: groupCountKey, Value: coerce.FromDB(domain.TypeInteger, values[1])},
		}
		if metric != nil {
			row = append(row, domain.Cell{Key: descriptors[2].Name, Value: coerce.FromDB(domain.TypeFloat, values[2])})
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func toRows(set *store.RowSet, refs []fieldRef) []domain.Row {
	rows := make([]domain.Row, 0, len(set.Values))
	for _, values := range set.Values {
		row := make(domain.Row, len(refs))
		for i, f := range refs {
			var raw any
			if i < len(values) {
				raw = values[i]
			}
			row[i] = domain.Cell{Key: f.def.Name, Value: coerce.FromDB(f.def.Type, raw)}
		}
		rows = append(rows, row)
	}
	return rows
}

func logDiagnostics(ctx context.Context, diagnostics []string) {
	for _, d := range diagnostics {
		logger.Debugf(ctx, "search: %s", d)
	}
}

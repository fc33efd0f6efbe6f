package search

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/coerce"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store"
)

var (
	baseTable = domain.KindDevice.Table() + " " + domain.KindDevice.Alias()
	baseID    = domain.KindDevice.Alias() + ".id"
)

// fieldRef is a resolved field together with the SQL expression selecting it.
type fieldRef struct {
	def  domain.FieldDefinition
	expr string
}

func (f fieldRef) selectAs(name string) string {
	return f.expr + " AS " + name
}

// joinSet tracks the subtype tables joined into one query. Each kind is
// joined at most once.
type joinSet struct {
	kinds []domain.EntityKind
	seen  map[domain.EntityKind]bool
}

func (j *joinSet) add(kind domain.EntityKind) {
	if kind == domain.KindDevice || j.seen[kind] {
		return
	}
	if j.seen == nil {
		j.seen = make(map[domain.EntityKind]bool)
	}
	j.seen[kind] = true
	j.kinds = append(j.kinds, kind)
}

func (j *joinSet) apply(q sq.SelectBuilder) sq.SelectBuilder {
	for _, kind := range j.kinds {
		alias := kind.Alias()
		q = q.LeftJoin(fmt.Sprintf("%s %s ON %s.id = %s", kind.Table(), alias, alias, baseID))
	}
	return q
}

// plan accumulates the filtered query shared by every result shape.
type plan struct {
	reg         *registry.Registry
	joins       joinSet
	where       sq.And
	diagnostics []string
	family      domain.EntityKind
}

func newPlan(reg *registry.Registry) *plan {
	return &plan{reg: reg, diagnostics: []string{}}
}

func (p *plan) diag(format string, args ...any) {
	p.diagnostics = append(p.diagnostics, fmt.Sprintf(format, args...))
}

// resolve looks a logical field up and checks it may play the given role.
// Failures are recorded as diagnostics.
func (p *plan) resolve(role, name string, c domain.Capability) (fieldRef, bool) {
	def, ok := p.reg.Resolve(name)
	if !ok {
		p.diag("%s: unknown field %q ignored", role, name)
		return fieldRef{}, false
	}
	if !def.Has(c) {
		p.diag("%s: field %q is not %s, ignored", role, name, c)
		return fieldRef{}, false
	}
	return fieldRef{def: def, expr: expression(def)}, true
}

// use joins the table owning f into the query.
func (p *plan) use(f fieldRef) string {
	p.joins.add(f.def.Kind)
	return f.expr
}

func expression(def domain.FieldDefinition) string {
	column := def.Kind.Alias() + "." + def.Attribute
	switch def.Derive {
	case domain.DeriveYear:
		return "EXTRACT(YEAR FROM " + column + ")::integer"
	}
	return column
}

// selectFrom builds the filtered query with the given select list.
func (p *plan) selectFrom(columns ...string) sq.SelectBuilder {
	q := store.Builder().Select(columns...).From(baseTable)
	q = p.joins.apply(q)
	if len(p.where) > 0 {
		q = q.Where(p.where)
	}
	return q
}

func (p *plan) applyBase(params Params) {
	if v := strings.TrimSpace(params.Manufacturer); v != "" {
		p.where = append(p.where, sq.ILike{"d.manufacturer": "%" + escapeLike(v) + "%"})
	}

	if v := strings.TrimSpace(params.DeviceFamily); v != "" {
		p.where = append(p.where, sq.Eq{"d.device_family": v})
		if family, ok := domain.ParseFamily(v); ok {
			p.family = family
		} else {
			p.diag("device_family: %q is not a known family", v)
		}
	}

	if v := strings.TrimSpace(params.IDOrModel); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.where = append(p.where, sq.Eq{baseID: id})
		} else {
			p.where = append(p.where, sq.ILike{"d.model_identifier": "%" + escapeLike(v) + "%"})
		}
	}
}

func (p *plan) applyMetric(params Params) {
	name := strings.TrimSpace(params.MetricName)
	if name == "" {
		return
	}
	f, ok := p.resolve("metric filter", name, domain.CapSearchableMetric)
	if !ok {
		return
	}

	op, ok := ParseOperator(params.MetricOperator)
	if !ok {
		p.diag("metric filter: unknown operator %q ignored", params.MetricOperator)
		return
	}
	if op == OpContains && f.def.Type != domain.TypeString {
		p.diag("metric filter: contains is not valid for %s field %q, ignored", f.def.Type, name)
		return
	}

	value, ok := p.coerce("metric filter", f, params.MetricValue)
	if !ok {
		return
	}

	expr := p.use(f)
	switch op {
	case OpGTE:
		p.where = append(p.where, sq.GtOrEq{expr: value})
	case OpLTE:
		p.where = append(p.where, sq.LtOrEq{expr: value})
	case OpEQ:
		p.where = append(p.where, sq.Eq{expr: value})
	case OpContains:
		p.where = append(p.where, sq.ILike{expr: "%" + escapeLike(value.(string)) + "%"})
	}
}

func (p *plan) applyAdvanced(params Params) {
	name := strings.TrimSpace(params.AdvancedField)
	if name == "" {
		return
	}
	f, ok := p.resolve("advanced filter", name, domain.CapDisplayable)
	if !ok {
		return
	}

	value, ok := p.coerce("advanced filter", f, params.AdvancedValue)
	if !ok {
		return
	}

	expr := p.use(f)
	if s, isString := value.(string); isString {
		p.where = append(p.where, sq.ILike{expr: "%" + escapeLike(s) + "%"})
		return
	}
	p.where = append(p.where, sq.Eq{expr: value})
}

// coerce parses a filter literal to the field type. Null or unparseable
// literals drop the filter.
func (p *plan) coerce(role string, f fieldRef, raw string) (any, bool) {
	value, err := coerce.Parse(f.def.Type, raw)
	if err != nil || value == nil {
		p.diag("%s: value %q is not a valid %s for %q, ignored", role, raw, f.def.Type, f.def.Name)
		return nil, false
	}
	if d, isDate := value.(domain.Date); isDate {
		return d.Time, true
	}
	return value, true
}

// projection resolves the displayed columns. The id column always comes first.
func (p *plan) projection(display []string) []fieldRef {
	idRef, _ := p.resolve("display", "id", domain.CapDisplayable)
	refs := []fieldRef{idRef}
	seen := map[string]bool{"id": true}

	for _, name := range display {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		f, ok := p.resolve("display", name, domain.CapDisplayable)
		if !ok {
			continue
		}
		seen[name] = true
		refs = append(refs, f)
	}
	if len(refs) > 1 {
		return refs
	}
	if len(display) > 0 {
		p.diag("display: no usable field requested, using the default columns")
	}

	var defs []domain.FieldDefinition
	defs = append(defs, p.reg.Fields(domain.KindDevice, domain.CapDisplayable)...)
	if p.family != "" {
		defs = append(defs, p.reg.Fields(p.family, domain.CapDisplayable)...)
	}
	refs = refs[:0]
	for _, def := range defs {
		refs = append(refs, fieldRef{def: def, expr: expression(def)})
	}
	return refs
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

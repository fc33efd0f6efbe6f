// Package registry holds the catalog of logical fields: where each one lives,
// what type it has and which query roles it may play.
package registry

import (
	"fmt"

	"github.com/ougirez/hvac-catalog/internal/domain"
)

// Registry is immutable after New returns and safe for concurrent readers.
type Registry struct {
	defs    []domain.FieldDefinition
	byName  map[string]int
	columns map[domain.EntityKind]map[string]int
}

// New validates defs and builds the lookup indexes.
func New(defs ...domain.FieldDefinition) (*Registry, error) {
	r := &Registry{
		defs:    make([]domain.FieldDefinition, 0, len(defs)),
		byName:  make(map[string]int, len(defs)),
		columns: make(map[domain.EntityKind]map[string]int),
	}

	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("field with empty name (label %q)", def.Label)
		}
		if _, ok := r.byName[def.Name]; ok {
			return nil, fmt.Errorf("duplicate field %q", def.Name)
		}
		if !def.Kind.Valid() {
			return nil, fmt.Errorf("field %q: unknown kind %q", def.Name, def.Kind)
		}
		switch def.Type {
		case domain.TypeString, domain.TypeInteger, domain.TypeFloat, domain.TypeDate:
		default:
			return nil, fmt.Errorf("field %q: unknown value type %q", def.Name, def.Type)
		}
		if def.Attribute == "" {
			def.Attribute = def.Name
		}
		if def.Label == "" {
			def.Label = def.Name
		}

		idx := len(r.defs)
		r.defs = append(r.defs, def)
		r.byName[def.Name] = idx

		if def.Derived() {
			continue
		}
		if err := r.indexColumn(def, idx); err != nil {
			return nil, err
		}
	}

	// base headers must not be shadowed by any family header
	for kind, cols := range r.columns {
		if kind == domain.KindDevice {
			continue
		}
		for header := range cols {
			if base, ok := r.columns[domain.KindDevice][header]; ok {
				return nil, fmt.Errorf("header %q of %s collides with base field %q", header, kind, r.defs[base].Name)
			}
		}
	}

	return r, nil
}

func (r *Registry) indexColumn(def domain.FieldDefinition, idx int) error {
	cols, ok := r.columns[def.Kind]
	if !ok {
		cols = make(map[string]int)
		r.columns[def.Kind] = cols
	}

	headers := append([]string{def.Name, def.Attribute}, def.Aliases...)
	for _, h := range headers {
		if prev, ok := cols[h]; ok && prev != idx {
			return fmt.Errorf("header %q claimed by both %q and %q", h, r.defs[prev].Name, def.Name)
		}
		cols[h] = idx
	}
	return nil
}

// Resolve looks a logical field up. An unknown name is reported by ok=false,
// never by an error.
func (r *Registry) Resolve(name string) (domain.FieldDefinition, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return domain.FieldDefinition{}, false
	}
	return r.defs[idx], true
}

// ResolveColumn maps a canonical ingestion header onto a field of the base
// kind or of family. Derived fields never match.
func (r *Registry) ResolveColumn(family domain.EntityKind, header string) (domain.FieldDefinition, bool) {
	if idx, ok := r.columns[domain.KindDevice][header]; ok {
		return r.defs[idx], true
	}
	if family == domain.KindDevice {
		return domain.FieldDefinition{}, false
	}
	if idx, ok := r.columns[family][header]; ok {
		return r.defs[idx], true
	}
	return domain.FieldDefinition{}, false
}

// List returns (name, label) pairs of every field with the capability, in
// catalog order.
func (r *Registry) List(c domain.Capability) []domain.Column {
	out := make([]domain.Column, 0)
	for _, def := range r.defs {
		if def.Has(c) {
			out = append(out, domain.Column{Name: def.Name, Label: def.Label})
		}
	}
	return out
}

// Fields returns the definitions owned by kind having the capability.
func (r *Registry) Fields(kind domain.EntityKind, c domain.Capability) []domain.FieldDefinition {
	out := make([]domain.FieldDefinition, 0)
	for _, def := range r.defs {
		if def.Kind == kind && def.Has(c) {
			out = append(out, def)
		}
	}
	return out
}

// Attributes returns the stored (non-derived) fields of kind in catalog order.
func (r *Registry) Attributes(kind domain.EntityKind) []domain.FieldDefinition {
	out := make([]domain.FieldDefinition, 0)
	for _, def := range r.defs {
		if def.Kind == kind && !def.Derived() {
			out = append(out, def)
		}
	}
	return out
}

// Label returns the human label of name, or name itself when unknown.
func (r *Registry) Label(name string) string {
	if def, ok := r.Resolve(name); ok {
		return def.Label
	}
	return name
}

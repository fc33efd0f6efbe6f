package domain

// ValueType is the semantic type of a catalog field.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
	TypeDate    ValueType = "date"
)

// Capability names a role a field may play in a query.
type Capability string

const (
	CapSearchableMetric Capability = "searchable_metric"
	CapDisplayable      Capability = "displayable"
	CapGroupable        Capability = "groupable"
	CapSearchable       Capability = "searchable"
)

// Derivation marks a field computed from another attribute.
type Derivation string

const (
	DeriveNone Derivation = ""
	DeriveYear Derivation = "year"
)

// FieldDefinition is one entry of the field registry.
type FieldDefinition struct {
	Name        string
	Label       string
	Kind        EntityKind
	Attribute   string
	Type        ValueType
	Searchable  bool
	Displayable bool
	Groupable   bool
	Metric      bool
	// Precision is the number of decimal places kept when formatting floats.
	Precision int
	// Aliases are extra canonical header names accepted on ingestion.
	Aliases []string
	Derive  Derivation
}

// Has reports whether the field carries the capability.
func (f FieldDefinition) Has(c Capability) bool {
	switch c {
	case CapSearchableMetric:
		return f.Metric && f.Searchable
	case CapSearchable:
		return f.Searchable
	case CapDisplayable:
		return f.Displayable
	case CapGroupable:
		return f.Groupable
	}
	return false
}

// Derived reports whether the field has no physical column of its own.
func (f FieldDefinition) Derived() bool {
	return f.Derive != DeriveNone
}

// Column is a (logical name, label) pair describing one result column.
type Column struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

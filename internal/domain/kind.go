package domain

// EntityKind identifies a storage entity of the polymorphic device model.
// Subtype kinds double as device family discriminator values.
type EntityKind string

const (
	KindDevice          EntityKind = "device"
	KindAirConditioner  EntityKind = "air_conditioner"
	KindHeatPump        EntityKind = "heat_pump"
	KindVentilationUnit EntityKind = "residential_ventilation_unit"
)

type kindTable struct {
	table string
	alias string
}

var kindTables = map[EntityKind]kindTable{
	KindDevice:          {table: "devices", alias: "d"},
	KindAirConditioner:  {table: "air_conditioners", alias: "ac"},
	KindHeatPump:        {table: "heat_pumps", alias: "hp"},
	KindVentilationUnit: {table: "ventilation_units", alias: "rvu"},
}

// families keeps the subtype kinds in a stable order.
var families = []EntityKind{KindAirConditioner, KindHeatPump, KindVentilationUnit}

// Families returns every device family in catalog order.
func Families() []EntityKind {
	out := make([]EntityKind, len(families))
	copy(out, families)
	return out
}

// ParseFamily maps a discriminator value onto a subtype kind.
func ParseFamily(s string) (EntityKind, bool) {
	k := EntityKind(s)
	return k, k.IsFamily()
}

// IsFamily reports whether the kind is a subtype (and so a valid discriminator).
func (k EntityKind) IsFamily() bool {
	for _, f := range families {
		if f == k {
			return true
		}
	}
	return false
}

// Table is the physical table backing the kind.
func (k EntityKind) Table() string {
	return kindTables[k].table
}

// Alias is the table alias used for the kind in generated queries.
func (k EntityKind) Alias() string {
	return kindTables[k].alias
}

// Valid reports whether the kind is known.
func (k EntityKind) Valid() bool {
	_, ok := kindTables[k]
	return ok
}

func (k EntityKind) String() string {
	return string(k)
}

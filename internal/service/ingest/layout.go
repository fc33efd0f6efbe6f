package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/coerce"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
)

const (
	colManufacturer = "manufacturer"
	colModel        = "model_identifier"
	colCorrelation  = "correlation_id"

	heatRecoveryAttr    = "heat_recovery_system"
	heatRecoveryDefault = "NONE"
)

// reservedHeaders are never mapped nor stashed as custom fields.
var reservedHeaders = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"device_family": true,
	colCorrelation:  true,
	"temp_id":       true,
}

type columnRole int

const (
	roleIgnored columnRole = iota
	roleField
	roleCustom
)

type column struct {
	index  int
	header string
	role   columnRole
	def    domain.FieldDefinition
}

// layout maps the columns of one base file onto catalog fields.
type layout struct {
	family       domain.EntityKind
	columns      []column
	manufacturer int
	model        int
	correlation  int
}

func newLayout(reg *registry.Registry, family domain.EntityKind, header []string) (*layout, error) {
	l := &layout{family: family, manufacturer: -1, model: -1, correlation: -1}
	claimed := make(map[string]bool)

	for i, raw := range header {
		name := Canonicalize(raw)
		col := column{index: i, header: name}

		switch {
		case name == "":
		case name == colCorrelation || name == "temp_id":
			if l.correlation < 0 {
				l.correlation = i
			}
		case reservedHeaders[name]:
		default:
			def, ok := reg.ResolveColumn(family, name)
			switch {
			case !ok:
				col.role = roleCustom
			case def.Name == "id" || def.Name == "device_family" || claimed[def.Name]:
			default:
				claimed[def.Name] = true
				col.role = roleField
				col.def = def
				switch def.Name {
				case colManufacturer:
					l.manufacturer = i
				case colModel:
					l.model = i
				}
			}
		}
		l.columns = append(l.columns, col)
	}

	var missing []string
	if l.manufacturer < 0 {
		missing = append(missing, colManufacturer)
	}
	if l.model < 0 {
		missing = append(missing, colModel)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", constants.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return l, nil
}

func cellAt(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// build turns one record into a device. Required fields missing fails the
// row; optional values that do not coerce are returned as warnings and
// left null.
func (l *layout) build(record []string) (*domain.Device, []string, error) {
	device := domain.NewDevice(l.family)

	manufacturer := cellAt(record, l.manufacturer)
	if coerce.IsNull(manufacturer) {
		return nil, nil, fmt.Errorf("missing manufacturer")
	}
	model := cellAt(record, l.model)
	if coerce.IsNull(model) {
		return nil, nil, fmt.Errorf("missing model_identifier")
	}

	var warnings []string
	custom := make(map[string]string)
	for _, col := range l.columns {
		raw := cellAt(record, col.index)

		switch col.role {
		case roleCustom:
			if !coerce.IsNull(raw) {
				custom[col.header] = strings.TrimSpace(raw)
			}
			continue
		case roleIgnored:
			continue
		}

		value, err := coerce.Parse(col.def.Type, raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %q is not a valid %s, stored as null", col.def.Name, raw, col.def.Type))
			continue
		}
		if value == nil {
			continue
		}

		if col.def.Kind == domain.KindDevice {
			device.SetBase(col.def.Attribute, value)
		} else {
			device.Attributes[col.def.Attribute] = value
		}
	}

	if l.family == domain.KindVentilationUnit {
		if _, ok := device.Attributes[heatRecoveryAttr]; !ok {
			device.Attributes[heatRecoveryAttr] = heatRecoveryDefault
		}
	}
	if len(custom) > 0 {
		device.CustomFields = custom
	}
	return device, warnings, nil
}

// observationLayout maps the columns of an observations file.
type observationLayout struct {
	correlation int
	group       int
	condition   int
	metric      int
	value       int
}

func newObservationLayout(header []string) (*observationLayout, error) {
	l := &observationLayout{correlation: -1, group: -1, condition: -1, metric: -1, value: -1}
	for i, raw := range header {
		var dst *int
		switch Canonicalize(raw) {
		case colCorrelation, "temp_id":
			dst = &l.correlation
		case "condition_group":
			dst = &l.group
		case "condition_name", "condition":
			dst = &l.condition
		case "metric_name", "metric":
			dst = &l.metric
		case "metric_value", "value":
			dst = &l.value
		default:
			continue
		}
		if *dst < 0 {
			*dst = i
		}
	}

	var missing []string
	for name, idx := range map[string]int{
		colCorrelation:   l.correlation,
		"condition_name": l.condition,
		"metric_name":    l.metric,
		"metric_value":   l.value,
	} {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: observations lack %s", constants.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return l, nil
}

// build returns the correlation id and the observation of one record.
func (l *observationLayout) build(record []string) (int64, *domain.Observation, error) {
	rawID := cellAt(record, l.correlation)
	correlation, err := coerce.ParseInt(rawID)
	if err != nil || coerce.IsNull(rawID) {
		return 0, nil, fmt.Errorf("invalid correlation id %q", rawID)
	}

	obs := &domain.Observation{
		ConditionName: strings.TrimSpace(cellAt(record, l.condition)),
		MetricName:    strings.TrimSpace(cellAt(record, l.metric)),
	}
	if coerce.IsNull(obs.ConditionName) {
		return correlation, nil, fmt.Errorf("missing condition_name")
	}
	if coerce.IsNull(obs.MetricName) {
		return correlation, nil, fmt.Errorf("missing metric_name")
	}

	rawValue := cellAt(record, l.value)
	if coerce.IsNull(rawValue) {
		return correlation, nil, fmt.Errorf("missing metric_value")
	}
	obs.MetricValue, err = coerce.ParseFloat(rawValue)
	if err != nil {
		return correlation, nil, fmt.Errorf("metric_value %q is not a number", rawValue)
	}

	if group := strings.TrimSpace(cellAt(record, l.group)); !coerce.IsNull(group) {
		obs.ConditionGroup = &group
	}
	return correlation, obs, nil
}

package registry

import (
	"sync"

	"github.com/ougirez/hvac-catalog/internal/domain"
)

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the built-in appliance catalog. It is built once; the
// returned value is shared and must be treated as read-only.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defs := make([]domain.FieldDefinition, 0, 128)
		defs = append(defs, deviceFields()...)
		defs = append(defs, airConditionerFields()...)
		defs = append(defs, heatPumpFields()...)
		defs = append(defs, ventilationUnitFields()...)
		defaultReg, defaultErr = New(defs...)
	})
	return defaultReg, defaultErr
}

// MustDefault is Default for program start-up paths.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

func metric(kind domain.EntityKind, name, label string, precision int, aliases ...string) domain.FieldDefinition {
	return domain.FieldDefinition{
		Name:        name,
		Label:       label,
		Kind:        kind,
		Type:        domain.TypeFloat,
		Searchable:  true,
		Displayable: true,
		Metric:      true,
		Precision:   precision,
		Aliases:     aliases,
	}
}

func count(kind domain.EntityKind, name, label string, aliases ...string) domain.FieldDefinition {
	return domain.FieldDefinition{
		Name:        name,
		Label:       label,
		Kind:        kind,
		Type:        domain.TypeInteger,
		Searchable:  true,
		Displayable: true,
		Metric:      true,
		Aliases:     aliases,
	}
}

func text(kind domain.EntityKind, name, label string, groupable bool, aliases ...string) domain.FieldDefinition {
	return domain.FieldDefinition{
		Name:        name,
		Label:       label,
		Kind:        kind,
		Type:        domain.TypeString,
		Searchable:  true,
		Displayable: true,
		Groupable:   groupable,
		Aliases:     aliases,
	}
}

func deviceFields() []domain.FieldDefinition {
	k := domain.KindDevice

	id := count(k, "id", "ID")
	id.Metric = false
	id.Searchable = false

	family := text(k, "device_family", "Device Family", true, "device_type")
	family.Searchable = false

	entry := domain.FieldDefinition{
		Name: "market_entry", Label: "Market Entry Date", Kind: k, Type: domain.TypeDate,
		Searchable: true, Displayable: true, Metric: true,
		Aliases: []string{"on_market_start_date", "market_entry_date"},
	}
	exit := domain.FieldDefinition{
		Name: "market_exit", Label: "Market Exit Date", Kind: k, Type: domain.TypeDate,
		Searchable: true, Displayable: true, Metric: true,
		Aliases: []string{"on_market_end_date", "market_exit_date"},
	}
	year := domain.FieldDefinition{
		Name: "market_entry_year", Label: "Market Entry Year", Kind: k, Attribute: "market_entry",
		Type: domain.TypeInteger, Searchable: true, Displayable: true, Groupable: true, Metric: true,
		Derive: domain.DeriveYear,
	}

	noise := metric(k, "noise_level", "Noise Level (dBA)", 1)
	noise.Attribute = "noise_level_dba"

	return []domain.FieldDefinition{
		id,
		text(k, "manufacturer", "Manufacturer", true, "supplier_or_trademark"),
		text(k, "model_identifier", "Model Identifier", false, "model", "model_name"),
		family,
		entry,
		exit,
		year,
		noise,
		metric(k, "price_amount", "Price Amount", 2, "price"),
		text(k, "price_currency", "Price Currency", true, "currency"),
		text(k, "data_source", "Data Source", true, "source"),
	}
}

func airConditionerFields() []domain.FieldDefinition {
	k := domain.KindAirConditioner
	return []domain.FieldDefinition{
		metric(k, "eer", "EER", 2),
		metric(k, "seer", "SEER", 2),
		metric(k, "rated_power_cooling_kw", "Rated Cooling Power (kW)", 2),
		text(k, "energy_class_cooling", "Energy Class (Cooling)", true),
		metric(k, "design_load_cooling_kw", "Design Load Cooling (kW)", 2),
		metric(k, "annual_consumption_cooling_kwh", "Annual Consumption Cooling (kWh)", 1),
		metric(k, "rated_power_heating_kw", "Rated Heating Power (kW)", 2),
		metric(k, "cop_standard", "COP (Standard)", 2),
		metric(k, "scop_average", "SCOP (Average Climate)", 2),
		text(k, "energy_class_heating_average", "Energy Class Heating (Average)", true),
		metric(k, "design_load_heating_average_kw", "Design Load Heating Average (kW)", 2),
		metric(k, "annual_consumption_heating_average_kwh", "Annual Consumption Heating Average (kWh)", 1),
		metric(k, "scop_warm", "SCOP (Warm Climate)", 2),
		text(k, "energy_class_heating_warm", "Energy Class Heating (Warm)", true),
		metric(k, "design_load_heating_warm_kw", "Design Load Heating Warm (kW)", 2),
		metric(k, "annual_consumption_heating_warm_kwh", "Annual Consumption Heating Warm (kWh)", 1),
		metric(k, "scop_cold", "SCOP (Cold Climate)", 2),
		text(k, "energy_class_heating_cold", "Energy Class Heating (Cold)", true),
		metric(k, "design_load_heating_cold_kw", "Design Load Heating Cold (kW)", 2),
		metric(k, "annual_consumption_heating_cold_kwh", "Annual Consumption Heating Cold (kWh)", 1),
		text(k, "refrigerant_type", "Refrigerant", true),
		count(k, "refrigerant_gwp", "Refrigerant GWP"),
		metric(k, "noise_level_outdoor_cooling_db", "Outdoor Noise Cooling (dB)", 1),
		metric(k, "eta_s_cooling_percent", "ηs Cooling (%)", 1),
		metric(k, "eta_s_heating_average_percent", "ηs Heating Average (%)", 1),
		metric(k, "eta_s_heating_warm_percent", "ηs Heating Warm (%)", 1),
		metric(k, "eta_s_heating_cold_percent", "ηs Heating Cold (%)", 1),
		metric(k, "pc_cooling_cond_b_kw", "Pc Cooling Condition B (kW)", 2),
		metric(k, "eer_cooling_cond_b", "EER Condition B", 2),
		metric(k, "pc_cooling_cond_c_kw", "Pc Cooling Condition C (kW)", 2),
		metric(k, "eer_cooling_cond_c", "EER Condition C", 2),
		metric(k, "pc_cooling_cond_d_kw", "Pc Cooling Condition D (kW)", 2),
		metric(k, "eer_cooling_cond_d", "EER Condition D", 2),
		metric(k, "ph_heating_cond_a_kw", "Ph Heating Condition A (kW)", 2),
		metric(k, "cop_heating_cond_a", "COP Condition A", 2),
		metric(k, "ph_heating_cond_b_kw", "Ph Heating Condition B (kW)", 2),
		metric(k, "cop_heating_cond_b", "COP Condition B", 2),
		metric(k, "ph_heating_cond_c_kw", "Ph Heating Condition C (kW)", 2),
		metric(k, "cop_heating_cond_c", "COP Condition C", 2),
		metric(k, "ph_heating_cond_d_kw", "Ph Heating Condition D (kW)", 2),
		metric(k, "cop_heating_cond_d", "COP Condition D", 2),
		metric(k, "tol_temp_heating", "TOL Temperature (°C)", 1),
		metric(k, "ph_heating_tol_kw", "Ph Heating at TOL (kW)", 2),
		metric(k, "cop_heating_tol", "COP at TOL", 2),
		metric(k, "tbiv_temp_heating", "Tbiv Temperature (°C)", 1),
		metric(k, "ph_heating_tbiv_kw", "Ph Heating at Tbiv (kW)", 2),
		metric(k, "cop_heating_tbiv", "COP at Tbiv", 2),
		metric(k, "power_standby_cooling_kw", "Standby Power Cooling (kW)", 3),
		metric(k, "power_off_cooling_kw", "Off-mode Power Cooling (kW)", 3),
		metric(k, "power_standby_heating_kw", "Standby Power Heating (kW)", 3),
		metric(k, "power_off_heating_kw", "Off-mode Power Heating (kW)", 3),
		metric(k, "noise_level_indoor_cooling_db", "Indoor Noise Cooling (dB)", 1),
		metric(k, "noise_level_outdoor_heating_db", "Outdoor Noise Heating (dB)", 1),
		metric(k, "noise_level_indoor_heating_db", "Indoor Noise Heating (dB)", 1),
		text(k, "capacity_control_type", "Capacity Control", true),
		metric(k, "degradation_coeff_cooling_cd", "Degradation Coefficient Cd", 3),
	}
}

func heatPumpFields() []domain.FieldDefinition {
	k := domain.KindHeatPump
	return []domain.FieldDefinition{
		text(k, "refrigerant", "Refrigerant", true),
		text(k, "main_power_supply", "Main Power Supply", true),
		text(k, "control_of_pump_speed", "Pump Speed Control", true),
		text(k, "reversibility_on_water_side", "Reversible (Water Side)", true),
		text(k, "simultaneous_heating", "Simultaneous Heating", true),
		text(k, "esp_duct", "ESP Duct", false),
		text(k, "outdoor_heat_exc_type", "Outdoor Heat Exchanger", true),
		text(k, "indoor_heat_exc_type", "Indoor Heat Exchanger", true),
		text(k, "expansion_valve_type", "Expansion Valve", true),
		text(k, "unit_capacity_control", "Unit Capacity Control", true),
		text(k, "compressor_type", "Compressor Type", true),
		text(k, "compressor_inverter", "Compressor Inverter", true),
		count(k, "compressor_number", "Number of Compressors"),
	}
}

func ventilationUnitFields() []domain.FieldDefinition {
	k := domain.KindVentilationUnit
	return []domain.FieldDefinition{
		metric(k, "maximum_flow_rate", "Maximum Flow Rate (m³/h)", 1, "maximumflowrate"),
		metric(k, "reference_flow_rate", "Reference Flow Rate (m³/s)", 3, "referenceflowrate"),
		metric(k, "reference_pressure_difference", "Reference Pressure Difference (Pa)", 1, "referencepressuredifference"),
		text(k, "typology", "Typology", true),
		text(k, "heat_recovery_system", "Heat Recovery System", true, "heatrecoverysystem"),
		metric(k, "thermal_efficiency_heat_recovery", "Thermal Efficiency of Heat Recovery (%)", 1, "thermalefficiencyheatrecovery"),
		metric(k, "specific_power_input", "Specific Power Input (W/(m³/h))", 3, "specificpowerinput"),
		metric(k, "fan_drive_power_input", "Fan Drive Power Input (W)", 1, "fandrivepowerinput"),
		text(k, "drive_type", "Drive Type", true, "drivetype"),
		text(k, "ducted_unit", "Ducted Unit", true, "ductedunit"),
		text(k, "control_typology", "Control Typology", true, "controltypology"),
		metric(k, "specific_energy_consumption_warm", "SEC Warm (kWh/(m²·a))", 2, "specificenergyconsumptionwarm"),
		metric(k, "specific_energy_consumption_average", "SEC Average (kWh/(m²·a))", 2, "specificenergyconsumptionaverage"),
		metric(k, "specific_energy_consumption_cold", "SEC Cold (kWh/(m²·a))", 2, "specificenergyconsumptioncold"),
		metric(k, "annual_heating_saved_average", "Annual Heating Saved Average (kWh/(m²·a))", 2, "annualheatingsavedaverageclimate"),
		metric(k, "annual_heating_saved_warm", "Annual Heating Saved Warm (kWh/(m²·a))", 2, "annualheatingsavedwarmclimate"),
		metric(k, "annual_heating_saved_cold", "Annual Heating Saved Cold (kWh/(m²·a))", 2, "annualheatingsavedcoldclimate"),
		text(k, "energy_class", "Energy Class", true, "energyclass"),
		metric(k, "maximum_internal_leakage_rate", "Max Internal Leakage Rate (%)", 2, "maximuminternalleakagerate"),
		metric(k, "maximum_external_leakage_rate", "Max External Leakage Rate (%)", 2, "maximumexternalleakagerate"),
	}
}

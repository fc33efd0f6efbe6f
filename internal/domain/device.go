package domain

import (
	"time"
)

// DeviceRecord is the base entity shared by every device family.
type DeviceRecord struct {
	ID              int64             `db:"id" json:"id"`
	Manufacturer    string            `db:"manufacturer" json:"manufacturer"`
	ModelIdentifier string            `db:"model_identifier" json:"model_identifier"`
	MarketEntry     *Date             `db:"market_entry" json:"market_entry"`
	MarketExit      *Date             `db:"market_exit" json:"market_exit"`
	NoiseLevelDBA   *float64          `db:"noise_level_dba" json:"noise_level_dba"`
	PriceAmount     *float64          `db:"price_amount" json:"price_amount"`
	PriceCurrency   *string           `db:"price_currency" json:"price_currency"`
	DataSource      *string           `db:"data_source" json:"data_source"`
	DeviceFamily    EntityKind        `db:"device_family" json:"device_family"`
	CustomFields    map[string]string `db:"custom_fields" json:"custom_fields,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// Device is a base record together with the attributes of its subtype.
// Attributes are keyed by physical attribute name of the family table.
type Device struct {
	DeviceRecord
	Attributes map[string]any `json:"attributes"`
}

// NewDevice returns an empty device of the given family.
func NewDevice(family EntityKind) *Device {
	return &Device{
		DeviceRecord: DeviceRecord{DeviceFamily: family},
		Attributes:   make(map[string]any),
	}
}

// SetBase assigns a base attribute by physical name. It reports false for
// attributes the base record does not own or values of the wrong type.
func (r *DeviceRecord) SetBase(attr string, v any) bool {
	switch attr {
	case "manufacturer":
		s, ok := v.(string)
		r.Manufacturer = s
		return ok
	case "model_identifier":
		s, ok := v.(string)
		r.ModelIdentifier = s
		return ok
	case "market_entry":
		return assignPtr(&r.MarketEntry, v)
	case "market_exit":
		return assignPtr(&r.MarketExit, v)
	case "noise_level_dba":
		return assignPtr(&r.NoiseLevelDBA, v)
	case "price_amount":
		return assignPtr(&r.PriceAmount, v)
	case "price_currency":
		return assignPtr(&r.PriceCurrency, v)
	case "data_source":
		return assignPtr(&r.DataSource, v)
	}
	return false
}

func assignPtr[T any](dst **T, v any) bool {
	if v == nil {
		*dst = nil
		return true
	}
	t, ok := v.(T)
	if !ok {
		return false
	}
	*dst = &t
	return true
}

// Observation is one measured operating point of a heat pump.
type Observation struct {
	ID             int64     `db:"id" json:"id"`
	HeatPumpID     int64     `db:"heat_pump_id" json:"heat_pump_id"`
	ConditionGroup *string   `db:"condition_group" json:"condition_group"`
	ConditionName  string    `db:"condition_name" json:"condition_name"`
	MetricName     string    `db:"metric_name" json:"metric_name"`
	MetricValue    float64   `db:"metric_value" json:"metric_value"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

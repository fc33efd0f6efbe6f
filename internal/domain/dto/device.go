package dto

import "github.com/ougirez/hvac-catalog/internal/domain"

// CreateDeviceRequest is a manually entered device. Field values are raw
// strings keyed by logical name or accepted header alias.
type CreateDeviceRequest struct {
	DeviceFamily string            `json:"device_family" validate:"required"`
	Fields       map[string]string `json:"fields" validate:"required"`
}

type CreateDeviceResponse struct {
	ID       int64    `json:"id"`
	Warnings []string `json:"warnings,omitempty"`
}

// Attribute is one decoded subtype value.
type Attribute struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value any    `json:"value"`
}

type DeviceResponse struct {
	domain.DeviceRecord
	Attributes   []Attribute           `json:"attributes"`
	Observations []*domain.Observation `json:"observations,omitempty"`
}

type IDRequest struct {
	ID int64 `param:"id" validate:"gt=0"`
}

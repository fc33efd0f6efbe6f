package search

import (
	"strings"

	"github.com/ougirez/hvac-catalog/internal/domain"
)

// Operator is a comparison applied by the metric filter.
type Operator string

const (
	OpGTE      Operator = ">="
	OpLTE      Operator = "<="
	OpEQ       Operator = "="
	OpContains Operator = "contains"
)

var operatorSpellings = map[string]Operator{
	">=": OpGTE, "≥": OpGTE, "gte": OpGTE,
	"<=": OpLTE, "≤": OpLTE, "lte": OpLTE,
	"=": OpEQ, "==": OpEQ, "eq": OpEQ,
	"contains": OpContains,
}

// ParseOperator accepts the symbolic and the word spellings of an operator.
// An empty string means equality.
func ParseOperator(s string) (Operator, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return OpEQ, true
	}
	op, ok := operatorSpellings[s]
	return op, ok
}

// Params is the flat parameter set of a catalog search. Every field is
// optional and holds the raw boundary value.
type Params struct {
	Manufacturer string
	DeviceFamily string
	IDOrModel    string

	MetricName     string
	MetricOperator string
	MetricValue    string

	AdvancedField string
	AdvancedValue string

	GroupBy       string
	DisplayFields []string

	Page     int
	PageSize int
	// All disables pagination, used by exports.
	All bool
}

// Pagination describes the page returned by a projected search.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalRows  int64 `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

// Result is the outcome of a search, a grouping or a trend.
type Result struct {
	Columns     []domain.Column `json:"columns"`
	Rows        []domain.Row    `json:"rows"`
	Grouped     bool            `json:"grouped"`
	Pagination  *Pagination     `json:"pagination,omitempty"`
	Diagnostics []string        `json:"diagnostics"`
}

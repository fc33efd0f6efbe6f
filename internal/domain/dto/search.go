package dto

import "strings"

// SearchRequest carries the query string of the search, export and trend
// endpoints.
type SearchRequest struct {
	Manufacturer  string   `query:"manufacturer"`
	DeviceFamily  string   `query:"device_family"`
	IDOrModel     string   `query:"id_or_model"`
	MetricName    string   `query:"metric_name"`
	MetricOp      string   `query:"metric_operator"`
	MetricValue   string   `query:"metric_value"`
	AdvancedField string   `query:"advanced_filter_field"`
	AdvancedValue string   `query:"advanced_filter_value"`
	GroupBy       string   `query:"group_by_field"`
	DisplayFields []string `query:"display_fields"`
	Page          int      `query:"page" validate:"gte=0"`
	PageSize      int      `query:"page_size" validate:"gte=0"`

	// export only
	Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
	// trends only
	Metric string `query:"metric"`
}

// SplitLists expands comma separated list values, so both
// display_fields=a&display_fields=b and display_fields=a,b are accepted.
func (r *SearchRequest) SplitLists() {
	var fields []string
	for _, v := range r.DisplayFields {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}
	r.DisplayFields = fields
}

type FieldsRequest struct {
	Capability string `query:"capability" validate:"required,oneof=searchable_metric displayable groupable"`
}

// Package coerce converts the loosely formatted literals found in request
// parameters and spreadsheet cells into typed values and back.
package coerce

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/ougirez/hvac-catalog/internal/domain"
)

var ErrInvalid = errors.New("invalid literal")

var nullTokens = map[string]struct{}{
	"":             {},
	"null":         {},
	"n/a":          {},
	"#n/a":         {},
	"na":           {},
	"nan":          {},
	"none":         {},
	"nil":          {},
	"undefined":    {},
	"invalid date": {},
	"-":            {},
}

// IsNull reports whether s is one of the textual tokens that stand for an
// absent value. Comparison ignores case and surrounding space.
func IsNull(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Parse converts s to the Go representation of vt: string, int64, float64 or
// domain.Date. Null tokens yield (nil, nil). Unparseable dates yield (nil, nil)
// as well; other unparseable literals return an error wrapping ErrInvalid.
func Parse(vt domain.ValueType, s string) (any, error) {
	if IsNull(s) {
		return nil, nil
	}
	switch vt {
	case domain.TypeString:
		return strings.TrimSpace(s), nil
	case domain.TypeFloat:
		f, err := ParseFloat(s)
		if err != nil {
			return nil, err
		}
		return f, nil
	case domain.TypeInteger:
		n, err := ParseInt(s)
		if err != nil {
			return nil, err
		}
		return n, nil
	case domain.TypeDate:
		d, ok := ParseDate(s)
		if !ok {
			return nil, nil
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown value type %q: %w", vt, ErrInvalid)
}

// ParseFloat accepts both "1234.5" and the comma decimal variant "1234,5".
// When both separators appear the right-most one is taken as decimal point.
func ParseFloat(s string) (float64, error) {
	v := strings.TrimSpace(s)
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, "\u00a0", "")

	comma := strings.LastIndex(v, ",")
	dot := strings.LastIndex(v, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			v = strings.ReplaceAll(v, ".", "")
			v = strings.Replace(v, ",", ".", 1)
		} else {
			v = strings.ReplaceAll(v, ",", "")
		}
	case comma >= 0:
		if strings.Count(v, ",") > 1 {
			v = strings.ReplaceAll(v, ",", "")
		} else {
			v = strings.Replace(v, ",", ".", 1)
		}
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("float %q: %w", s, ErrInvalid)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("float %q: %w", s, ErrInvalid)
	}
	return f, nil
}

// ParseInt goes through ParseFloat and truncates, so "2020.0" is 2020.
func ParseInt(s string) (int64, error) {
	f, err := ParseFloat(s)
	if err != nil {
		return 0, fmt.Errorf("integer %q: %w", s, ErrInvalid)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("integer %q out of range: %w", s, ErrInvalid)
	}
	return int64(f), nil
}

// bracketDate matches list-style dates such as "[2019, 5, 1]".
var bracketDate = regexp.MustCompile(`^\[\s*(\d{4})\s*,\s*(\d{1,2})\s*,\s*(\d{1,2})\s*\]$`)

var dateLayouts = []string{
	domain.DateLayout,
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",
	"2006-01",
	"2006",
}

// ParseDate never fails loudly: any input it cannot read gives ok=false.
func ParseDate(s string) (domain.Date, bool) {
	v := strings.TrimSpace(s)
	if IsNull(v) {
		return domain.Date{}, false
	}

	if m := bracketDate.FindStringSubmatch(v); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if y < 1900 || y > 2100 || mo < 1 || mo > 12 || d < 1 || d > 31 {
			return domain.Date{}, false
		}
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
		if t.Day() != d {
			return domain.Date{}, false
		}
		return domain.NewDate(t), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return domain.NewDate(t), true
		}
	}

	t, err := cast.StringToDate(v)
	if err != nil {
		return domain.Date{}, false
	}
	return domain.NewDate(t), true
}

// Format renders a value produced by Parse (or FromDB) for display. Floats
// are rounded to the field's precision; nil renders as "".
func Format(def domain.FieldDefinition, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		d := decimal.NewFromFloat(x)
		if def.Precision > 0 {
			d = d.Round(int32(def.Precision))
		}
		return d.String()
	case domain.Date:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// FromDB maps a value scanned from the store onto the semantic type of vt.
func FromDB(vt domain.ValueType, raw any) any {
	if raw == nil {
		return nil
	}
	switch vt {
	case domain.TypeInteger:
		switch n := raw.(type) {
		case int64:
			return n
		case int32:
			return int64(n)
		case int16:
			return int64(n)
		case int:
			return int64(n)
		case float64:
			return int64(n)
		}
	case domain.TypeFloat:
		switch f := raw.(type) {
		case float64:
			return f
		case float32:
			return float64(f)
		case int64:
			return float64(f)
		case int32:
			return float64(f)
		}
	case domain.TypeDate:
		switch t := raw.(type) {
		case time.Time:
			return domain.NewDate(t)
		case domain.Date:
			return t
		}
	case domain.TypeString:
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return cast.ToString(raw)
}

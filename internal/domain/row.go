package domain

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// NewDate drops the time of day and location of t.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := sonic.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}

// Value lets the driver encode a Date as a plain time value.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
	case string:
		t, err := time.Parse(DateLayout, v)
		if err != nil {
			return err
		}
		*d = NewDate(t)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// Cell is one key/value pair of a result row.
type Cell struct {
	Key   string
	Value any
}

// Row is an ordered key/value mapping, encoded as a JSON object with keys in
// row order.
type Row []Cell

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	for _, c := range r {
		if c.Key == key {
			return c.Value, true
		}
	}
	return nil, false
}

// Keys returns the row keys in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, c := range r {
		keys[i] = c.Key
	}
	return keys
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.ConfigStd.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		val, err := sonic.ConfigStd.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", c.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

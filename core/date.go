package core

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
)

// Date is a calendar date serialized as YYYY-MM-DD; the zero Date serializes as "".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string; an empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = CleanString(s)
	if s == "" {
		return Date{}, nil
	}
	if len(s) > len(DateLayout) { // backend timestamps
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, errors.Wrapf(err, "parsing date %q", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n days after d (or before, when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalParam lets echo bind query params into a Date.
func (d *Date) UnmarshalParam(param string) error {
	parsed, err := ParseDate(param)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

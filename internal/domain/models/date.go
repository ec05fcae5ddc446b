package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ISODateLayout is the canonical text form of a Date.
const ISODateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day with no time component, stored as days since
// 1970-01-01. Dates are comparable with == and ordered with <.
type Date int64

// NewDate builds a Date from year, month and day. Out of range values are
// normalized the way time.Date normalizes them.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseISODate parses a YYYY-MM-DD string.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an ISO date", ErrParse, s)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// Year returns the calendar year of the day.
func (d Date) Year() int { return d.Time().Year() }

// AddDays returns the day n days after d (before, for negative n).
func (d Date) AddDays(n int) Date { return d + Date(n) }

// DaysTo returns the absolute number of days between d and other.
func (d Date) DaysTo(other Date) int {
	diff := int(other - d)
	if diff < 0 {
		return -diff
	}
	return diff
}

func (d Date) String() string {
	return d.Time().Format(ISODateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseISODate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone attached.
// Streak and history rules compare Dates, never timestamps.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOnly strips the time of day from ts as observed in loc.
// A nil loc means UTC.
func DateOnly(ts time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := ts.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate builds a normalized Date, so NewDate(2025, 1, 32) is Feb 1st.
func NewDate(year int, month time.Month, day int) Date {
	return DateOnly(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), time.UTC)
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOnly(t, time.UTC), nil
}

// utc returns midnight UTC of d; arithmetic happens there so DST never
// produces 23 or 25 hour days.
func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Time returns local midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOnly(d.utc().AddDate(0, 0, n), time.UTC)
}

// DaysBetween returns the number of calendar days from a to b
// (positive when b is after a).
func DaysBetween(a, b Date) int {
	return int(b.utc().Sub(a.utc()).Hours() / 24)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Equal reports whether d and other are the same day.
func (d Date) Equal(other Date) bool {
	return d == other
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.utc().Before(other.utc())
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.utc().After(other.utc())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.utc().Format(DateLayout)
}

// MarshalJSON encodes d as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "2006-01-02", an RFC 3339 timestamp, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	*d = DateOnly(ts, time.UTC)
	return nil
}

// MarshalBSONValue stores d as a midnight UTC datetime, the shape the
// readingHistory documents have always used. The zero Date is null.
func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if d.IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(d.utc())
}

// UnmarshalBSONValue accepts a datetime, a "2006-01-02" string, or null.
func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*d = Date{}
		return nil
	case bson.TypeDateTime:
		*d = DateOnly(raw.Time(), time.UTC)
		return nil
	case bson.TypeString:
		parsed, err := ParseDate(raw.StringValue())
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode BSON %s into a date", t)
	}
}

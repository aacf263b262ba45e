// internal/client/date.go
//
// Date is a calendar day without a time-of-day component.  Payment dates
// are stored in a DATE column and compared day-by-day: the expiry boundary
// is "strictly older than the cutoff day", so carrying hours or a timezone
// through the comparison would shift the boundary.
package client

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for payment dates.
const DateLayout = "2006-01-02"

// Date wraps time.Time truncated to midnight UTC.
type Date struct {
	time.Time
}

// NewDate builds a Date from a calendar triple.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// String renders "YYYY-MM-DD".
func (d Date) String() string { return d.Time.Format(DateLayout) }

// MarshalJSON renders the date as a bare "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date: invalid JSON value %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) { return d.String(), nil }

// Scan implements sql.Scanner.  The MySQL driver hands back time.Time with
// parseTime=true and []byte otherwise; both are accepted.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("date: cannot scan %T", src)
	}
}

package model

import (
	"fmt"
	"time"
)

// DateLayout is the canonical on-disk date format.
// All dates in the warehouse are stored as YYYY-MM-DD text.
const DateLayout = "2006-01-02"

// Date is a calendar date with day precision.
//
// The zero Date is the zero time and reports IsZero() == true. Dates are
// always normalized to midnight UTC so that equality and ordering never
// depend on a time component.
type Date struct {
	t time.Time
}

// NewDate constructs a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustDate parses a YYYY-MM-DD string and panics on error.
// For tests and compile-time constants only.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the canonical YYYY-MM-DD representation.
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the underlying midnight-UTC time.
func (d Date) Time() time.Time {
	return d.t
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal reports whether d and other are the same calendar date.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Prev returns the preceding calendar date.
func (d Date) Prev() Date {
	return d.AddDays(-1)
}

// Next returns the following calendar date.
func (d Date) Next() Date {
	return d.AddDays(1)
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	y, m, _ := d.t.Date()
	return NewDate(y, m, 1)
}

// StartOfPrevMonth returns the first day of the month before d's month.
func (d Date) StartOfPrevMonth() Date {
	y, m, _ := d.t.Date()
	return Date{t: time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)}
}

// DatesBetween returns every date from from to to inclusive, ascending.
// Returns nil if from is after to.
func DatesBetween(from, to Date) []Date {
	if from.After(to) {
		return nil
	}
	var out []Date
	for d := from; !d.After(to); d = d.Next() {
		out = append(out, d)
	}
	return out
}

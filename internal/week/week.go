// Package week holds the calendar-date type used for report weeks, meeting
// notes and week events, and the single week-anchor rule: every week is
// identified by the Sunday that ends it.
package week

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layout is the wire and storage format of a Date.
const Layout = "2006-01-02"

// Date is a day-precision calendar date without a time zone.
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime keeps only the calendar day of t as seen in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Parse reads a YYYY-MM-DD date. A full RFC 3339 timestamp is accepted too and
// reduced to its date part, since browsers often send ISO strings.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(Layout, s); err == nil {
		return FromTime(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FromTime(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}

// ParseAnchor parses s and normalizes it to its week anchor.
func ParseAnchor(s string) (Date, error) {
	d, err := Parse(s)
	if err != nil {
		return Date{}, err
	}
	return d.Anchor(), nil
}

// Anchor returns the Sunday ending d's week. A Sunday maps to itself.
func (d Date) Anchor() Date {
	wd := d.t.Weekday()
	if wd == time.Sunday {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, 7-int(wd))}
}

// AddWeeks moves d by n weeks.
func (d Date) AddWeeks(n int) Date { return Date{t: d.t.AddDate(0, 0, 7*n)} }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Time() time.Time { return d.t }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// String formats d as YYYY-MM-DD. The zero Date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// Long renders the date as "January 7, 2024".
func (d Date) Long() string { return d.t.Format("January 2, 2006") }

// MarshalJSON writes d as a YYYY-MM-DD string, or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a date or timestamp string. null and "" leave d zero.
// Services anchor body dates themselves.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	p, err := Parse(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// Value stores the date as YYYY-MM-DD, which both Postgres DATE columns and
// SQLite text affinity accept and compare correctly.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts what the drivers hand back for a DATE column: time.Time from
// lib/pq and modernc sqlite, or the raw text.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.UTC().Year(), v.UTC().Month(), v.UTC().Day())
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("week: cannot scan %T into Date", src)
	}
}

func (d *Date) scanText(s string) error {
	if len(s) >= len(Layout) {
		s = s[:len(Layout)]
	}
	p, err := Parse(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

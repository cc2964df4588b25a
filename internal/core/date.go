package core

import (
	"fmt"
	"strings"
	"time"
)

// ISODateFormat is the wire format for dates throughout the app.
const ISODateFormat = "2006-01-02"

// Date is a calendar date with day granularity, pinned to midnight UTC.
// All date math in the app goes through this type so that month and year
// additions clamp instead of overflowing into the next month.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day. Out-of-range components are
// normalized the way time.Date does.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO 8601 date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// MustDate is like ParseDate but panics on error. Intended for fixtures.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// DateOf truncates a time.Time to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) String() string {
	return d.Format(ISODateFormat)
}

// MarshalJSON encodes the date as a quoted ISO 8601 string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted ISO 8601 string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year(), d.Month(), d.Day()+n)
}

// AddMonthsClamped advances the date by n whole months. When the day of month
// does not exist in the target month it clamps to the month's last day, so
// 2025-01-31 plus one month is 2025-02-28. A positive targetDay overrides the
// receiver's day as the day to aim for; repeated advances that want to stay
// on "the 31st, clamped" must pass the original anchor day here, otherwise a
// clamped intermediate result would permanently lower the day.
func (d Date) AddMonthsClamped(n, targetDay int) Date {
	day := targetDay
	if day <= 0 {
		day = d.Day()
	}
	months := d.Year()*12 + (d.Month() - 1) + n
	year := months / 12
	month := months%12 + 1
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// AddYearsClamped advances the date by n whole years, clamping Feb 29 anchors
// to Feb 28 in non-leap target years.
func (d Date) AddYearsClamped(n int) Date {
	year := d.Year() + n
	day := d.Day()
	if last := DaysInMonth(year, d.Month()); day > last {
		day = last
	}
	return NewDate(year, d.Month(), day)
}

// DaysBetween returns the number of days from a to b (negative when b is
// earlier than a).
func DaysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time) / (24 * time.Hour))
}

// Compare returns -1, 0 or 1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Time.Before(other.Time):
		return -1
	case d.Time.After(other.Time):
		return 1
	default:
		return 0
	}
}

// StartOfMonth returns the first day of the date's month.
func (d Date) StartOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// MonthKey returns a sortable integer identifying the date's calendar month.
func (d Date) MonthKey() int {
	return d.Year()*12 + (d.Month() - 1)
}

// SameMonth reports whether both dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.MonthKey() == other.MonthKey()
}

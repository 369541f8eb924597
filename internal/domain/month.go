package domain

import (
	"fmt"
	"time"
)

const yearMonthLayout = "2006-01"

// YearMonth identifies a calendar month. Month boundaries are evaluated in UTC.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses a "YYYY-MM" string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, &ErrValidation{Field: "month", Message: fmt.Sprintf("invalid month %q, use YYYY-MM", s)}
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) YearMonth {
	t = t.UTC()
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Start is the first instant of the month.
func (m YearMonth) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month (exclusive bound).
func (m YearMonth) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// Next returns the following month.
func (m YearMonth) Next() YearMonth {
	return MonthOf(m.End())
}

// Prev returns the preceding month.
func (m YearMonth) Prev() YearMonth {
	return MonthOf(m.Start().AddDate(0, -1, 0))
}

// Contains reports whether t falls inside the month.
func (m YearMonth) Contains(t time.Time) bool {
	return !t.Before(m.Start()) && t.Before(m.End())
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText implements encoding.TextMarshaler.
func (m YearMonth) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

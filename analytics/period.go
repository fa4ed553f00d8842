package analytics

import (
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// PERIOD - Calendar month key (YYYY-MM)
// =============================================================================

// Period identifies one calendar month. All time-varying records are
// partitioned by Period.
type Period struct {
	year  int
	month time.Month
}

// NewPeriod builds a period from a year and a month.
func NewPeriod(year int, month time.Month) (Period, error) {
	if year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, year)
	}
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, month)
	}
	return Period{year: year, month: month}, nil
}

// MustPeriod is NewPeriod for constants and tests.
func MustPeriod(year int, month time.Month) Period {
	p, err := NewPeriod(year, month)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePeriod parses a YYYY-MM key.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 7 || s[4] != '-' {
		return Period{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidPeriod, s)
	}
	return NewPeriod(year, time.Month(month))
}

func (p Period) Year() int          { return p.year }
func (p Period) Month() time.Month  { return p.month }
func (p Period) IsZero() bool       { return p.year == 0 }
func (p Period) Before(o Period) bool { return p.index() < o.index() }

func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}

// AddMonths shifts the period by n months, rolling over year boundaries in
// both directions.
func (p Period) AddMonths(n int) Period {
	idx := p.index() + n
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return Period{year: year, month: time.Month(month + 1)}
}

func (p Period) index() int { return p.year*12 + int(p.month) - 1 }

// MarshalText and UnmarshalText let Period act as a YYYY-MM string in
// encoders.
func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// RelativeMonth shifts a YYYY-MM key by offset months.
//
//	RelativeMonth("2024-01", -1) == "2023-12"
//	RelativeMonth("2024-12", 1)  == "2025-01"
func RelativeMonth(period string, offset int) (string, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return "", err
	}
	return p.AddMonths(offset).String(), nil
}

// =============================================================================
// SELECTOR - Currently selected reporting month
// =============================================================================

// Selector holds the selected year and month as independent values, the way
// the dashboard exposes them as two pickers.
type Selector struct {
	year  int
	month time.Month
}

func NewSelector(p Period) Selector {
	return Selector{year: p.year, month: p.month}
}

// SetYear changes the year and keeps the month.
func (s *Selector) SetYear(year int) error {
	if _, err := NewPeriod(year, s.month); err != nil {
		return err
	}
	s.year = year
	return nil
}

// SetMonth changes the month and keeps the year.
func (s *Selector) SetMonth(month time.Month) error {
	if _, err := NewPeriod(s.year, month); err != nil {
		return err
	}
	s.month = month
	return nil
}

func (s Selector) Year() int         { return s.year }
func (s Selector) Month() time.Month { return s.month }
func (s Selector) Period() Period    { return Period{year: s.year, month: s.month} }
func (s Selector) String() string    { return s.Period().String() }

// Relative returns the selected period shifted by offset months.
func (s Selector) Relative(offset int) Period { return s.Period().AddMonths(offset) }

// PreviousMonth is the month-over-month comparison period.
func (s Selector) PreviousMonth() Period { return s.Relative(-1) }

// SameMonthLastYear is the year-over-year comparison period.
func (s Selector) SameMonthLastYear() Period { return s.Relative(-12) }

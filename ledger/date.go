package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar-day key (local wall-clock day, no time component)
// =============================================================================

// Date identifies one calendar day. Sales are bucketed by the local
// calendar day of their timestamp, not by timestamp ranges.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	// Normalize through time.Date so "June 31" becomes "July 1".
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD day key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Equal(o Date) bool  { return d == o }
func (d Date) Before(o Date) bool { return d.sortKey() < o.sortKey() }
func (d Date) After(o Date) bool  { return d.sortKey() > o.sortKey() }

func (d Date) sortKey() int { return d.Year*10000 + int(d.Month)*100 + d.Day }

// Arithmetic
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return DateOf(t)
}

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies wall-clock time to the ledgers. The 18:00 submission gate
// and "today" bucketing read the clock, never time.Now directly, so the
// state machine is deterministically testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real clock, optionally pinned to a location.
type SystemClock struct {
	Loc *time.Location // nil = process-local time
}

func (c SystemClock) Now() time.Time {
	now := time.Now()
	if c.Loc != nil {
		return now.In(c.Loc)
	}
	return now
}

// Today returns the current calendar day per the given clock.
func Today(c Clock) Date { return DateOf(c.Now()) }

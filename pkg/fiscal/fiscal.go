// Package fiscal computes the reporting period implied by a fiscal year
// and the month in which that fiscal year ends.
package fiscal

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// DefaultEndMonth is the fiscal-year-end month most Japanese filers use.
const DefaultEndMonth = time.March

// Year identifies a fiscal year by the calendar year in which it ends.
type Year struct {
	Year     int
	EndMonth time.Month
}

// New returns a Year, validating the month. A zero month means DefaultEndMonth.
func New(year int, endMonth time.Month) (Year, error) {
	if endMonth == 0 {
		endMonth = DefaultEndMonth
	}
	if endMonth < time.January || endMonth > time.December {
		return Year{}, fmt.Errorf("invalid fiscal year end month %d", endMonth)
	}
	if year < 1900 || year > 9999 {
		return Year{}, fmt.Errorf("invalid fiscal year %d", year)
	}
	return Year{Year: year, EndMonth: endMonth}, nil
}

// End is the last day of the fiscal year.
func (y Year) End() time.Time {
	// day 0 of the following month is the last day of EndMonth
	return time.Date(y.Year, y.EndMonth+1, 0, 0, 0, 0, 0, time.UTC)
}

// Start is the first day of the fiscal year.
func (y Year) Start() time.Time {
	return time.Date(y.Year-1, y.EndMonth+1, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether d falls within [Start, End].
func (y Year) Contains(d time.Time) bool {
	d = Date(d)
	return !d.Before(y.Start()) && !d.After(y.End())
}

func (y Year) String() string {
	return fmt.Sprintf("FY%d (%s to %s)", y.Year, Format(y.Start()), Format(y.End()))
}

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(layout, s)
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(layout)
}

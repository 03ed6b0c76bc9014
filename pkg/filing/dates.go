package filing

import (
	"sort"
	"time"

	"github.com/horiken1977/roic-sub001/pkg/fiscal"
)

// Annual reports are due within three months of the fiscal year end, and
// most large filers submit in the last ten days of that third month.
const (
	priorityMonthOffset = 3
	priorityFirstDay    = 20
	priorityLastDay     = 30

	scanFirstMonthOffset = 1
	scanLastMonthOffset  = 5
)

var scanDays = []int{10, 15, 20, 25, 28, 30}

// CandidateDates returns the filing-list dates to search for year, split into
// the high-probability set and the remaining systematic scan. Weekends and
// dates after today are dropped; both lists are in ascending order and do
// not overlap.
func CandidateDates(year fiscal.Year, today time.Time) (priority, systematic []time.Time) {
	end := year.End()
	today = fiscal.Date(today)
	seen := map[time.Time]bool{}

	add := func(list []time.Time, d time.Time) []time.Time {
		if seen[d] || isWeekend(d) || d.After(today) {
			return list
		}
		seen[d] = true
		return append(list, d)
	}

	pm := firstOfMonth(end, priorityMonthOffset)
	for day := priorityFirstDay; day <= priorityLastDay; day++ {
		priority = add(priority, clampDay(pm, day))
	}

	for offset := scanFirstMonthOffset; offset <= scanLastMonthOffset; offset++ {
		m := firstOfMonth(end, offset)
		for _, day := range scanDays {
			systematic = add(systematic, clampDay(m, day))
		}
	}

	sortDates(priority)
	sortDates(systematic)
	return priority, systematic
}

func firstOfMonth(t time.Time, monthOffset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(monthOffset), 1, 0, 0, 0, 0, time.UTC)
}

// clampDay returns day in first's month, or the month's last day if shorter.
func clampDay(first time.Time, day int) time.Time {
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func sortDates(ds []time.Time) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
}

// Package dateutil provides deadline arithmetic for vendor projects.
package dateutil

import "time"

// requiredByLayout is ISO 8601 in UTC without an offset suffix, the form
// the vendor expects in RequiredByDateUtc fields.
const requiredByLayout = "2006-01-02T15:04:05"

// FormatRequiredBy renders a deadline the way the vendor expects it.
func FormatRequiredBy(t time.Time) string {
	return t.UTC().Format(requiredByLayout)
}

// AddBusinessDays returns the UTC timestamp that is the given number of
// business days after from, skipping Saturdays and Sundays. The vendor does
// not deliver translations during weekends, so deadlines landing on one are
// pushed to the next Monday.
func AddBusinessDays(from time.Time, days int) time.Time {
	t := from.UTC()
	for days > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days--
	}
	// A zero-day request starting on a weekend still moves to a weekday.
	for wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday; wd = t.Weekday() {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

package calendar

import (
	"time"

	"whatweek/internal/model"
)

// Resolve maps a date onto a semester list. Semesters are checked in
// document order and the first containing range wins. When no semester
// contains the date, the outcome distinguishes a teaching break within
// the known years from a date outside them entirely.
//
// The date is truncated to its civil day in the institutional zone
// before any comparison, so the time of day never affects the result.
func Resolve(semesters []model.Semester, years []int, date time.Time) model.Resolution {
	q := civilDate(date)
	for _, s := range semesters {
		if !s.Contains(q) {
			continue
		}
		return model.Resolution{
			Outcome:  model.Found,
			Semester: s.Name,
			Week:     daysBetween(s.Start, q)/7 + 1,
			Weekday:  q.Weekday().String(),
		}
	}
	if len(years) > 0 {
		lo, hi := years[0], years[0]
		for _, y := range years[1:] {
			lo, hi = min(lo, y), max(hi, y)
		}
		if q.Year() >= lo && q.Year() <= hi {
			return model.Resolution{Outcome: model.OutOfSession}
		}
	}
	return model.Resolution{Outcome: model.OutOfRange}
}

// Resolve resolves a date against this document's semesters and years.
func (d *Document) Resolve(date time.Time) model.Resolution {
	return Resolve(d.Semesters, d.Years, date)
}

// civilDate truncates a time to midnight of its day in the institutional
// zone.
func civilDate(t time.Time) time.Time {
	t = t.In(Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location())
}

// daysBetween returns the whole days from a to b. Both arguments must be
// midnights in the same zone, which holds for parsed semester bounds and
// civilDate results; the zone has no offset transitions, so the division
// is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

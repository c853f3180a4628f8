// Package feed exports the semester calendar as an iCalendar document
// with one all-day event per teaching week.
package feed

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gosimple/slug"
	"github.com/teambition/rrule-go"

	"whatweek/internal/calendar"
	"whatweek/internal/model"
)

const prodID = "-//whatweek//academic calendar//EN"

// Build renders every teaching week of every semester in the document as
// an all-day VEVENT. DTSTAMP is taken from now, so output for a given
// document and instant is reproducible.
func Build(doc *calendar.Document, now time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)

	for _, sem := range doc.Semesters {
		starts, err := weekStarts(sem)
		if err != nil {
			return "", err
		}
		for i, start := range starts {
			week := i + 1

			// DTEND is exclusive; the final week may be cut short by
			// the semester end.
			end := start.AddDate(0, 0, 7)
			if last := sem.End.AddDate(0, 0, 1); last.Before(end) {
				end = last
			}

			ev := cal.AddEvent(eventUID(sem, week))
			ev.SetDtStampTime(now)
			ev.SetSummary(fmt.Sprintf("Week %d of %s", week, sem.Name))
			ev.SetAllDayStartAt(start)
			ev.SetAllDayEndAt(end)
		}
	}

	return cal.Serialize(), nil
}

// weekStarts enumerates the weekly recurrence of sem.Start within the
// semester range, one entry per teaching week.
func weekStarts(sem model.Semester) ([]time.Time, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: sem.Start,
		Until:   sem.End,
	})
	if err != nil {
		return nil, fmt.Errorf("feed: week rule for %s %d: %w", sem.Name, sem.Year(), err)
	}
	return r.All(), nil
}

// eventUID returns a stable identifier like
// semester-1-2024-week-3@whatweek.
func eventUID(sem model.Semester, week int) string {
	return fmt.Sprintf("%s-%d-week-%d@whatweek", slug.Make(sem.Name), sem.Year(), week)
}

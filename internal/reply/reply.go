// Package reply renders resolution outcomes as user-facing text.
package reply

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"whatweek/internal/calendar"
	"whatweek/internal/model"
)

// flavors open the reply when the query is about the current week.
var flavors = []string{
	"The week we're in is:",
	"The current week is:",
	"Currently, the week is:",
	"Hey, look at the time:",
	"Can you believe that it's already:",
	"Time flies when you're having fun:",
	"Maybe time's just a construct of human perception:",
	"Time waits for noone:",
	"This week is:",
	"It is currently:",
	"The week is",
	"The week we're currently in is:",
	"Right now we are in:",
	"Good heavens, would you look at the time:",
	"What's the time, mister wolf? It's:",
}

// Flavor returns a random opener for a current-week query.
func Flavor() string {
	return flavors[rand.IntN(len(flavors))]
}

// Query carries what was asked: the resolved date and whether the caller
// supplied it explicitly or defaulted to today.
type Query struct {
	Date     time.Time
	Explicit bool
}

// Message renders the reply for a resolution. The semester list feeds the
// next-semester hint on out-of-session replies; it may be nil.
func Message(q Query, res model.Resolution, semesters []model.Semester) string {
	date := calendar.FormatUserDate(q.Date)

	switch res.Outcome {
	case model.Found:
		prefix := Flavor()
		if q.Explicit {
			prefix = "The week of " + date + " is in:"
		}
		return prefix + "\n> " + res.Weekday + ", Week " + strconv.Itoa(res.Week) + " of " + res.Semester

	case model.OutOfSession:
		msg := fmt.Sprintf("University isn't in session on %s, enjoy the break :)", date)
		if next, ok := nextSemester(semesters, q.Date); ok {
			msg += fmt.Sprintf("\n%s starts %s, %s.",
				next.Name, calendar.FormatUserDate(next.Start),
				humanize.RelTime(next.Start, q.Date, "ago", "from now"))
		}
		return msg

	default:
		return fmt.Sprintf("Sorry, %s is currently out of bounds.", date)
	}
}

// nextSemester finds the earliest semester starting after the date.
func nextSemester(semesters []model.Semester, after time.Time) (model.Semester, bool) {
	var best model.Semester
	found := false
	for _, s := range semesters {
		if !s.Start.After(after) {
			continue
		}
		if !found || s.Start.Before(best.Start) {
			best, found = s, true
		}
	}
	return best, found
}

package model

import "time"

// Session labels recognized by the calendar parser. The academic calendar
// page also lists other session types (summer semester, research quarters);
// only the two standard teaching semesters are modeled.
const (
	Semester1 = "Semester 1"
	Semester2 = "Semester 2"
)

// Semester is one teaching session extracted from the academic calendar.
// Values are immutable once the parser constructs them; Start and End are
// civil dates at midnight in the calendar's fixed timezone, both inclusive.
type Semester struct {
	Name  string // one of Semester1, Semester2
	Start time.Time
	End   time.Time
}

// Year returns the calendar year the semester was listed under.
func (s Semester) Year() int { return s.Start.Year() }

// Contains reports whether date falls within the semester, boundaries
// included. date must be a civil date (midnight) in the same timezone.
func (s Semester) Contains(date time.Time) bool {
	return !date.Before(s.Start) && !date.After(s.End)
}

// Outcome discriminates the result of resolving a date against a calendar
// document.
type Outcome int

const (
	// Found means the date falls inside one of the semesters.
	Found Outcome = iota
	// OutOfSession means the date's year is covered by the calendar but the
	// date falls in a gap between semesters.
	OutOfSession
	// OutOfRange means the date's year is outside every year the calendar
	// document covers.
	OutOfRange
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case OutOfSession:
		return "out_of_session"
	case OutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of a week lookup. Semester, Week and Weekday
// are populated only when Outcome is Found. Week is 1-based: days 0-6 of a
// semester are week 1.
type Resolution struct {
	Outcome  Outcome
	Semester string
	Week     int
	Weekday  string
}

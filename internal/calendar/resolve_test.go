package calendar

import (
	"testing"
	"time"

	"whatweek/internal/model"
)

func testSemesters() []model.Semester {
	return []model.Semester{
		{Name: model.Semester1, Start: date(2024, time.February, 26), End: date(2024, time.June, 2)},
		{Name: model.Semester2, Start: date(2024, time.July, 22), End: date(2024, time.November, 18)},
	}
}

var testYears = []int{2024, 2025}

func TestResolveFound(t *testing.T) {
	sems := testSemesters()
	tests := []struct {
		name     string
		date     time.Time
		semester string
		week     int
		weekday  string
	}{
		{"first day", date(2024, time.February, 26), model.Semester1, 1, "Monday"},
		{"last day of week one", date(2024, time.March, 3), model.Semester1, 1, "Sunday"},
		{"first day of week two", date(2024, time.March, 4), model.Semester1, 2, "Monday"},
		{"last day of semester", date(2024, time.June, 2), model.Semester1, 14, "Sunday"},
		{"second semester", date(2024, time.August, 14), model.Semester2, 4, "Wednesday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(sems, testYears, tt.date)
			want := model.Resolution{Outcome: model.Found, Semester: tt.semester, Week: tt.week, Weekday: tt.weekday}
			if got != want {
				t.Errorf("Resolve = %+v, want %+v", got, want)
			}
			if again := Resolve(sems, testYears, tt.date); again != got {
				t.Errorf("second call = %+v, first call = %+v", again, got)
			}
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	sems := testSemesters()
	tests := []struct {
		name    string
		date    time.Time
		outcome model.Outcome
	}{
		{"between semesters", date(2024, time.July, 1), model.OutOfSession},
		{"before first semester", date(2024, time.January, 15), model.OutOfSession},
		{"known year without semesters", date(2025, time.March, 3), model.OutOfSession},
		{"after last known year", date(2027, time.May, 1), model.OutOfRange},
		{"before first known year", date(2023, time.December, 31), model.OutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(sems, testYears, tt.date)
			if got.Outcome != tt.outcome {
				t.Errorf("Outcome = %s, want %s", got.Outcome, tt.outcome)
			}
			if got.Semester != "" || got.Week != 0 || got.Weekday != "" {
				t.Errorf("not-found result carries data: %+v", got)
			}
		})
	}
}

func TestResolveTruncatesToCivilDay(t *testing.T) {
	sems := testSemesters()

	evening := time.Date(2024, time.June, 2, 23, 30, 0, 0, Location())
	got := Resolve(sems, testYears, evening)
	if got.Outcome != model.Found || got.Week != 14 {
		t.Errorf("Resolve(evening of last day) = %+v, want found week 14", got)
	}

	// 2024-02-25 22:00 UTC is already the 26th in Brisbane.
	utc := time.Date(2024, time.February, 25, 22, 0, 0, 0, time.UTC)
	got = Resolve(sems, testYears, utc)
	want := model.Resolution{Outcome: model.Found, Semester: model.Semester1, Week: 1, Weekday: "Monday"}
	if got != want {
		t.Errorf("Resolve(UTC instant) = %+v, want %+v", got, want)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	overlapping := []model.Semester{
		{Name: model.Semester1, Start: date(2024, time.February, 26), End: date(2024, time.June, 2)},
		{Name: model.Semester2, Start: date(2024, time.February, 26), End: date(2024, time.June, 2)},
	}
	got := Resolve(overlapping, []int{2024}, date(2024, time.March, 4))
	if got.Semester != model.Semester1 {
		t.Errorf("Semester = %q, want %q", got.Semester, model.Semester1)
	}
}

func TestResolveNoKnownYears(t *testing.T) {
	got := Resolve(nil, nil, date(2024, time.March, 4))
	if got.Outcome != model.OutOfRange {
		t.Errorf("Outcome = %s, want %s", got.Outcome, model.OutOfRange)
	}
}

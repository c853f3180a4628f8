package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timezone is the institutional zone every calendar date is anchored to.
// Queensland does not observe daylight saving, so the zone has a fixed
// UTC+10 offset year round.
const Timezone = "Australia/Brisbane"

// UserDateFormat is the input and display layout for dates crossing the
// API boundary.
const UserDateFormat = "02/01/2006"

// markupDateFormat matches the abbreviated-month dates found in calendar
// markup, e.g. "26 Feb 2024". The day has no leading zero.
const markupDateFormat = "2 Jan 2006"

var (
	locOnce sync.Once
	loc     *time.Location
)

// Location returns the institutional time zone. When the zone database is
// unavailable it falls back to the equivalent fixed offset, which is exact
// because the zone has no transitions.
func Location() *time.Location {
	locOnce.Do(func() {
		var err error
		loc, err = time.LoadLocation(Timezone)
		if err != nil {
			loc = time.FixedZone("AEST", 10*60*60)
		}
	})
	return loc
}

// ParseUserDate parses a DD/MM/YYYY string into a date in the
// institutional zone. Any deviation from the layout, including an
// impossible day like 31/02, yields ErrDateFormat.
func ParseUserDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(UserDateFormat, strings.TrimSpace(s), Location())
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	return t, nil
}

// FormatUserDate renders a date in the DD/MM/YYYY display layout.
func FormatUserDate(t time.Time) string {
	return t.Format(UserDateFormat)
}

// dashSeparators are the label/date separators seen in calendar markup.
// The third entry is the UTF-8 en dash as mangled by a Latin-1 round trip,
// which some published pages carry verbatim.
var dashSeparators = []string{"–", "—", "â€“", "-"}

// dateToken returns the text before the first separator in an item line,
// or ok=false when no separator is present.
func dateToken(line string) (string, bool) {
	idx := -1
	for _, s := range dashSeparators {
		if i := strings.Index(line, s); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	if idx < 0 {
		return "", false
	}
	return line[:idx], true
}

// cleanDateToken normalizes a raw date token: non-breaking spaces, in
// both their plain and Latin-1-mangled forms, become plain spaces and
// runs of whitespace collapse to single spaces.
func cleanDateToken(tok string) string {
	tok = strings.ReplaceAll(tok, "Â ", " ")
	tok = strings.ReplaceAll(tok, " ", " ")
	return strings.Join(strings.Fields(tok), " ")
}

// parseMarkupDate parses the date token of an item line, given the year
// from the enclosing heading, into a date in the institutional zone.
func parseMarkupDate(tok string, year int) (time.Time, error) {
	full := fmt.Sprintf("%s %d", cleanDateToken(tok), year)
	t, err := time.ParseInLocation(markupDateFormat, full, Location())
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// Package calendar turns the university's semester-dates page into
// semester records and resolves dates against them.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"whatweek/internal/model"
)

// Selectors for the pieces of the semester-dates page the parser reads.
// Year headings are h3 elements; each year is followed by accordion items
// whose h4 title names the session and whose content holds the date lines.
const (
	yearHeadingTag  = "h3"
	itemSelector    = "div.uq-accordion__item"
	itemTitleTag    = "h4"
	contentSelector = "div.uq-accordion__content"
	lineTag         = "li"
)

// classesStartMarker identifies the line carrying a semester's start date.
// End-of-classes lines are matched against the semester's own label, see
// parseItem.
const classesStartMarker = "Classes start"

// Document is the parsed form of one calendar page snapshot: semester
// records in document order, plus the distinct year-heading values, also
// in document order.
type Document struct {
	Semesters []model.Semester
	Years     []int
}

// Parse extracts the semester list from calendar page markup. It returns
// a *ParseError when the page does not have the expected shape or a
// required date line is missing or unreadable; it never returns a
// partially populated document.
func Parse(markup string) (*Document, error) {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &ParseError{Kind: KindStructure, Detail: "unreadable markup", Err: err}
	}
	if root.Find(yearHeadingTag).Length() == 0 {
		return nil, structureErr("no year headings found")
	}

	doc := &Document{}
	seen := map[int]bool{}

	// Scan year headings and accordion items in document order. Items
	// belong to the most recent heading; a non-teaching item ends the
	// scan for its year, so summer sessions and the like are skipped.
	var (
		year     int
		haveYear bool
		skipYear bool
		perr     *ParseError
	)
	root.Find(yearHeadingTag + ", " + itemSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Is(yearHeadingTag) {
			text := strings.TrimSpace(s.Text())
			y, err := strconv.Atoi(text)
			if err != nil {
				perr = structureErr(fmt.Sprintf("year heading %q is not a year", text))
				return false
			}
			year, haveYear, skipYear = y, true, false
			if !seen[y] {
				seen[y] = true
				doc.Years = append(doc.Years, y)
			}
			return true
		}
		if !haveYear || skipYear {
			return true
		}
		sem, ok, err := parseItem(s, year)
		if err != nil {
			perr = err
			return false
		}
		if !ok {
			skipYear = true
			return true
		}
		doc.Semesters = append(doc.Semesters, sem)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return doc, nil
}

// parseItem reads one accordion item under the given year heading. It
// returns ok=false with a nil error when the item is not a teaching
// session, which tells the caller to stop scanning the year.
func parseItem(item *goquery.Selection, year int) (model.Semester, bool, *ParseError) {
	title := item.Find(itemTitleTag).First()
	if title.Length() == 0 {
		return model.Semester{}, false, structureErr(fmt.Sprintf("accordion item under %d has no title heading", year))
	}
	name := strings.TrimSpace(title.Text())
	if name != model.Semester1 && name != model.Semester2 {
		return model.Semester{}, false, nil
	}

	content := item.Find(contentSelector).First()
	if content.Length() == 0 {
		return model.Semester{}, false, structureErr(fmt.Sprintf("%s %d has no content list", name, year))
	}

	endMarkerA := name + " classes end"
	endMarkerB := name + " ends"

	var (
		start, end         time.Time
		haveStart, haveEnd bool
		perr               *ParseError
	)
	content.Find(lineTag).EachWithBreak(func(_ int, li *goquery.Selection) bool {
		line := li.Text()
		switch {
		case strings.Contains(line, classesStartMarker):
			t, err := lineDate(line, year)
			if err != nil {
				perr = err
				return false
			}
			start, haveStart = t, true
		case strings.Contains(line, endMarkerA), strings.Contains(line, endMarkerB):
			t, err := lineDate(line, year)
			if err != nil {
				perr = err
				return false
			}
			end, haveEnd = t, true
		}
		return true
	})
	if perr != nil {
		return model.Semester{}, false, perr
	}
	if !haveStart {
		return model.Semester{}, false, dateErr(fmt.Sprintf("%s %d has no %q line", name, year, classesStartMarker), nil)
	}
	if !haveEnd {
		return model.Semester{}, false, dateErr(fmt.Sprintf("%s %d has no end-of-classes line", name, year), nil)
	}
	if end.Before(start) {
		return model.Semester{}, false, dateErr(fmt.Sprintf("%s %d ends before it starts", name, year), nil)
	}
	return model.Semester{Name: name, Start: start, End: end}, true, nil
}

// lineDate extracts the leading date token of an item line and parses it
// against the enclosing year.
func lineDate(line string, year int) (time.Time, *ParseError) {
	tok, ok := dateToken(line)
	if !ok {
		return time.Time{}, dateErr(fmt.Sprintf("line %q has no date separator", snippet(line)), nil)
	}
	t, err := parseMarkupDate(tok, year)
	if err != nil {
		return time.Time{}, dateErr(fmt.Sprintf("bad date %q", cleanDateToken(tok)), err)
	}
	return t, nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 60 {
		s = string(r[:60]) + "..."
	}
	return s
}

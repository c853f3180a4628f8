package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"whatweek/internal/config"
	"whatweek/internal/source"
)

const testMarkup = `<html><body><h3>2024</h3>
<div class="uq-accordion__item"><h4>Semester 1</h4>
<div class="uq-accordion__content"><ul>
<li>26 Feb – Classes start</li>
<li>2 Jun – Semester 1 ends</li>
</ul></div></div>
<div class="uq-accordion__item"><h4>Semester 2</h4>
<div class="uq-accordion__content"><ul>
<li>22 Jul – Classes start</li>
<li>18 Nov – Semester 2 ends</li>
</ul></div></div>
</body></html>`

func testHandler(t *testing.T, cfg *config.Config, markup string) http.Handler {
	t.Helper()
	store := source.NewStore(nil)
	if markup != "" {
		if err := store.SetMarkup(markup); err != nil {
			t.Fatalf("SetMarkup: %v", err)
		}
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return NewServer(cfg, store).Handler()
}

func get(h http.Handler, target string, mod ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, m := range mod {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWeekExplicitDate(t *testing.T) {
	h := testHandler(t, nil, testMarkup)

	rec := get(h, "/api/week?date=26/02/2024")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var resp weekResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Date != "26/02/2024" || resp.Outcome != "found" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Semester != "Semester 1" || resp.Week != 1 || resp.Weekday != "Monday" {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.HasPrefix(resp.Message, "The week of 26/02/2024 is in:") {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestWeekDefaultsToToday(t *testing.T) {
	h := testHandler(t, nil, testMarkup)

	rec := get(h, "/api/week")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var resp weekResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Date == "" || resp.Message == "" {
		t.Errorf("resp = %+v", resp)
	}
	switch resp.Outcome {
	case "found", "out_of_session", "out_of_range":
	default:
		t.Errorf("outcome = %q", resp.Outcome)
	}
}

func TestWeekOutcomes(t *testing.T) {
	h := testHandler(t, nil, testMarkup)

	rec := get(h, "/api/week?date=01/07/2024")
	var resp weekResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Outcome != "out_of_session" || !strings.Contains(resp.Message, "enjoy the break") {
		t.Errorf("gap resp = %+v", resp)
	}

	rec = get(h, "/api/week?date=01/05/2027")
	resp = weekResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Outcome != "out_of_range" || !strings.Contains(resp.Message, "out of bounds") {
		t.Errorf("range resp = %+v", resp)
	}
}

func TestWeekBadDate(t *testing.T) {
	h := testHandler(t, nil, testMarkup)

	rec := get(h, "/api/week?date=2024-02-26")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "date must be in format DD/MM/YYYY" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestWeekWithoutSnapshot(t *testing.T) {
	h := testHandler(t, nil, "")

	rec := get(h, "/api/week?date=26/02/2024")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "calendar data unavailable" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSemesters(t *testing.T) {
	h := testHandler(t, nil, testMarkup)

	rec := get(h, "/api/semesters")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp semestersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Years) != 1 || resp.Years[0] != 2024 {
		t.Errorf("years = %v", resp.Years)
	}
	if len(resp.Semesters) != 2 {
		t.Fatalf("semesters = %+v", resp.Semesters)
	}
	first := resp.Semesters[0]
	if first.Name != "Semester 1" || first.Start != "26/02/2024" || first.End != "02/06/2024" {
		t.Errorf("first semester = %+v", first)
	}
}

func TestFeed(t *testing.T) {
	h := testHandler(t, nil, testMarkup)

	rec := get(h, "/calendar.ics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "UID:semester-1-2024-week-1@whatweek") {
		t.Errorf("feed body missing calendar parts:\n%s", body)
	}

	// Second request must serve the cached build for the same snapshot.
	again := get(h, "/calendar.ics")
	if again.Body.String() != body {
		t.Error("same snapshot produced different feed bodies")
	}
}

func TestIndex(t *testing.T) {
	h := testHandler(t, nil, testMarkup)

	rec := get(h, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/api/week") {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body)
	}
	if rec := get(h, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	h := testHandler(t, cfg, testMarkup)

	if rec := get(h, "/health"); rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want open access", rec.Code)
	}

	rec := get(h, "/api/week?date=26/02/2024")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("challenge header missing")
	}

	rec = get(h, "/api/week?date=26/02/2024", func(r *http.Request) {
		r.SetBasicAuth("u", "p")
	})
	if rec.Code != http.StatusOK {
		t.Errorf("authorized status = %d", rec.Code)
	}

	rec = get(h, "/api/week?date=26/02/2024", func(r *http.Request) {
		r.SetBasicAuth("u", "wrong")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d", rec.Code)
	}
}

// Package web serves the week-lookup HTTP API.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"whatweek/internal/calendar"
	"whatweek/internal/config"
	"whatweek/internal/feed"
	appLog "whatweek/internal/log"
	"whatweek/internal/reply"
	"whatweek/internal/source"
)

// Server exposes the parsed calendar snapshot over HTTP.
type Server struct {
	cfg   *config.Config
	store *source.Store
	mux   *http.ServeMux

	// Cache for the serialized ICS feed; rebuilt only when the store
	// swaps in a new snapshot.
	feedMu    sync.RWMutex
	feedCache *feedCache
}

// feedCache holds a serialized feed and the snapshot load time it was
// built from.
type feedCache struct {
	body     string
	loadedAt time.Time
}

// NewServer constructs a Server reading from the given store.
func NewServer(cfg *config.Config, store *source.Store) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, wrapped with basic auth
// when credentials are configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled")
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials count as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="whatweek", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/week", s.handleWeek)
	s.mux.HandleFunc("/api/semesters", s.handleSemesters)
	s.mux.HandleFunc("/calendar.ics", s.handleFeed)
	s.mux.HandleFunc("/", s.handleIndex)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

const usageText = `whatweek answers "what academic week is it?"

  GET /api/week?date=DD/MM/YYYY  resolve a date (omit date for today)
  GET /api/semesters             the parsed semester list
  GET /calendar.ics              teaching weeks as an iCalendar feed
  GET /health                    liveness probe
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(usageText))
}

// weekResponse is the JSON response shape for /api/week.
type weekResponse struct {
	Date     string `json:"date"`
	Outcome  string `json:"outcome"`
	Semester string `json:"semester,omitempty"`
	Week     int    `json:"week,omitempty"`
	Weekday  string `json:"weekday,omitempty"`
	Message  string `json:"message"`
}

// handleWeek resolves a date against the current snapshot.
//
// GET /api/week?date=26/02/2024
// An omitted date means the current day in the calendar's zone.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	doc, _, err := s.store.Document()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	var q reply.Query
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := calendar.ParseUserDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		q = reply.Query{Date: d, Explicit: true}
	} else {
		q = reply.Query{Date: time.Now().In(calendar.Location())}
	}

	res := doc.Resolve(q.Date)
	writeJSON(w, http.StatusOK, weekResponse{
		Date:     calendar.FormatUserDate(q.Date),
		Outcome:  res.Outcome.String(),
		Semester: res.Semester,
		Week:     res.Week,
		Weekday:  res.Weekday,
		Message:  reply.Message(q, res, doc.Semesters),
	})
}

// semesterDTO is a JSON-friendly view of one semester.
type semesterDTO struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// semestersResponse is the JSON response shape for /api/semesters.
type semestersResponse struct {
	Years     []int         `json:"years"`
	Semesters []semesterDTO `json:"semesters"`
}

func (s *Server) handleSemesters(w http.ResponseWriter, _ *http.Request) {
	doc, _, err := s.store.Document()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	dtos := make([]semesterDTO, 0, len(doc.Semesters))
	for _, sem := range doc.Semesters {
		dtos = append(dtos, semesterDTO{
			Name:  sem.Name,
			Start: calendar.FormatUserDate(sem.Start),
			End:   calendar.FormatUserDate(sem.End),
		})
	}
	writeJSON(w, http.StatusOK, semestersResponse{Years: doc.Years, Semesters: dtos})
}

// handleFeed serves the ICS export, rebuilding it only when the snapshot
// has been reloaded since the cached build.
func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	doc, loadedAt, err := s.store.Document()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.feedMu.RLock()
	fc := s.feedCache
	s.feedMu.RUnlock()

	if fc == nil || !fc.loadedAt.Equal(loadedAt) {
		body, err := feed.Build(doc, time.Now())
		if err != nil {
			appLog.Error("feed build failed", err)
			writeError(w, http.StatusInternalServerError, "failed to build calendar feed")
			return
		}
		fc = &feedCache{body: body, loadedAt: loadedAt}
		s.feedMu.Lock()
		s.feedCache = fc
		s.feedMu.Unlock()
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(fc.body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

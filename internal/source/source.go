// Package source acquires calendar markup and holds the latest parsed
// snapshot for concurrent readers.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"whatweek/internal/calendar"
	appLog "whatweek/internal/log"
)

// ErrNotLoaded is returned by Store.Document before any snapshot has been
// loaded successfully.
var ErrNotLoaded = errors.New("calendar data unavailable")

// Loader produces calendar markup from a file snapshot or, when no file
// is configured, a plain GET of the calendar URL. Pages that need script
// to render go through the snapshot package instead.
type Loader struct {
	File string
	URL  string

	// Client is used for URL loads. Nil means a client with a 15 second
	// timeout.
	Client *http.Client
}

func (l *Loader) client() *http.Client {
	if l.Client != nil {
		return l.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// Load returns the calendar markup. The file snapshot wins when both a
// file and a URL are configured; the URL is only fetched directly when
// there is no snapshot path.
func (l *Loader) Load(ctx context.Context) (string, error) {
	switch {
	case l.File != "":
		data, err := os.ReadFile(l.File)
		if err != nil {
			return "", fmt.Errorf("read calendar snapshot: %w", err)
		}
		return string(data), nil
	case l.URL != "":
		return l.fetch(ctx)
	default:
		return "", errors.New("no calendar source configured")
	}
}

func (l *Loader) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := l.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch calendar page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch calendar page: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read calendar page: %w", err)
	}
	return string(body), nil
}

// Store is the shared snapshot state: the latest successfully parsed
// document and when it was swapped in. Zero value is empty; readers get
// ErrNotLoaded until the first successful reload.
type Store struct {
	loader *Loader

	mu       sync.RWMutex
	doc      *calendar.Document
	loadedAt time.Time
}

// NewStore returns a Store that reloads through the given loader.
func NewStore(l *Loader) *Store {
	return &Store{loader: l}
}

// Document returns the current parsed snapshot and its load time.
func (s *Store) Document() (*calendar.Document, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, time.Time{}, ErrNotLoaded
	}
	return s.doc, s.loadedAt, nil
}

// SetMarkup parses markup and swaps it in as the current snapshot. The
// previous snapshot stays in place when parsing fails.
func (s *Store) SetMarkup(markup string) error {
	doc, err := calendar.Parse(markup)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = doc
	s.loadedAt = time.Now()
	s.mu.Unlock()

	appLog.Info("calendar snapshot loaded",
		"semesters", len(doc.Semesters), "years", fmt.Sprint(doc.Years))
	return nil
}

// Reload loads markup through the loader and swaps in the parsed result.
func (s *Store) Reload(ctx context.Context) error {
	markup, err := s.loader.Load(ctx)
	if err != nil {
		return err
	}
	return s.SetMarkup(markup)
}

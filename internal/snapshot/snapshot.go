// Package snapshot captures the rendered semester-dates page through
// headless Chromium. The calendar accordion is script-rendered, so a
// plain GET of the page misses the content.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "whatweek/internal/log"
)

// DefaultTimeout bounds a capture when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Options defines parameters for one rendered-page capture.
type Options struct {
	// URL is the semester-dates page.
	URL string

	// WaitSelector must be visible before the page counts as rendered.
	// Empty waits for the document body.
	WaitSelector string

	// Timeout bounds the entire capture. Zero means DefaultTimeout.
	Timeout time.Duration
}

// CaptureHTML navigates headless Chromium to opts.URL, waits for the
// rendered content, and returns the serialized page markup.
func CaptureHTML(parent context.Context, opts Options) (string, error) {
	if opts.URL == "" {
		return "", fmt.Errorf("snapshot: URL is required")
	}
	wait := opts.WaitSelector
	if wait == "" {
		wait = "body"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	// Apply the timeout to the entire capture sequence.
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	appLog.Info("capturing calendar page", "url", opts.URL, "wait", wait)

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(wait, chromedp.ByQuery),
		// Small extra delay so late accordion hydration settles.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return "", fmt.Errorf("snapshot: chromedp run failed: %w", err)
	}
	return html, nil
}

// WriteFile writes captured markup to path atomically via a temp file
// and rename.
func WriteFile(path, html string) error {
	if path == "" {
		return fmt.Errorf("snapshot: output path is required")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".whatweek-snapshot-*.html")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(html); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	appLog.Info("calendar snapshot written", "path", path, "bytes", len(html))
	return nil
}

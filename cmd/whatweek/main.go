package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/robfig/cron/v3"

	"whatweek/internal/calendar"
	"whatweek/internal/config"
	appLog "whatweek/internal/log"
	"whatweek/internal/reply"
	"whatweek/internal/snapshot"
	"whatweek/internal/source"
	"whatweek/internal/web"
)

type flagConfig struct {
	configPath  string
	listen      string
	date        string
	today       bool
	snapshot    bool
	logRequests bool
	verbose     bool
}

func parseFlags() flagConfig {
	var cfg flagConfig
	flag.StringVar(&cfg.configPath, "config", config.DefaultPath, "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.date, "date", "", "Resolve this DD/MM/YYYY date, print the answer and exit")
	flag.BoolVar(&cfg.today, "today", false, "Resolve today's date, print the answer and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture the calendar page to the snapshot file and exit")
	flag.BoolVar(&cfg.logRequests, "log-requests", false, "log requests")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")
	flag.Parse()
	return cfg
}

func main() {
	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("whatweek starting", "version", "0.1.0-dev")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"file", conf.Calendar.File,
		"url", conf.Calendar.URL,
		"render", conf.Calendar.Render,
		"refresh", conf.RefreshCron,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	switch {
	case flags.snapshot:
		os.Exit(runSnapshot(ctx, conf))
	case flags.date != "" || flags.today:
		os.Exit(runOnce(ctx, conf, flags))
	default:
		os.Exit(runServe(ctx, conf, flags))
	}
}

// fetchLive pulls the current page from the configured URL, through a
// headless browser when the page needs client side rendering.
func fetchLive(ctx context.Context, conf *config.Config) (string, error) {
	if conf.Calendar.URL == "" {
		return "", errors.New("calendar.url is not set")
	}
	if conf.Calendar.Render {
		return snapshot.CaptureHTML(ctx, snapshot.Options{
			URL:          conf.Calendar.URL,
			WaitSelector: conf.Calendar.WaitSelector,
		})
	}
	return (&source.Loader{URL: conf.Calendar.URL}).Load(ctx)
}

func runSnapshot(ctx context.Context, conf *config.Config) int {
	if conf.Calendar.File == "" {
		appLog.Error("cannot capture snapshot", errors.New("calendar.file is not set"))
		return 1
	}
	markup, err := fetchLive(ctx, conf)
	if err != nil {
		appLog.Error("snapshot capture failed", err, "url", conf.Calendar.URL)
		return 1
	}
	if err := snapshot.WriteFile(conf.Calendar.File, markup); err != nil {
		appLog.Error("snapshot write failed", err, "path", conf.Calendar.File)
		return 1
	}
	return 0
}

func runOnce(ctx context.Context, conf *config.Config, flags flagConfig) int {
	q := reply.Query{Date: time.Now().In(calendar.Location())}
	if flags.date != "" {
		d, err := calendar.ParseUserDate(flags.date)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		q = reply.Query{Date: d, Explicit: true}
	}

	var markup string
	var err error
	if conf.Calendar.File == "" && conf.Calendar.Render {
		markup, err = fetchLive(ctx, conf)
	} else {
		markup, err = (&source.Loader{File: conf.Calendar.File, URL: conf.Calendar.URL}).Load(ctx)
	}
	if err != nil {
		appLog.Error("failed to load calendar markup", err)
		return 1
	}

	doc, err := calendar.Parse(markup)
	if err != nil {
		appLog.Error("calendar markup failed to parse", err)
		return 1
	}

	res := doc.Resolve(q.Date)
	fmt.Println(reply.Message(q, res, doc.Semesters))
	return 0
}

func runServe(ctx context.Context, conf *config.Config, flags flagConfig) int {
	store := source.NewStore(&source.Loader{File: conf.Calendar.File, URL: conf.Calendar.URL})

	// Handlers answer 503 until a load succeeds, so a broken snapshot
	// at boot is not fatal.
	if err := initialLoad(ctx, conf, store); err != nil {
		appLog.Error("initial calendar load failed", err)
	}

	if conf.Calendar.File != "" {
		w := source.NewWatcher(conf.Calendar.File, store)
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("snapshot watcher stopped", err)
			}
		}()
	}

	if conf.RefreshCron != "" {
		if conf.Calendar.URL == "" {
			appLog.Error("cannot schedule refresh", errors.New("calendar.url is not set"), "refresh", conf.RefreshCron)
			return 1
		}
		c := cron.New()
		if _, err := c.AddFunc(conf.RefreshCron, func() { refreshSnapshot(ctx, conf, store) }); err != nil {
			appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
			return 1
		}
		c.Start()
		defer c.Stop()
		appLog.Info("scheduled calendar refresh", "refresh", conf.RefreshCron)
	}

	srv := web.NewServer(conf, store)
	var h http.Handler = srv.Handler()
	if flags.logRequests {
		h = handlers.LoggingHandler(os.Stdout, h)
	}

	httpSrv := &http.Server{Addr: conf.Listen, Handler: h}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	appLog.Info("listening", "addr", "http://"+conf.Listen)

	select {
	case err := <-errCh:
		appLog.Error("HTTP server failed", err)
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", err)
		return 1
	}
	appLog.Info("whatweek exiting")
	return 0
}

func initialLoad(ctx context.Context, conf *config.Config, store *source.Store) error {
	if conf.Calendar.File == "" && conf.Calendar.Render {
		markup, err := fetchLive(ctx, conf)
		if err != nil {
			return err
		}
		return store.SetMarkup(markup)
	}
	return store.Reload(ctx)
}

// refreshSnapshot re-captures the live page on the cron schedule. When
// a snapshot file is configured the markup is written there first, so
// the on-disk copy and the served data stay in step.
func refreshSnapshot(parent context.Context, conf *config.Config, store *source.Store) {
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	markup, err := fetchLive(ctx, conf)
	if err != nil {
		appLog.Error("scheduled refresh failed", err, "url", conf.Calendar.URL)
		return
	}
	if conf.Calendar.File != "" {
		if err := snapshot.WriteFile(conf.Calendar.File, markup); err != nil {
			appLog.Error("snapshot write failed", err, "path", conf.Calendar.File)
			return
		}
	}
	if err := store.SetMarkup(markup); err != nil {
		appLog.Error("refreshed markup failed to parse", err)
	}
}

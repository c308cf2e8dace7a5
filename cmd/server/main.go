package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/config"
	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/meetings"
	"github.com/me/ccfeedback/internal/metrics"
	"github.com/me/ccfeedback/internal/server"
	"github.com/me/ccfeedback/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML config file")
	envFile := flag.String("env-file", ".env", "Path to an optional .env file")
	addr := flag.String("addr", "", "Listen address (default :3000, or CCF_ADDR)")
	backendURL := flag.String("backend", "", "Feedback backend URL (or CCF_BACKEND_URL)")
	authScheme := flag.String("auth-scheme", "", "Token header: bearer, x-access-token or both")
	dbPath := flag.String("db", "", "Session database path (default ~/.ccf/web.db)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	secure := flag.Bool("secure-cookies", false, "Set the Secure flag on the session cookie")
	meetingsFile := flag.String("meetings", "", "YAML meeting schedule for the student dashboard (or CCF_MEETINGS_FILE)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	cfg, err := config.LoadServer(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags win over the config file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "backend":
			cfg.Client.BackendURL = *backendURL
		case "auth-scheme":
			cfg.Client.AuthScheme = *authScheme
		case "db":
			cfg.DBPath = *dbPath
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "secure-cookies":
			cfg.SecureCookies = *secure
		case "meetings":
			cfg.Client.MeetingsFile = *meetingsFile
		}
	})
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Resolve database path.
	path := cfg.DBPath
	if path == "" {
		path, err = config.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
			os.Exit(1)
		}
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", filepath.Dir(path), err)
			os.Exit(1)
		}
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("session store ready", "path", path)

	scheme, _ := api.ParseAuthScheme(cfg.Client.AuthScheme)
	client := api.NewClient(cfg.Client.BackendURL, logger).
		WithTimeout(cfg.Client.Timeout).
		WithAuthScheme(scheme)
	logger.Info("backend configured", "url", client.BaseURL, "auth_scheme", scheme)

	schedule, err := meetings.LoadFile(cfg.Client.MeetingsFile, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load meeting schedule: %v\n", err)
		os.Exit(1)
	}
	logger.Info("meeting schedule loaded", "file", cfg.Client.MeetingsFile, "meetings", schedule.Len())

	srv := server.New(cfg, st, client, logger,
		server.WithMetrics(metrics.New()),
		server.WithMeetings(schedule),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.StartSessionSweeper(ctx, server.DefaultSweepInterval)

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

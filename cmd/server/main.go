/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HR analytics dashboard server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and build the zap logger
  2. Load the YAML configuration and the seed dataset
  3. Initialize the record store and load the seed into it
  4. Create the Dashboard, insight runner and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port             HTTP server port (default: 8080)
  -db               SQLite database path; empty keeps records in process
                    memory, ":memory:" uses an in-memory SQLite database
  -config           YAML configuration file (default: embedded defaults)
  -seed             YAML seed dataset (default: embedded seed)
  -log-level        debug, info, warn or error (default: info)
  -dev              Human-readable development logging
  -insight-timeout  Overrides insight.timeout from the configuration

  The store is reseeded on every start: dashboard state lives for one
  server process.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Cancel running insight tasks
  4. Close the store
  5. Exit

EXAMPLES:
  # Run with defaults
  ./server

  # Run against SQLite with a custom rule file
  ./server -db="./data/dashboard.db" -config=./dashboard.yaml

  # Run on different port with debug logs
  ./server -port=3000 -log-level=debug -dev

ENVIRONMENT:
  API_KEY    Credentials for the insight service. Without it, insight
             tasks fail with the fixed failure message.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Configuration schema
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/hr-dashboard/analytics"
	"github.com/warp/hr-dashboard/analytics/store"
	"github.com/warp/hr-dashboard/api"
	"github.com/warp/hr-dashboard/config"
	"github.com/warp/hr-dashboard/insight"
	"github.com/warp/hr-dashboard/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path (empty: in-process memory store)")
	configPath := flag.String("config", "", "YAML configuration file (empty: embedded defaults)")
	seedPath := flag.String("seed", "", "YAML seed dataset (empty: embedded seed)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	dev := flag.Bool("dev", false, "development logging")
	insightTimeout := flag.Duration("insight-timeout", 0, "insight request timeout (0: use configuration)")
	flag.Parse()

	logger, err := newLogger(*logLevel, *dev)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(logger, options{
		port:           *port,
		dbPath:         *dbPath,
		configPath:     *configPath,
		seedPath:       *seedPath,
		insightTimeout: *insightTimeout,
	}); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

type options struct {
	port           int
	dbPath         string
	configPath     string
	seedPath       string
	insightTimeout time.Duration
}

func run(logger *zap.Logger, opts options) error {
	ctx := context.Background()

	// Configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.insightTimeout > 0 {
		cfg.Insight.Timeout = opts.insightTimeout
	}
	seed, err := config.LoadSeed(opts.seedPath)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	orgs, recs, err := seed.Dataset()
	if err != nil {
		return fmt.Errorf("build seed dataset: %w", err)
	}
	selected, err := seed.SelectedPeriod()
	if err != nil {
		return err
	}

	// Initialize store
	records, closeStore, err := openStore(opts.dbPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer closeStore()
	if err := analytics.Seed(ctx, records, orgs, recs); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	// Domain services
	metrics := api.NewMetrics()
	dashboard := analytics.NewDashboard(records, cfg.Reporting.Rules(), selected, logger.Named("dashboard"))
	dashboard.OnRebuild = metrics.ObserveRebuild

	if cfg.Insight.APIKey == "" {
		logger.Warn("insight API key not set; insight tasks will fail", zap.String("env", config.APIKeyEnv))
	}
	client := insight.NewClient(cfg.Insight.Endpoint, cfg.Insight.Model, cfg.Insight.APIKey, cfg.Insight.Timeout)
	runner := insight.NewRunner(client, cfg.Insight.Timeout, logger.Named("insight"))
	runner.OnFinish = metrics.ObserveInsight
	defer runner.Close()

	handler := api.NewHandler(dashboard, runner, api.NewDatasets(seed), metrics, logger.Named("api"))
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.Int("port", opts.port),
			zap.Stringer("period", selected),
			zap.Int("organizations", len(orgs)),
			zap.Bool("sqlite", opts.dbPath != ""))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// openStore returns the in-process store for an empty path and a SQLite
// store otherwise.
func openStore(path string) (analytics.RecordStore, func(), error) {
	if path == "" {
		return store.NewMemory(), func() {}, nil
	}
	st, err := sqlite.New(path)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nServes the HR analytics dashboard API.\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
}

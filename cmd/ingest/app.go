package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"grid-ingest-lab/internal/config"
	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/logging"
	"grid-ingest-lab/internal/normalization"
	"grid-ingest-lab/internal/observability"
	"grid-ingest-lab/internal/orchestrator"
	"grid-ingest-lab/internal/registry"
	"grid-ingest-lab/internal/reporting"
	"grid-ingest-lab/internal/sources"
	"grid-ingest-lab/internal/storage"
	"grid-ingest-lab/internal/storage/clickhouse"
	"grid-ingest-lab/internal/storage/memory"
	"grid-ingest-lab/internal/storage/migrations"
	"grid-ingest-lab/internal/storage/postgres"
	"grid-ingest-lab/internal/upsert"
)

// loadConfig reads the config file and applies the configured log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("set log level: %w", err)
	}
	return cfg, nil
}

// watchSignals cancels the returned context on SIGINT/SIGTERM. A second
// signal, or a graceful shutdown taking longer than 30s, forces an exit.
func watchSignals(parent context.Context, logger logging.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Warnf("received signal %v, canceling run", sig)
			cancel()
			select {
			case sig = <-sigCh:
				logger.Errorf("received second signal %v, forcing immediate exit", sig)
				os.Exit(1)
			case <-time.After(30 * time.Second):
				logger.Errorf("graceful shutdown timed out after 30s, forcing exit")
				os.Exit(1)
			case <-done:
			}
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		signal.Stop(sigCh)
		cancel()
	}
}

// startMetricsServer serves /metrics and /health when enabled.
func startMetricsServer(cfg config.MetricsConfig, logger logging.Logger) {
	if !cfg.Enabled {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		logger.Infof("metrics server listening on %s", cfg.Addr)
		if err := http.ListenAndServe(cfg.Addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics server: %v", err)
		}
	}()
}

// appStores bundles the opened persistence backends.
type appStores struct {
	observations storage.ObservationStore
	history      storage.FetchHistoryStore
	close        func()
}

// openStores connects the configured backend and applies migrations.
// history is nil when fetch auditing is not configured.
func openStores(ctx context.Context, cfg config.StorageConfig, logger logging.Logger) (*appStores, error) {
	if cfg.Backend == "memory" {
		return &appStores{
			observations: memory.NewObservationStore(),
			history:      memory.NewFetchHistoryStore(),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}

	st := &appStores{
		observations: postgres.NewObservationStore(pool),
		close:        pool.Close,
	}

	if cfg.ClickhouseDSN == "" {
		logger.Warnf("clickhouse_dsn not set, fetch history auditing disabled")
		return st, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	st.history = clickhouse.NewFetchHistoryStore(conn)
	st.close = func() {
		conn.Close()
		pool.Close()
	}
	return st, nil
}

// newSourceClient builds the shared HTTP client for one source. Every
// source gets its own client so its rate limiter serializes only that
// source's traffic.
func newSourceClient(cfg config.SourceAPIConfig) *sources.Client {
	var opts []sources.ClientOption
	if cfg.RequestIntervalMs > 0 {
		opts = append(opts, sources.WithRequestInterval(time.Duration(cfg.RequestIntervalMs)*time.Millisecond))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, sources.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, sources.WithMaxRetries(cfg.MaxRetries))
	}
	return sources.NewClient(opts...)
}

// buildAdapters registers every source that can fetch. API sources need
// credentials; TAIPOWER's public feed does not. NVE and ENERGISTYRELSEN
// are declared so runs against them fail loudly instead of silently.
func buildAdapters(cfg config.SourcesConfig) *sources.AdapterSet {
	var adapters []sources.Adapter

	if cfg.ENTSOE.APIKey != "" {
		adapters = append(adapters,
			sources.NewENTSOEAdapter(cfg.ENTSOE.BaseURL, cfg.ENTSOE.APIKey, newSourceClient(cfg.ENTSOE)))
	}
	if cfg.ELEXON.APIKey != "" {
		adapters = append(adapters,
			sources.NewELEXONAdapter(cfg.ELEXON.BaseURL, cfg.ELEXON.APIKey, newSourceClient(cfg.ELEXON)))
	}
	if cfg.EIA.APIKey != "" {
		adapters = append(adapters,
			sources.NewEIAAdapter(cfg.EIA.BaseURL, cfg.EIA.APIKey, newSourceClient(cfg.EIA)))
	}
	adapters = append(adapters,
		sources.NewTAIPOWERAdapter(cfg.TAIPOWER.BaseURL, newSourceClient(cfg.TAIPOWER)),
		sources.NewNotImplementedAdapter(domain.SourceNVE),
		sources.NewNotImplementedAdapter(domain.SourceENERGISTYRELSEN),
	)
	return sources.NewAdapterSet(adapters...)
}

// newOrchestrator wires the full run pipeline from configuration.
func newOrchestrator(cfg *config.Config, st *appStores, logger logging.Logger) (*orchestrator.Orchestrator, error) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		return nil, fmt.Errorf("load settlement zone: %w", err)
	}

	return orchestrator.New(orchestrator.Options{
		Registry: registry.NewStatic(cfg.Entries()),
		Adapters: buildAdapters(cfg.Sources),
		Engine:   upsert.NewEngine(st.observations),
		Store:    st.observations,
		History:  st.history,
		Workers:  cfg.Ingest.Workers,
		Policy:   normalization.ResolutionPolicy(cfg.Ingest.ResolutionPolicy),
		CivilZones: map[domain.Source]*time.Location{
			domain.SourceELEXON: london,
		},
		Logger: logger,
	}), nil
}

// buildScope narrows a run to one source and/or specific identifiers.
func buildScope(source string, identifiers []string) (registry.Scope, error) {
	scope := registry.Scope{Identifiers: identifiers}
	if source != "" {
		s := domain.Source(strings.ToUpper(source))
		if !s.IsValid() {
			return registry.Scope{}, fmt.Errorf("unknown source %q", source)
		}
		scope.Source = s
	}
	return scope, nil
}

// parseTimeFlag accepts RFC3339 or a bare date taken as UTC midnight.
func parseTimeFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", s)
	}
	return t.UTC(), nil
}

// resolveWindow fills flag defaults: end is now, start is 24h before end.
func resolveWindow(startStr, endStr string) (time.Time, time.Time, error) {
	end := time.Now().UTC().Truncate(time.Minute)
	if endStr != "" {
		t, err := parseTimeFlag(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --end: %w", err)
		}
		end = t
	}
	start := end.Add(-24 * time.Hour)
	if startStr != "" {
		t, err := parseTimeFlag(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse --start: %w", err)
		}
		start = t
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is not before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}

// renderSummary writes the run outcome to stdout in the requested format.
func renderSummary(ctx context.Context, format string, summary *domain.RunSummary, history storage.FetchHistoryStore) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case "markdown", "csv":
		report, err := reporting.NewGenerator(history).Generate(ctx, summary)
		if err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
		if format == "markdown" {
			fmt.Print(reporting.RenderMarkdown(report))
		} else {
			fmt.Print(reporting.RenderCSV(report.Units))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

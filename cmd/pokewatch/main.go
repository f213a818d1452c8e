// Package main is the entry point for the pokewatch daemon.
//
// It loads configuration, game data, geofences and filters, restores the
// cache snapshot, then reads webhook messages as JSON lines from INPUT_PATH
// or stdin and logs every matched event with its exported attributes.
//
// SIGHUP reloads geofences and filters into a new rule generation without
// interrupting evaluation. SIGINT and SIGTERM stop reading, flush the cache
// and shut the ops HTTP server down.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pokewatch/internal/cache"
	"pokewatch/internal/config"
	"pokewatch/internal/engine"
	"pokewatch/internal/events"
	"pokewatch/internal/gamedata"
	"pokewatch/internal/pvp"
	"pokewatch/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("loading time zone: %w", err)
	}
	observer, err := cfg.ObserverLocation()
	if err != nil {
		return fmt.Errorf("parsing observer location: %w", err)
	}

	logger := &slogAdapter{logger: newLogger(cfg.LogLevel, os.Stdout)}
	logger.Info("pokewatch starting",
		"environment", cfg.Environment,
		"version", cfg.Build.String(),
		"released", cfg.Build.Released(),
		"timezone", cfg.Timezone,
	)

	tables := gamedata.Default()
	if cfg.Rules.GameDataPath != "" {
		if tables, err = gamedata.LoadFile(cfg.Rules.GameDataPath); err != nil {
			return fmt.Errorf("loading game data: %w", err)
		}
	}

	clock := types.RealClock{}
	rules := &ruleLoader{cfg: cfg.Rules, tables: tables, clock: clock, loc: loc}
	gen, err := rules.load()
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	mem := cache.NewMemory(clock)
	var (
		store *cache.FileStore
		saved uint64
	)
	if cfg.Cache.Path != "" {
		store = cache.NewFileStore(cfg.Cache.Path, clock, logger)
		snap, err := store.Load()
		if err != nil {
			// A corrupt snapshot only costs enrichment; start empty.
			logger.Warn("cache snapshot unreadable, starting empty", "error", err)
		} else {
			saved = mem.Restore(snap).Generation()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfoCollector(cfg.Build),
	)

	eng := engine.New(engine.Options{
		Normalizer: events.NewNormalizer(tables, pvp.NewCalculator(tables), clock),
		Cache:      mem,
		Clock:      clock,
		Logger:     logger,
		Metrics:    engine.NewMetrics(reg),
		Workers:    cfg.Engine.Workers,
		Observer:   observer,
	})
	eng.Swap(gen)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchReload(ctx, eng, rules, logger)

	var flushDone chan struct{}
	if store != nil {
		flushDone = make(chan struct{})
		go func() {
			defer close(flushDone)
			flushLoop(ctx, store, mem, saved, cfg.Cache.FlushInterval, logger)
		}()
	}

	var httpServer *http.Server
	if cfg.Server.MetricsAddr != "" {
		httpServer = startOpsServer(cfg.Server.MetricsAddr, newRouter(eng, reg, cfg.Build), logger)
	}

	input, closeInput, err := openInput(cfg.Input.Path)
	if err != nil {
		return err
	}
	defer closeInput()

	p := &pipeline{engine: eng, clock: clock, loc: loc, logger: logger}
	readErr := p.consume(ctx, input)
	if readErr != nil && !errors.Is(readErr, context.Canceled) {
		logger.Error("input stopped", "error", readErr)
	}
	stop()

	if flushDone != nil {
		<-flushDone
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
	}

	logger.Info("pokewatch stopped",
		"lines", p.lines, "messages", p.messages, "matched", p.matched, "rejected", p.failed)
	if readErr != nil && !errors.Is(readErr, context.Canceled) {
		return fmt.Errorf("reading input: %w", readErr)
	}
	return nil
}

// openInput opens path, or stdin when path is empty.
func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger.With returns *slog.Logger, not types.Logger, so an adapter is
// necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.logger.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

// newLogger creates a structured JSON slog.Logger for the given log level.
func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

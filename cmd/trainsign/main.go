// Package main is the entry point for the trainsign arrival display.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/randytsao24/trainsign/internal/api"
	"github.com/randytsao24/trainsign/internal/clock"
	"github.com/randytsao24/trainsign/internal/config"
	"github.com/randytsao24/trainsign/internal/device"
	"github.com/randytsao24/trainsign/internal/display"
	"github.com/randytsao24/trainsign/internal/refresh"
	"github.com/randytsao24/trainsign/internal/transit"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("sign stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("sign stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	background, err := display.LoadBackground(cfg.BackgroundImage)
	if err != nil {
		return err
	}

	var (
		sinks   []display.Sink
		closers []device.Closer
		store   *api.BoardStore
	)

	if cfg.OLEDBus != "" {
		oled, err := display.OpenOLED(cfg.OLEDBus)
		if err != nil {
			return err
		}
		defer oled.Close()
		sinks = append(sinks, oled)
		closers = append(closers, oled)
	}
	if cfg.FramePath != "" {
		sinks = append(sinks, display.NewPNGSink(cfg.FramePath))
	}
	if cfg.StatusAddr != "" {
		store = api.NewBoardStore(4 * cfg.UpdateInterval)
		sinks = append(sinks, store)
	}
	if len(sinks) == 0 {
		logger.Warn("no display outputs configured; set OLED_I2C_BUS, FRAME_PATH or STATUS_ADDR")
	}

	panel := display.NewPanel(display.DefaultLayout(background, cfg.StationLabel), logger, sinks...)
	if err := panel.Present(); err != nil {
		logger.Warn("initial frame not shown", "error", err)
	}

	source, err := newSource(cfg)
	if err != nil {
		return err
	}

	if store != nil {
		go serveStatus(ctx, cfg.StatusAddr, store, logger)
	}

	logger.Info("trainsign starting",
		"env", cfg.Env,
		"stop", cfg.StopID,
		"source", source.Name(),
		"update_interval", cfg.UpdateInterval.String(),
		"sync_interval", cfg.SyncInterval.String(),
	)

	wallClock := clock.NewNTPClock(cfg.NTPServer, cfg.Location(), cfg.HTTPTimeout)

	loop := refresh.New(refresh.Config{
		UpdateInterval: cfg.UpdateInterval,
		SyncInterval:   cfg.SyncInterval,
		ResetThreshold: cfg.ResetThreshold,
	}, refresh.Deps{
		Syncer:    wallClock,
		Clock:     wallClock,
		Monotonic: clock.NewMonotonic(),
		Fetcher:   transit.NewFetcher(source, cfg.MinimumMinutes, logger),
		Renderer:  panel,
		Resetter:  device.NewExitResetter(logger, closers...),
		Logger:    logger,
	})

	return loop.Run(ctx)
}

func newSource(cfg *config.Config) (transit.Source, error) {
	switch cfg.Source {
	case config.SourceJSON:
		return transit.NewJSONSource(cfg.DataSourceURL, cfg.HTTPTimeout), nil
	case config.SourceGTFSRT:
		return transit.NewGTFSSource(cfg.GTFSFeedURL, cfg.StopID, cfg.Location(), cfg.HTTPTimeout), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// serveStatus runs the status API until ctx is done
func serveStatus(ctx context.Context, addr string, store *api.BoardStore, logger *slog.Logger) {
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(store, 10*time.Second, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown", "error", err)
		}
	}()

	logger.Info("status server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("status server failed", "error", err)
	}
}

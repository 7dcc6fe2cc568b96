package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	nethttp "net/http"
	"time"

	"planetfall/internal/net/server"
	"planetfall/internal/observability"
	"planetfall/internal/telemetry"
)

// RunServer hosts the authoritative simulation until ctx is cancelled.
func RunServer(ctx context.Context) error {
	cfg, err := LoadServerConfig()
	if err != nil {
		return err
	}

	router, logCloser, err := newRouter(cfg.LogJSONPath, cfg.LogDebug)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			log.Printf("failed to close logging router: %v", cerr)
		}
		if logCloser != nil {
			logCloser.Close()
		}
	}()

	logger := telemetry.WrapLogger(log.Default())
	metrics := telemetry.NewPromMetrics(nil, "planetfall")

	hub, err := server.NewHub(server.HubConfig{
		Addr:             cfg.Addr,
		Seed:             cfg.Seed,
		MaxClients:       cfg.MaxClients,
		AIFactions:       cfg.AIFactions,
		TickRate:         cfg.TickRate,
		SnapshotInterval: cfg.SnapshotTicks,
		PlanetCount:      cfg.PlanetCount,
		ClientTimeout:    cfg.ClientTimeout,
		Logger:           logger,
		Metrics:          metrics,
		Publisher:        router,
	})
	if err != nil {
		return fmt.Errorf("hub setup: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(stop)
	}()

	handler := server.NewHTTPHandler(hub, server.HTTPHandlerConfig{
		Logger: logger,
		Observability: observability.Config{
			EnableObserverFeed: cfg.ObserverFeed,
			EnableMetrics:      cfg.Metrics,
		},
		Registry:    metrics.Registry(),
		RouterStats: router.Stats,
	})
	srv := &nethttp.Server{Addr: cfg.HTTPAddr, Handler: handler}

	httpErr := make(chan error, 1)
	go func() {
		logger.Printf("diagnostics listening on %s", cfg.HTTPAddr)
		httpErr <- srv.ListenAndServe()
	}()
	logger.Printf("serving on %s seed=%q slots=%d ai=%d", hub.LocalAddr(), cfg.Seed, cfg.MaxClients, cfg.AIFactions)

	select {
	case <-ctx.Done():
	case err := <-httpErr:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			close(stop)
			<-done
			return fmt.Errorf("diagnostics server failed: %w", err)
		}
	}

	close(stop)
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	return nil
}

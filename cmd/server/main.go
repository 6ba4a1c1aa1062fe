// Command server runs the dataflow execution engine as a long-lived
// process: it loads a graph, drives it on a tick cadence, and exposes the
// websocket state-change stream to the UI. There is no REST project CRUD
// surface here (spec §1 Non-goals) — just the engine loop and the
// downstream observer interface.
//
// Grounded on the teacher's cmd/server/main.go (flag parsing, graceful
// shutdown over SIGINT/SIGTERM, structured startup logging), with the
// REST API server, Bun/Postgres storage, and schema init removed since
// they are out of scope.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bacflow/dataflow/internal/config"
	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/logging"
	"github.com/bacflow/dataflow/internal/metrics"
	"github.com/bacflow/dataflow/internal/observer"
	"github.com/bacflow/dataflow/pkg/dataflow"
)

func main() {
	var (
		observerAddr = flag.String("observer-addr", "", "Observer websocket bind address (overrides config)")
		graphPath    = flag.String("graph", "", "Path to a serialized graph JSON file to load at startup")
		noAuth       = flag.Bool("no-auth", false, "Disable JWT auth on the observer endpoint (development only)")
	)
	flag.Parse()

	cfg := config.Load()
	if *observerAddr != "" {
		cfg.ObserverAddr = *observerAddr
	}

	logging.Init(cfg.LogLevel, true)
	log.Info().Str("observer_addr", cfg.ObserverAddr).Msg("starting dataflow engine")

	collector := metrics.New()
	engine := dataflow.NewEngine(domain.NoopFieldWriteSink{}).
		WithMetrics(collector).
		WithTracing(cfg.EnableTracing)

	if *graphPath != "" {
		data, err := os.ReadFile(*graphPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *graphPath).Msg("failed to read graph file")
		}
		if err := engine.LoadJSON(data); err != nil {
			log.Fatal().Err(err).Msg("failed to load graph")
		}
		log.Info().Str("path", *graphPath).Msg("graph loaded")
	}

	hub := observer.NewHub()
	hubStop := make(chan struct{})
	go hub.Run(hubStop)

	var auth observer.Authenticator = observer.NewNoAuth()
	if !*noAuth {
		if secret := os.Getenv("OBSERVER_JWT_SECRET"); secret != "" {
			auth = observer.NewJWTAuth(secret)
		} else {
			log.Warn().Msg("OBSERVER_JWT_SECRET unset; falling back to unauthenticated observer access")
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/observe", observer.NewHandler(hub, auth))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"tick":   collector.Tick(),
			"byKind": collector.ByKind(),
		})
	})

	httpServer := &http.Server{
		Addr:         cfg.ObserverAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", httpServer.Addr).Msg("observer server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("observer server failed")
		}
	}()

	ctx, cancelTick := context.WithCancel(context.Background())
	go runTickLoop(ctx, engine, time.Duration(cfg.DefaultTickIntervalMs)*time.Millisecond)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancelTick()
	engine.Stop()
	close(hubStop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("observer server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("shut down gracefully")
}

func runTickLoop(ctx context.Context, engine *dataflow.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := engine.Tick(ctx); err != nil {
				log.Warn().Err(err).Msg("tick failed")
			}
		}
	}
}

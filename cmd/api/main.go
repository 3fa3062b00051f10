package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "reviews_widget/internal/adapters/http_server"
	"reviews_widget/internal/adapters/memory"
	"reviews_widget/internal/adapters/observability"
	"reviews_widget/internal/adapters/places"
	"reviews_widget/internal/app"
	"reviews_widget/internal/shared"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// deps
	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS, cfg.ProviderTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Places client")
	}
	store := memory.New(cfg.CacheStaleAfter, time.Now)
	biz := app.Business{Name: cfg.BusinessName, Location: cfg.BusinessLocation}
	resolver := app.NewResolver(client, store)
	refresher := app.NewRefresher(biz, resolver, app.NewFetcher(client), store,
		cfg.RefreshTimeout, time.Now, log.Logger)
	q := app.NewQueryService(store, refresher, time.Now, log.Logger)

	sched, err := app.NewScheduler(refresher, cfg.RefreshSchedule, time.Local, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid refresh schedule")
	}

	// http
	h := &server.Handlers{Q: q}
	if observability.IsDev(cfg.AppEnv) {
		h.Debug = app.NewDiagnostics(biz, resolver, q, cfg.PlacesKey,
			app.DebugEnv{AppEnv: cfg.AppEnv, HTTPAddr: cfg.HTTPAddr})
	}
	srv := server.New(log.Logger, cfg.RequestTimeout, cfg.CORSOrigins)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(h)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Start()

	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("business", biz.Name).
			Str("location", biz.Location).
			Dur("stale_after", cfg.CacheStaleAfter).
			Str("schedule", cfg.RefreshSchedule).
			Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RefreshTimeout+5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown")
	}
}

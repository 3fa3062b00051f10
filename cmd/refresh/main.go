// Command refresh runs one refresh against the provider and prints the
// resulting snapshot. Useful to check a key and business query before
// deploying.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"reviews_widget/internal/adapters/memory"
	"reviews_widget/internal/adapters/observability"
	"reviews_widget/internal/adapters/places"
	"reviews_widget/internal/app"
	"reviews_widget/internal/domain"
	"reviews_widget/internal/shared"
)

func main() {
	probe := flag.Bool("probe", false, "only run the business lookup and print the raw probe result")
	flag.Parse()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.PlacesBase).
		Str("business", cfg.BusinessName).
		Str("location", cfg.BusinessLocation).
		Msg("refresh starting")

	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS, cfg.ProviderTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Places client")
	}
	store := memory.New(cfg.CacheStaleAfter, time.Now)
	biz := app.Business{Name: cfg.BusinessName, Location: cfg.BusinessLocation}
	resolver := app.NewResolver(client, store)

	ctx, cancel := context.WithTimeout(context.Background(), callerTimeout(cfg.RefreshTimeout))
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *probe {
		if err := enc.Encode(resolver.Probe(ctx, biz.Name, biz.Location)); err != nil {
			log.Fatal().Err(err).Msg("encode probe")
		}
		return
	}

	refresher := app.NewRefresher(biz, resolver, app.NewFetcher(client), store,
		cfg.RefreshTimeout, time.Now, log.Logger)
	st, err := refresher.Refresh(ctx, app.TriggerManual)
	if err != nil {
		log.Fatal().Err(err).Msg("refresh failed")
	}

	out := struct {
		PlaceID     string                   `json:"placeId"`
		LastUpdated time.Time                `json:"lastUpdated"`
		Snapshot    *domain.BusinessSnapshot `json:"data"`
	}{
		LastUpdated: *st.LastUpdated,
		Snapshot:    st.Snapshot,
	}
	if st.Identifier != nil {
		out.PlaceID = string(*st.Identifier)
	}
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("encode snapshot")
	}
	log.Info().Int("reviews", len(st.Snapshot.Reviews)).Msg("refresh completed")
}

// callerTimeout outlasts the refresher's own deadline so the refresh error,
// not the caller's, is what gets reported.
func callerTimeout(refresh time.Duration) time.Duration {
	return refresh + 5*time.Second
}

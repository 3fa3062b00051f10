package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"reviews_widget/internal/adapters/observability"
	"reviews_widget/internal/domain"
)

type Trigger string

const (
	TriggerStartup   Trigger = "startup"
	TriggerSchedule  Trigger = "schedule"
	TriggerStaleRead Trigger = "stale_read"
	TriggerManual    Trigger = "manual"
)

// every refresh shares one flight: there is only one business
const refreshKey = "snapshot"

const DefaultRefreshTimeout = 25 * time.Second

// Business names what we look up at the provider.
type Business struct {
	Name     string
	Location string
}

// Refresher runs resolve → fetch → write as one operation. At most one runs
// at a time; callers arriving while one is in flight wait for it and get its
// result. The store is only written after a fetch succeeds.
type Refresher struct {
	biz      Business
	resolver *Resolver
	fetcher  *Fetcher
	store    domain.SnapshotStore
	now      func() time.Time
	timeout  time.Duration
	log      zerolog.Logger

	group singleflight.Group
}

func NewRefresher(
	biz Business,
	res *Resolver,
	f *Fetcher,
	store domain.SnapshotStore,
	timeout time.Duration,
	now func() time.Time,
	logger zerolog.Logger,
) *Refresher {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Refresher{
		biz:      biz,
		resolver: res,
		fetcher:  f,
		store:    store,
		now:      now,
		timeout:  timeout,
		log:      logger.With().Str("component", "Refresher").Logger(),
	}
}

// Refresh always fetches unless it joins a refresh already in flight.
func (r *Refresher) Refresh(ctx context.Context, trigger Trigger) (domain.CacheState, error) {
	return r.do(ctx, trigger, true)
}

// RefreshIfStale re-checks staleness once it holds the flight, so a caller
// that lost the race to a just-finished refresh doesn't fetch again.
func (r *Refresher) RefreshIfStale(ctx context.Context, trigger Trigger) (domain.CacheState, error) {
	return r.do(ctx, trigger, false)
}

func (r *Refresher) do(ctx context.Context, trigger Trigger, force bool) (domain.CacheState, error) {
	// The refresh outlives the caller that started it; other callers may be
	// waiting on it.
	runCtx := context.WithoutCancel(ctx)

	ch := r.group.DoChan(refreshKey, func() (any, error) {
		if !force && !r.store.IsStale(r.now()) {
			r.log.Debug().Str("trigger", string(trigger)).Msg("cache fresh, refresh skipped")
			return r.store.Read(), nil
		}
		return r.run(runCtx, trigger)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.CacheState{}, res.Err
		}
		return res.Val.(domain.CacheState), nil
	case <-ctx.Done():
		return domain.CacheState{}, ctx.Err()
	}
}

func (r *Refresher) run(ctx context.Context, trigger Trigger) (domain.CacheState, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	runID := uuid.NewString()
	l := r.log.With().Str("run_id", runID).Str("trigger", string(trigger)).Logger()
	start := time.Now()
	l.Info().Msg("refresh starting")

	state, err := r.refresh(ctx)
	dur := time.Since(start)
	observability.ObserveRefresh(string(trigger), outcome(err), dur, r.now())
	if err != nil {
		l.Error().Err(err).
			Str("err_type", observability.LabelErr(err)).
			Dur("duration", dur).
			Msg("refresh failed; cache left unchanged")
		return domain.CacheState{}, err
	}

	l.Info().
		Str("business", state.Snapshot.Name).
		Int("reviews", len(state.Snapshot.Reviews)).
		Dur("duration", dur).
		Msg("refresh ok")
	return state, nil
}

func (r *Refresher) refresh(ctx context.Context) (domain.CacheState, error) {
	id, err := r.resolver.Resolve(ctx, r.biz.Name, r.biz.Location)
	if err != nil {
		return domain.CacheState{}, fmt.Errorf("resolve business: %w", err)
	}
	snap, err := r.fetcher.FetchSnapshot(ctx, id)
	if err != nil {
		return domain.CacheState{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	return r.store.Write(snap), nil
}

func outcome(err error) string {
	var (
		pe *domain.ProviderError
		te *domain.TransportError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.As(err, &pe):
		return "provider_error"
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return "transport_error"
	default:
		return "error"
	}
}

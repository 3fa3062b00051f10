package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"reviews_widget/internal/domain"
)

type snapshotRefresher interface {
	RefreshIfStale(ctx context.Context, trigger Trigger) (domain.CacheState, error)
}

// ReviewsResult is what the read API hands to the presentation layer.
// Stale is set when a refresh failed and the previous snapshot is served.
type ReviewsResult struct {
	Snapshot    domain.BusinessSnapshot
	LastUpdated time.Time
	Stale       bool
	Warning     string
}

type QueryService struct {
	store     domain.SnapshotStore
	refresher snapshotRefresher
	now       func() time.Time
	log       zerolog.Logger
}

func NewQueryService(s domain.SnapshotStore, r snapshotRefresher, now func() time.Time, logger zerolog.Logger) *QueryService {
	if now == nil {
		now = time.Now
	}
	return &QueryService{
		store:     s,
		refresher: r,
		now:       now,
		log:       logger.With().Str("component", "QueryService").Logger(),
	}
}

// GetReviews serves the cached snapshot, refreshing inline first when it is
// stale. A failed refresh falls back to the old snapshot if there is one;
// with nothing cached the error is returned.
func (s *QueryService) GetReviews(ctx context.Context) (ReviewsResult, error) {
	// once populated the snapshot never goes away, so a fresh check followed
	// by a read always yields one
	if !s.store.IsStale(s.now()) {
		if st := s.store.Read(); st.Populated() {
			return resultFrom(st), nil
		}
	}

	fresh, err := s.refresher.RefreshIfStale(ctx, TriggerStaleRead)
	if err == nil {
		if !fresh.Populated() {
			return ReviewsResult{}, &domain.NotFoundError{Op: "get reviews", Detail: "cache empty after refresh"}
		}
		return resultFrom(fresh), nil
	}

	// re-read: another refresh may have landed while ours failed
	if cur := s.store.Read(); cur.Populated() {
		s.log.Warn().Err(err).
			Dur("age", cur.Age(s.now())).
			Msg("refresh failed, serving stale snapshot")
		res := resultFrom(cur)
		res.Stale = true
		res.Warning = err.Error()
		return res, nil
	}
	return ReviewsResult{}, err
}

// Status is the read-only view for health checks. It never triggers a
// refresh and is not counted as a cache read.
func (s *QueryService) Status() domain.CacheStatus {
	st := s.store.Peek()
	return domain.CacheStatus{
		Populated:     st.Populated(),
		Stale:         s.store.IsStale(s.now()),
		HasIdentifier: st.Identifier != nil,
		LastUpdated:   st.LastUpdated,
	}
}

func resultFrom(st domain.CacheState) ReviewsResult {
	res := ReviewsResult{Snapshot: *st.Snapshot}
	if st.LastUpdated != nil {
		res.LastUpdated = *st.LastUpdated
	}
	return res
}

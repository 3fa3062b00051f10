package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviews_widget/internal/app"
	"reviews_widget/internal/domain"
)

func TestRefresher_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("Success writes the snapshot and stamps now", func(t *testing.T) {
		f := newFixture(&stubPlaces{findResp: findOK("place-1"), detailsResp: detailsOK("Spartan", 3)})

		st, err := f.refresher.Refresh(ctx, app.TriggerManual)
		require.NoError(t, err)
		require.True(t, st.Populated())
		assert.Equal(t, "Spartan", st.Snapshot.Name)
		require.NotNil(t, st.LastUpdated)
		assert.Equal(t, f.clock.Now(), *st.LastUpdated)
		assert.False(t, f.store.IsStale(f.clock.Now()))
	})

	t.Run("Failed fetch leaves the old snapshot in place", func(t *testing.T) {
		f := newFixture(&stubPlaces{findResp: findOK("place-1"), detailsResp: detailsOK("Old Name", 2)})
		_, err := f.refresher.Refresh(ctx, app.TriggerStartup)
		require.NoError(t, err)
		before := f.store.Read()

		f.clock.Advance(25 * time.Hour)
		f.places.setDetails(nil, &domain.TransportError{Op: "details", Err: errors.New("timeout")})

		_, err = f.refresher.Refresh(ctx, app.TriggerSchedule)
		require.Error(t, err)
		var te *domain.TransportError
		assert.ErrorAs(t, err, &te)

		after := f.store.Read()
		require.True(t, after.Populated())
		assert.Equal(t, "Old Name", after.Snapshot.Name)
		assert.Equal(t, *before.LastUpdated, *after.LastUpdated)
	})

	t.Run("Resolve failure never reaches the detail endpoint", func(t *testing.T) {
		f := newFixture(&stubPlaces{findResp: map[string]any{"candidates": []any{}}})
		_, err := f.refresher.Refresh(ctx, app.TriggerStartup)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, int32(0), f.places.detailsCalls.Load())
		assert.False(t, f.store.Read().Populated())
	})

	t.Run("Identifier is resolved once across refreshes", func(t *testing.T) {
		f := newFixture(&stubPlaces{findResp: findOK("place-1"), detailsResp: detailsOK("Spartan", 1)})
		for i := 0; i < 3; i++ {
			_, err := f.refresher.Refresh(ctx, app.TriggerSchedule)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), f.places.findCalls.Load())
		assert.Equal(t, int32(3), f.places.detailsCalls.Load())
	})
}

func TestRefresher_RefreshIfStale(t *testing.T) {
	ctx := context.Background()

	t.Run("Fresh cache is a no-op", func(t *testing.T) {
		f := newFixture(&stubPlaces{findResp: findOK("place-1"), detailsResp: detailsOK("Spartan", 1)})
		_, err := f.refresher.Refresh(ctx, app.TriggerStartup)
		require.NoError(t, err)

		st, err := f.refresher.RefreshIfStale(ctx, app.TriggerStaleRead)
		require.NoError(t, err)
		assert.True(t, st.Populated())
		assert.Equal(t, int32(1), f.places.detailsCalls.Load())
	})

	t.Run("Concurrent callers share one fetch", func(t *testing.T) {
		gate := make(chan struct{})
		f := newFixture(&stubPlaces{findResp: findOK("place-1"), detailsResp: detailsOK("Spartan", 1), detailsGate: gate})

		const callers = 8
		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.refresher.RefreshIfStale(ctx, app.TriggerStaleRead)
			}(i)
		}

		require.Eventually(t, func() bool { return f.places.detailsCalls.Load() == 1 },
			time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond) // let the rest pile up behind the flight
		close(gate)
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, int32(1), f.places.detailsCalls.Load())
	})

	t.Run("Caller giving up does not cancel the refresh", func(t *testing.T) {
		gate := make(chan struct{})
		f := newFixture(&stubPlaces{findResp: findOK("place-1"), detailsResp: detailsOK("Spartan", 1), detailsGate: gate})

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := f.refresher.RefreshIfStale(cctx, app.TriggerStaleRead)
			done <- err
		}()
		require.Eventually(t, func() bool { return f.places.detailsCalls.Load() == 1 },
			time.Second, 5*time.Millisecond)

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)

		close(gate)
		require.Eventually(t, func() bool { return f.store.Read().Populated() },
			time.Second, 5*time.Millisecond)
	})
}

func TestRefresher_Timeout(t *testing.T) {
	gate := make(chan struct{})
	t.Cleanup(func() { close(gate) })
	f := newFixtureWithTimeout(&stubPlaces{findResp: findOK("place-1"), detailsGate: gate}, 20*time.Millisecond)

	start := time.Now()
	_, err := f.refresher.Refresh(context.Background(), app.TriggerManual)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, f.store.Read().Populated())
	assert.Nil(t, f.store.Read().LastUpdated)
}

package app_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"reviews_widget/internal/adapters/memory"
	"reviews_widget/internal/app"
)

// ---- fakes ----

type stubPlaces struct {
	findCalls    atomic.Int32
	detailsCalls atomic.Int32

	mu          sync.Mutex
	findResp    map[string]any
	findErr     error
	detailsResp map[string]any
	detailsErr  error
	// when set, PlaceDetails blocks until it is closed or ctx ends
	detailsGate chan struct{}
}

func (s *stubPlaces) FindPlace(ctx context.Context, input string, fields []string) (map[string]any, error) {
	s.findCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findResp, s.findErr
}

func (s *stubPlaces) PlaceDetails(ctx context.Context, placeID string, fields []string) (map[string]any, error) {
	s.detailsCalls.Add(1)
	if s.detailsGate != nil {
		select {
		case <-s.detailsGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detailsResp, s.detailsErr
}

func (s *stubPlaces) setDetails(resp map[string]any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailsResp, s.detailsErr = resp, err
}

// fakeClock is a settable clock shared by the store and the services.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock { return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// ---- payload builders (shaped like decoded Places JSON) ----

func findOK(placeID string) map[string]any {
	return map[string]any{
		"status": "OK",
		"candidates": []any{
			map[string]any{"place_id": placeID, "name": "Spartan Exteriors", "formatted_address": "Sewell, NJ"},
		},
	}
}

func detailsOK(name string, nReviews int) map[string]any {
	reviews := make([]any, 0, nReviews)
	for i := 0; i < nReviews; i++ {
		reviews = append(reviews, map[string]any{
			"author_name":               fmt.Sprintf("author-%d", i),
			"author_url":                fmt.Sprintf("https://maps.example/u/%d", i),
			"profile_photo_url":         "https://img.example/p.png",
			"rating":                    float64(5 - i%5),
			"relative_time_description": "a week ago",
			"text":                      fmt.Sprintf("review %d", i),
			"time":                      float64(1700000000 - i),
		})
	}
	return map[string]any{
		"status": "OK",
		"result": map[string]any{
			"name":               name,
			"rating":             4.8,
			"user_ratings_total": float64(123),
			"formatted_address":  "1 Main St, Sewell, NJ 08080, USA",
			"website":            "https://spartan.example",
			"reviews":            reviews,
		},
	}
}

type fixture struct {
	places    *stubPlaces
	clock     *fakeClock
	store     *memory.Store
	refresher *app.Refresher
	queries   *app.QueryService
}

func newFixture(p *stubPlaces) *fixture {
	return newFixtureWithTimeout(p, 5*time.Second)
}

func newFixtureWithTimeout(p *stubPlaces, refreshTimeout time.Duration) *fixture {
	clk := newClock()
	store := memory.New(24*time.Hour, clk.Now)
	biz := app.Business{Name: "Spartan Exteriors", Location: "Sewell NJ"}
	ref := app.NewRefresher(biz,
		app.NewResolver(p, store), app.NewFetcher(p), store,
		refreshTimeout, clk.Now, zerolog.Nop())
	return &fixture{
		places:    p,
		clock:     clk,
		store:     store,
		refresher: ref,
		queries:   app.NewQueryService(store, ref, clk.Now, zerolog.Nop()),
	}
}

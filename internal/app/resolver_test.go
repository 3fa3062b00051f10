package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviews_widget/internal/adapters/memory"
	"reviews_widget/internal/app"
	"reviews_widget/internal/domain"
)

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Memoizes the first candidate", func(t *testing.T) {
		p := &stubPlaces{findResp: findOK("place-1")}
		store := memory.New(24*time.Hour, nil)
		r := app.NewResolver(p, store)

		id, err := r.Resolve(ctx, "Spartan Exteriors", "Sewell NJ")
		require.NoError(t, err)
		assert.Equal(t, domain.BusinessIdentifier("place-1"), id)

		id, err = r.Resolve(ctx, "Spartan Exteriors", "Sewell NJ")
		require.NoError(t, err)
		assert.Equal(t, domain.BusinessIdentifier("place-1"), id)
		assert.Equal(t, int32(1), p.findCalls.Load(), "lookup must happen at most once")

		memo, ok := store.Identifier()
		require.True(t, ok)
		assert.Equal(t, id, memo)
	})

	t.Run("Zero candidates is NotFound", func(t *testing.T) {
		p := &stubPlaces{findResp: map[string]any{"status": "ZERO_RESULTS", "candidates": []any{}}}
		store := memory.New(0, nil)
		r := app.NewResolver(p, store)

		_, err := r.Resolve(ctx, "Nobody", "Nowhere")
		require.Error(t, err)
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, ok := store.Identifier()
		assert.False(t, ok, "failed lookups are not memoized")
	})

	t.Run("Candidate without place_id is NotFound", func(t *testing.T) {
		p := &stubPlaces{findResp: map[string]any{"candidates": []any{map[string]any{"name": "x"}}}}
		_, err := app.NewResolver(p, memory.New(0, nil)).Resolve(ctx, "a", "b")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("In-band error message is ProviderError", func(t *testing.T) {
		p := &stubPlaces{findResp: map[string]any{
			"status":        "REQUEST_DENIED",
			"error_message": "The provided API key is invalid.",
			"candidates":    []any{},
		}}
		_, err := app.NewResolver(p, memory.New(0, nil)).Resolve(ctx, "a", "b")

		var pe *domain.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "The provided API key is invalid.", pe.Message)
		assert.Equal(t, "REQUEST_DENIED", pe.Status)
	})

	t.Run("Transport errors pass through", func(t *testing.T) {
		cause := errors.New("connection refused")
		p := &stubPlaces{findErr: &domain.TransportError{Op: "findplacefromtext", Err: cause}}
		_, err := app.NewResolver(p, memory.New(0, nil)).Resolve(ctx, "a", "b")

		var te *domain.TransportError
		require.ErrorAs(t, err, &te)
		assert.ErrorIs(t, err, cause)
	})
}

func TestResolver_ProbeDoesNotMemoize(t *testing.T) {
	p := &stubPlaces{findResp: findOK("place-1")}
	store := memory.New(0, nil)
	r := app.NewResolver(p, store)

	res := r.Probe(context.Background(), "Spartan Exteriors", "Sewell NJ")
	assert.True(t, res.Success)
	assert.Equal(t, "OK", res.Status)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, "place-1", res.FirstCandidate["place_id"])

	_, ok := store.Identifier()
	assert.False(t, ok)
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "Spartan Exteriors Sewell NJ", app.SearchQuery(" Spartan Exteriors ", "Sewell NJ"))
	assert.Equal(t, "Spartan Exteriors", app.SearchQuery("Spartan Exteriors", ""))
}

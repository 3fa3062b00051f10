package domain

import (
	"context"
	"time"
)

// PlacesClient is the provider boundary. Responses are the decoded JSON
// bodies; in-band errors (error_message, status) are left for the caller.
type PlacesClient interface {
	FindPlace(ctx context.Context, input string, fields []string) (map[string]any, error)
	PlaceDetails(ctx context.Context, placeID string, fields []string) (map[string]any, error)
}

// SnapshotStore owns the single process-wide CacheState.
type SnapshotStore interface {
	// Read never blocks on a refresh and always succeeds.
	Read() CacheState
	// Peek is Read without the cache hit/miss accounting, for status views.
	Peek() CacheState
	// Write replaces the snapshot and stamps the refresh time.
	Write(s BusinessSnapshot) CacheState
	IsStale(now time.Time) bool

	Identifier() (BusinessIdentifier, bool)
	SetIdentifier(id BusinessIdentifier)
}

// CacheStatus is the read-only view served by health checks.
type CacheStatus struct {
	Populated     bool
	Stale         bool
	HasIdentifier bool
	LastUpdated   *time.Time
}

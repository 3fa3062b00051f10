package app

import (
	"context"
	"strings"

	"reviews_widget/internal/domain"
)

var findPlaceFields = []string{"place_id", "name", "formatted_address"}

// Resolver maps the configured business name to its Places place_id and
// memoizes the answer in the store for the life of the process.
type Resolver struct {
	places domain.PlacesClient
	store  domain.SnapshotStore
}

func NewResolver(p domain.PlacesClient, s domain.SnapshotStore) *Resolver {
	return &Resolver{places: p, store: s}
}

func (r *Resolver) Resolve(ctx context.Context, name, location string) (domain.BusinessIdentifier, error) {
	if id, ok := r.store.Identifier(); ok {
		return id, nil
	}

	resp, err := r.places.FindPlace(ctx, SearchQuery(name, location), findPlaceFields)
	if err != nil {
		return "", err
	}
	if err := inBandError("find place", resp); err != nil {
		return "", err
	}
	candidates := lookupMaps(resp, "candidates")
	if len(candidates) == 0 {
		return "", &domain.NotFoundError{Op: "find place", Detail: "no candidates returned"}
	}
	placeID := lookupStr(candidates[0], "place_id")
	if placeID == "" {
		return "", &domain.NotFoundError{Op: "find place", Detail: "candidate has no place_id"}
	}

	id := domain.BusinessIdentifier(placeID)
	r.store.SetIdentifier(id)
	return id, nil
}

// ProbeResult is the outcome of a lookup that bypasses the memo.
type ProbeResult struct {
	Success        bool           `json:"success"`
	Status         string         `json:"status,omitempty"`
	ErrorMessage   string         `json:"errorMessage,omitempty"`
	Candidates     int            `json:"candidates"`
	FirstCandidate map[string]any `json:"firstCandidate,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Probe runs the lookup without touching the store. Used by diagnostics to
// check the credential and query.
func (r *Resolver) Probe(ctx context.Context, name, location string) ProbeResult {
	resp, err := r.places.FindPlace(ctx, SearchQuery(name, location), []string{"place_id", "name"})
	if err != nil {
		return ProbeResult{Error: err.Error()}
	}
	out := ProbeResult{
		Success:      true,
		Status:       lookupStr(resp, "status"),
		ErrorMessage: lookupStr(resp, "error_message"),
	}
	candidates := lookupMaps(resp, "candidates")
	out.Candidates = len(candidates)
	if len(candidates) > 0 {
		out.FirstCandidate = candidates[0]
	}
	return out
}

func SearchQuery(name, location string) string {
	return strings.TrimSpace(strings.TrimSpace(name) + " " + strings.TrimSpace(location))
}

package app

import (
	"context"

	"reviews_widget/internal/domain"
)

var detailFields = []string{"name", "rating", "user_ratings_total", "reviews", "formatted_address", "website"}

// Fetcher pulls place details and normalizes them into a snapshot. It has no
// access to the store; the Refresher decides what to do with the result.
type Fetcher struct {
	places domain.PlacesClient
}

func NewFetcher(p domain.PlacesClient) *Fetcher { return &Fetcher{places: p} }

func (f *Fetcher) FetchSnapshot(ctx context.Context, id domain.BusinessIdentifier) (domain.BusinessSnapshot, error) {
	resp, err := f.places.PlaceDetails(ctx, string(id), detailFields)
	if err != nil {
		return domain.BusinessSnapshot{}, err
	}
	if err := inBandError("place details", resp); err != nil {
		return domain.BusinessSnapshot{}, err
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		return domain.BusinessSnapshot{}, &domain.NotFoundError{Op: "place details", Detail: "no result in response"}
	}
	return mapSnapshot(result), nil
}

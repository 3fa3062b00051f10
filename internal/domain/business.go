package domain

import "time"

// BusinessIdentifier is the provider's stable id for the business (a Places place_id).
type BusinessIdentifier string

// BusinessSnapshot is replaced wholesale on every successful refresh and is
// never mutated after construction.
type BusinessSnapshot struct {
	Name        string
	Rating      *float64
	RatingCount *int64
	Address     string
	Website     *string
	Reviews     []Review // provider order, at most MaxReviews
}

// MaxReviews caps how many reviews a snapshot keeps.
const MaxReviews = 5

// CacheState is what the store hands to readers. Snapshot and LastUpdated are
// nil until the first successful refresh.
type CacheState struct {
	Snapshot    *BusinessSnapshot
	LastUpdated *time.Time
	Identifier  *BusinessIdentifier
}

func (s CacheState) Populated() bool { return s.Snapshot != nil }

// Stale reports whether the snapshot is missing or older than maxAge at now.
func (s CacheState) Stale(now time.Time, maxAge time.Duration) bool {
	if s.Snapshot == nil || s.LastUpdated == nil {
		return true
	}
	return now.Sub(*s.LastUpdated) > maxAge
}

// Age returns zero for a state that was never written.
func (s CacheState) Age(now time.Time) time.Duration {
	if s.LastUpdated == nil {
		return 0
	}
	return now.Sub(*s.LastUpdated)
}

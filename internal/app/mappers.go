package app

import (
	"math"
	"strconv"
	"strings"

	"reviews_widget/internal/domain"
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// lookupMaps returns the objects in the array at path, skipping anything else.
func lookupMaps(m map[string]any, path string) []map[string]any {
	raw, ok := lookupAny(m, path).([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// getFloatFlexible: finite number at path (float64/int/string like "4,5").
// NaN and ±Inf count as absent.
func getFloatFlexible(m map[string]any, path string) *float64 {
	var f float64
	switch v := lookupAny(m, path).(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// getInt64Flexible: int64 at path (float64/int/string).
func getInt64Flexible(m map[string]any, path string) *int64 {
	switch v := lookupAny(m, path).(type) {
	case float64:
		x := int64(v)
		return &x
	case int:
		x := int64(v)
		return &x
	case int64:
		x := v
		return &x
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

// inBandError turns a Places error_message into a ProviderError.
func inBandError(op string, resp map[string]any) error {
	msg := lookupStr(resp, "error_message")
	if msg == "" {
		return nil
	}
	return &domain.ProviderError{Op: op, Status: lookupStr(resp, "status"), Message: msg}
}

/********** snapshot mapper **********/

func mapSnapshot(result map[string]any) domain.BusinessSnapshot {
	reviews := lookupMaps(result, "reviews")
	if len(reviews) > domain.MaxReviews {
		reviews = reviews[:domain.MaxReviews]
	}
	out := domain.BusinessSnapshot{
		Name:        lookupStr(result, "name"),
		Rating:      clampRatingPtr(getFloatFlexible(result, "rating")),
		RatingCount: getInt64Flexible(result, "user_ratings_total"),
		Address:     lookupStr(result, "formatted_address"),
		Website:     ptrStr(lookupStr(result, "website")),
		Reviews:     make([]domain.Review, 0, len(reviews)),
	}
	for _, r := range reviews {
		out.Reviews = append(out.Reviews, mapReview(r))
	}
	return out
}

func mapReview(r map[string]any) domain.Review {
	rv := domain.Review{
		AuthorName:   lookupStr(r, "author_name"),
		AuthorURL:    lookupStr(r, "author_url"),
		AvatarURL:    ptrStr(lookupStr(r, "profile_photo_url")),
		Text:         lookupStr(r, "text"),
		RelativeTime: ptrStr(lookupStr(r, "relative_time_description")),
	}
	if f := getFloatFlexible(r, "rating"); f != nil {
		rv.Rating = clampRating(*f)
	}
	if ts := getInt64Flexible(r, "time"); ts != nil {
		rv.Time = *ts
	}
	return rv
}

func clampRatingPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := clampRating(*f)
	return &c
}

func clampRating(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 5:
		return 5
	}
	return f
}

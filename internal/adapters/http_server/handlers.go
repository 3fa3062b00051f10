// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"reviews_widget/internal/app"
	"reviews_widget/internal/domain"
)

// Handlers serves the read API. Debug is nil outside dev, which hides
// /api/debug.
type Handlers struct {
	Q     *app.QueryService
	Debug *app.Diagnostics
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ---- wire shapes (field names are what the widget reads) ----

type reviewJSON struct {
	AuthorName      string  `json:"author_name"`
	AuthorURL       string  `json:"author_url,omitempty"`
	ProfilePhotoURL *string `json:"profile_photo_url,omitempty"`
	Rating          float64 `json:"rating"`
	RelativeTime    *string `json:"relative_time_description,omitempty"`
	Text            string  `json:"text"`
	Time            int64   `json:"time"`
}

type businessJSON struct {
	Name             string       `json:"name"`
	Rating           *float64     `json:"rating,omitempty"`
	UserRatingsTotal *int64       `json:"user_ratings_total,omitempty"`
	Address          string       `json:"address"`
	Website          *string      `json:"website,omitempty"`
	Reviews          []reviewJSON `json:"reviews"`
}

type reviewsResponse struct {
	Success     bool          `json:"success"`
	Data        *businessJSON `json:"data,omitempty"`
	LastUpdated *time.Time    `json:"lastUpdated,omitempty"`
	Stale       bool          `json:"stale,omitempty"`
	Warning     string        `json:"warning,omitempty"`
	Error       string        `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string     `json:"status"`
	Timestamp   time.Time  `json:"timestamp"`
	CacheStatus string     `json:"cacheStatus"`
	Stale       bool       `json:"stale"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/health", h.health)
	s.mux.Get("/api/reviews", h.getReviews)
	s.mux.Get("/api/debug", h.debug)
}

func toBusinessJSON(b domain.BusinessSnapshot) *businessJSON {
	out := &businessJSON{
		Name:             b.Name,
		Rating:           b.Rating,
		UserRatingsTotal: b.RatingCount,
		Address:          b.Address,
		Website:          b.Website,
		Reviews:          make([]reviewJSON, 0, len(b.Reviews)),
	}
	for _, r := range b.Reviews {
		out.Reviews = append(out.Reviews, reviewJSON{
			AuthorName:      r.AuthorName,
			AuthorURL:       r.AuthorURL,
			ProfilePhotoURL: r.AvatarURL,
			Rating:          r.Rating,
			RelativeTime:    r.RelativeTime,
			Text:            r.Text,
			Time:            r.Time,
		})
	}
	return out
}

// statusFor maps refresh failures onto HTTP statuses.
func statusFor(err error) int {
	var (
		pe *domain.ProviderError
		te *domain.TransportError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &pe):
		return http.StatusBadGateway
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	res, err := h.Q.GetReviews(r.Context())
	if err != nil {
		status := statusFor(err)
		log.Error().Err(err).Int("status", status).Msg("reviews unavailable")
		writeJSON(w, status, reviewsResponse{Success: false, Error: err.Error()})
		return
	}

	lu := res.LastUpdated
	resp := reviewsResponse{
		Success:     true,
		Data:        toBusinessJSON(res.Snapshot),
		LastUpdated: &lu,
		Stale:       res.Stale,
		Warning:     res.Warning,
	}
	etag, body := calcETagAndBody(resp)
	if body == nil {
		writeJSON(w, http.StatusInternalServerError, reviewsResponse{Success: false, Error: "encode failed"})
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getReviews body")
	}
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	st := h.Q.Status()
	cache := "empty"
	if st.Populated {
		cache = "loaded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		CacheStatus: cache,
		Stale:       st.Stale,
		LastUpdated: st.LastUpdated,
	})
}

func (h *Handlers) debug(w http.ResponseWriter, r *http.Request) {
	if h.Debug == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "diagnostics are only available in development")
		return
	}
	writeJSON(w, http.StatusOK, h.Debug.Run(r.Context()))
}

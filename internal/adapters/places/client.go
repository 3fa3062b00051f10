// internal/adapters/places/client.go
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reviews_widget/internal/adapters/observability"
	"reviews_widget/internal/domain"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

const (
	endpointFindPlace = "findplacefromtext"
	endpointDetails   = "details"
)

// Client talks to the Google Places web service. It never retries: one
// attempt per call, bounded by the http.Client timeout.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int, timeout time.Duration) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("places API key is required")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

func (c *Client) FindPlace(ctx context.Context, input string, fields []string) (map[string]any, error) {
	q := url.Values{}
	q.Set("input", input)
	q.Set("inputtype", "textquery")
	q.Set("fields", strings.Join(fields, ","))
	var out map[string]any
	return out, c.get(ctx, endpointFindPlace, q, &out)
}

func (c *Client) PlaceDetails(ctx context.Context, placeID string, fields []string) (map[string]any, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", strings.Join(fields, ","))
	var out map[string]any
	return out, c.get(ctx, endpointDetails, q, &out)
}

// ---- Internals ----

// get performs one rate-limited GET against {base}/{endpoint}/json and decodes
// the body into out. Failures come back as *domain.TransportError with the
// key stripped from any URL in the message.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return &domain.TransportError{Op: endpoint, Err: err}
	}

	q.Set("key", c.key)
	u := fmt.Sprintf("%s/%s/json?%s", c.base, endpoint, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &domain.TransportError{Op: endpoint, Err: c.redact(err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "reviews-widget/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("places", endpoint, 0, time.Since(start))
		return &domain.TransportError{Op: endpoint, Err: c.redact(err)}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("places", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.TransportError{
			Op:  endpoint,
			Err: fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransportError{Op: endpoint, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// redact drops the query string (which carries the key) from url.Error.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if parsed, perr := url.Parse(ue.URL); perr == nil {
			parsed.RawQuery = ""
			ue.URL = parsed.String()
		}
	}
	if strings.Contains(err.Error(), c.key) {
		return errors.New(strings.ReplaceAll(err.Error(), c.key, "REDACTED"))
	}
	return err
}

// ABOUTME: Client for the French national address API (BAN)
// ABOUTME: Decodes the GeoJSON response and retries transient failures
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultEndpoint is the public BAN search endpoint.
const DefaultEndpoint = "https://api-adresse.data.gouv.fr/search/"

// ClientConfig holds BAN client settings.
type ClientConfig struct {
	Endpoint   string
	HTTPClient *http.Client
	MaxRetries int
	Backoff    time.Duration
	Logger     *log.Logger
}

// Client resolves addresses against the BAN API.
type Client struct {
	endpoint   string
	http       *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *log.Logger
}

// NewClient creates a BAN client, filling unset fields with defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		http:       cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		logger:     cfg.Logger,
	}
}

// statusError is a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("geocoder returned HTTP %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// Resolve looks up an address, retrying rate limits, server errors and
// transport failures with linear backoff.
func (c *Client) Resolve(ctx context.Context, address string) (Result, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(attempt)
			c.logger.Printf("geocode retry %d for %q in %s: %v", attempt, address, wait, lastErr)
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		res, err := c.resolveOnce(ctx, address)
		if err == nil {
			return res, nil
		}
		if !retryable(err) {
			return Result{}, err
		}
		lastErr = err
	}
	return Result{}, fmt.Errorf("failed to geocode %q after %d attempts: %w", address, c.maxRetries+1, lastErr)
}

func (c *Client) resolveOnce(ctx context.Context, address string) (Result, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read geocode response: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		return Result{
			Lat:   p.Lat(),
			Lon:   p.Lon(),
			Label: f.Properties.MustString("label", ""),
			Score: f.Properties.MustFloat64("score", 0),
		}, nil
	}
	return Result{}, fmt.Errorf("%w for %q", ErrNoMatch, address)
}

// ABOUTME: Tests for the BAN geocoding client
// ABOUTME: Serves canned GeoJSON from httptest and checks retry behavior
package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banResponse = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "Point", "coordinates": [4.835659, 45.764043]},
    "properties": {"label": "1 Place Bellecour 69002 Lyon", "score": 0.92}
  }]
}`

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(ClientConfig{
		Endpoint:   srv.URL + "/search/",
		HTTPClient: srv.Client(),
		MaxRetries: 2,
		Backoff:    time.Millisecond,
	})
}

func TestResolveDecodesFirstFeature(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(banResponse))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Resolve(context.Background(), "1 place Bellecour 69002 Lyon")
	require.NoError(t, err)
	assert.Equal(t, "1 place Bellecour 69002 Lyon", query)
	assert.InDelta(t, 45.764043, res.Lat, 1e-9)
	assert.InDelta(t, 4.835659, res.Lon, 1e-9)
	assert.Equal(t, "1 Place Bellecour 69002 Lyon", res.Label)
	assert.InDelta(t, 0.92, res.Score, 1e-9)
	assert.False(t, res.Cached)
}

func TestResolveNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Resolve(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(banResponse))
		}
	}))
	defer srv.Close()

	res, err := newTestClient(srv).Resolve(context.Background(), "Lyon")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.InDelta(t, 0.92, res.Score, 1e-9)
}

func TestResolveGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Resolve(context.Background(), "Lyon")
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolveDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Resolve(context.Background(), "")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolveMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Resolve(context.Background(), "Lyon")
	assert.Error(t, err)
}

package neows

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/domain"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testAPIKey        = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func serveJSON(t *testing.T, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, err := w.Write(body)
		assert.NoError(t, err)
	}
}

func TestClient_FetchByID_Success(t *testing.T) {
	body := fixture(t, "neo_2465633.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/neo/2465633", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("api_key"))
		serveJSON(t, body)(w, r)
	}))
	defer srv.Close()

	neo, err := testClient(srv.URL).FetchByID(context.Background(), "2465633")
	require.NoError(t, err)

	assert.Equal(t, "2465633", neo.ID)
	assert.Equal(t, "465633 (2009 JR5)", neo.Name)
	assert.True(t, neo.PotentiallyHazardous)
	require.Len(t, neo.Approaches, 3, "every upstream approach is kept")

	jan := neo.Approaches[1]
	assert.Equal(t, time.Date(2020, 1, 1, 12, 34, 0, 0, time.UTC), jan.Time)
	assert.InDelta(t, 5390966.123456, jan.MissDistance.Kilometers(), 1e-6)
	assert.InDelta(t, 11.0349018021, jan.RelativeVelocity, 1e-9)
	assert.Equal(t, "Earth", jan.OrbitingBody)
}

func TestClient_FetchByID_FallsBackToCalendarDate(t *testing.T) {
	srv := httptest.NewServer(serveJSON(t, fixture(t, "neo_2465633.json")))
	defer srv.Close()

	neo, err := testClient(srv.URL).FetchByID(context.Background(), "2465633")
	require.NoError(t, err)

	mars := neo.Approaches[2]
	assert.Equal(t, time.Date(2021, 6, 14, 0, 0, 0, 0, time.UTC), mars.Time)
	assert.Equal(t, "Mars", mars.OrbitingBody)
}

func TestClient_FetchByID_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"OVER_RATE_LIMIT"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchByID(context.Background(), "3542519")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "3542519", fe.ID)
}

func TestClient_FetchByID_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"id": "1",`},
		{"missing id", `{"name": "x", "close_approach_data": []}`},
		{"non-numeric distance", `{"id": "1", "name": "x", "close_approach_data": [{"close_approach_date": "2020-01-01", "miss_distance": {"kilometers": "far"}}]}`},
		{"missing distance", `{"id": "1", "name": "x", "close_approach_data": [{"close_approach_date": "2020-01-01", "miss_distance": {}}]}`},
		{"negative distance", `{"id": "1", "name": "x", "close_approach_data": [{"close_approach_date": "2020-01-01", "miss_distance": {"kilometers": "-4.5"}}]}`},
		{"no approach time", `{"id": "1", "name": "x", "close_approach_data": [{"miss_distance": {"kilometers": "4.5"}}]}`},
		{"bad approach date", `{"id": "1", "name": "x", "close_approach_data": [{"close_approach_date": "2020-Jan-01", "miss_distance": {"kilometers": "4.5"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(serveJSON(t, []byte(tt.body)))
			defer srv.Close()

			_, err := testClient(srv.URL).FetchByID(context.Background(), "1")
			require.Error(t, err)
			var fe *domain.FetchError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestClient_FetchByID_NegativeDistanceIsInvalid(t *testing.T) {
	body := `{"id": "1", "name": "x", "close_approach_data": [{"close_approach_date": "2020-01-01", "miss_distance": {"kilometers": "-4.5"}}]}`
	srv := httptest.NewServer(serveJSON(t, []byte(body)))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchByID(context.Background(), "1")
	assert.True(t, errors.Is(err, domain.ErrInvalidDistance))
}

func TestClient_FetchByID_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.FetchByID(context.Background(), "1")
	require.Error(t, err)
}

func TestClient_FetchByID_RateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(serveJSON(t, fixture(t, "neo_2465633.json")))
	defer srv.Close()

	c := testClient(srv.URL)
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := c.FetchByID(context.Background(), "2465633")
	require.NoError(t, err, "first request uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.FetchByID(ctx, "2465633")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestClient_FeedIDs(t *testing.T) {
	body := fixture(t, "feed.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feed", r.URL.Path)
		assert.Equal(t, "2020-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2020-01-02", r.URL.Query().Get("end_date"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("api_key"))
		serveJSON(t, body)(w, r)
	}))
	defer srv.Close()

	dates := domain.NewDateInterval(
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	)
	ids, err := testClient(srv.URL).FeedIDs(context.Background(), dates)
	require.NoError(t, err)

	// Ordered by date then position, duplicates removed.
	assert.Equal(t, []string{"2465633", "3726710", "3542519"}, ids)
}

func TestClient_FeedIDs_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	today := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := testClient(srv.URL).FeedIDs(context.Background(), domain.NewDateInterval(today, today))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "2020-01-01..2020-01-01")
}

func TestNewClient_Limiter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Nil(t, NewClient(testAPIKey, "http://x", time.Second, 0, testMetrics(), logger).limiter)

	c := NewClient(testAPIKey, "http://x", time.Second, 2.5, testMetrics(), logger)
	require.NotNil(t, c.limiter)
	assert.Equal(t, rate.Limit(2.5), c.limiter.Limit())
	assert.Equal(t, 3, c.limiter.Burst())
}

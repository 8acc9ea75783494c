package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/domain"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/couchcryptid/neo-approach-service/internal/adapter/neows")

// Client implements domain.Repository and the detector's feed source using
// the NASA NeoWs REST API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter // nil means unlimited
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a NeoWs client. A requestsPerSecond of zero disables
// client-side pacing.
func NewClient(apiKey, baseURL string, timeout time.Duration, requestsPerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), max(1, int(math.Ceil(requestsPerSecond))))
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchByID retrieves one object with every approach NeoWs reports for it.
// All failures are returned as *domain.FetchError.
func (c *Client) FetchByID(ctx context.Context, id string) (domain.NearEarthObject, error) {
	ctx, span := tracer.Start(ctx, "neows.FetchByID", trace.WithAttributes(attribute.String("neo.id", id)))
	defer span.End()

	c.logger.Debug("fetching neo", "neo_id", id)

	params := url.Values{"api_key": {c.apiKey}}
	fullURL := fmt.Sprintf("%s/neo/%s?%s", c.baseURL, url.PathEscape(id), params.Encode())

	var resp neoResponse
	if err := c.getJSON(ctx, "neo", fullURL, &resp); err != nil {
		recordSpanError(span, err)
		return domain.NearEarthObject{}, &domain.FetchError{ID: id, Err: err}
	}

	neo, err := resp.toDomain()
	if err != nil {
		recordSpanError(span, err)
		return domain.NearEarthObject{}, &domain.FetchError{ID: id, Err: err}
	}
	span.SetAttributes(attribute.Int("neo.approaches", len(neo.Approaches)))
	return neo, nil
}

// FeedIDs returns the identifiers of objects listed by the feed for the
// given dates, ordered by feed date then feed position, without duplicates.
func (c *Client) FeedIDs(ctx context.Context, dates domain.DateInterval) ([]string, error) {
	ctx, span := tracer.Start(ctx, "neows.FeedIDs", trace.WithAttributes(attribute.String("neo.feed_dates", dates.String())))
	defer span.End()

	params := url.Values{
		"start_date": {dates.Start.Format(domain.DateLayout)},
		"end_date":   {dates.End.Format(domain.DateLayout)},
		"api_key":    {c.apiKey},
	}

	var resp feedResponse
	if err := c.getJSON(ctx, "feed", c.baseURL+"/feed?"+params.Encode(), &resp); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("query feed %s: %w", dates, err)
	}

	ids := resp.objectIDs()
	span.SetAttributes(attribute.Int("neo.feed_objects", len(ids)))
	c.logger.Info("feed received", "dates", dates.String(), "element_count", resp.ElementCount, "objects", len(ids))
	return ids, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, fullURL string, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchAPIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.FetchRequests.WithLabelValues(endpoint, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("neows API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		c.metrics.FetchRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}

	c.metrics.FetchRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// NeoWs feed response types.

type feedResponse struct {
	ElementCount     int                     `json:"element_count"`
	NearEarthObjects map[string][]feedObject `json:"near_earth_objects"` // keyed by YYYY-MM-DD
}

type feedObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (f feedResponse) objectIDs() []string {
	dates := make([]string, 0, len(f.NearEarthObjects))
	for d := range f.NearEarthObjects {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	seen := make(map[string]struct{})
	var ids []string
	for _, d := range dates {
		for _, obj := range f.NearEarthObjects[d] {
			if obj.ID == "" {
				continue
			}
			if _, dup := seen[obj.ID]; dup {
				continue
			}
			seen[obj.ID] = struct{}{}
			ids = append(ids, obj.ID)
		}
	}
	return ids
}

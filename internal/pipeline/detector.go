package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/domain"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// DefaultWindowDays is the detection window length: today through today+7.
const DefaultWindowDays = 7

// Detector fetches objects concurrently and ranks them by closest approach
// inside the detection window.
type Detector struct {
	repo         domain.Repository
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
	concurrency  int
	fetchTimeout time.Duration
	windowDays   int
}

// DetectorOption customizes a Detector.
type DetectorOption func(*Detector)

// WithClock sets the time source used to compute "today".
func WithClock(c clockwork.Clock) DetectorOption {
	return func(d *Detector) { d.clock = c }
}

// WithConcurrency bounds the number of in-flight fetches. Values below 1 are ignored.
func WithConcurrency(n int) DetectorOption {
	return func(d *Detector) {
		if n >= 1 {
			d.concurrency = n
		}
	}
}

// WithFetchTimeout bounds each individual fetch. Expiry counts as a failed
// fetch for that identifier only. Zero disables the bound.
func WithFetchTimeout(timeout time.Duration) DetectorOption {
	return func(d *Detector) { d.fetchTimeout = timeout }
}

// WithWindowDays sets the number of days after today included in the window.
func WithWindowDays(days int) DetectorOption {
	return func(d *Detector) { d.windowDays = days }
}

// NewDetector creates a Detector backed by repo.
func NewDetector(repo domain.Repository, logger *slog.Logger, metrics *observability.Metrics, opts ...DetectorOption) *Detector {
	d := &Detector{
		repo:        repo,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
		concurrency: 8,
		windowDays:  DefaultWindowDays,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detection is a ranked result together with the window it was computed for.
type Detection struct {
	Window  domain.DateInterval
	Objects []domain.NearEarthObject
}

// ClosestApproaches returns at most limit objects from ids, ordered by their
// closest approach inside the detection window. Objects that fail to fetch
// or have no approach in the window are left out; the call itself never fails.
func (d *Detector) ClosestApproaches(ctx context.Context, ids []string, limit int) []domain.NearEarthObject {
	return d.Detect(ctx, ids, limit).Objects
}

// Detect is ClosestApproaches that also reports the window used.
func (d *Detector) Detect(ctx context.Context, ids []string, limit int) Detection {
	window := domain.DetectionWindow(d.clock.Now(), d.windowDays)
	if limit <= 0 {
		return Detection{Window: window, Objects: []domain.NearEarthObject{}}
	}

	neos := d.fetchAll(ctx, ids)
	d.logger.Info("objects received, ranking",
		"requested", len(ids),
		"received", len(neos),
		"window", window.String(),
	)

	ranked := domain.Rank(neos, window, limit)
	d.metrics.ObjectsRanked.Set(float64(len(ranked)))
	return Detection{Window: window, Objects: ranked}
}

// fetchResult is one worker's slot. Exactly one of neo or err is meaningful.
type fetchResult struct {
	neo domain.NearEarthObject
	err error
}

// fetchAll fetches every id concurrently and returns the successful objects
// that carry at least one approach, in the order of ids. The order of
// completion does not affect the result.
func (d *Detector) fetchAll(ctx context.Context, ids []string) []domain.NearEarthObject {
	d.metrics.ObjectsRequested.Add(float64(len(ids)))

	results := make([]fetchResult, len(ids))
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = d.fetchOne(ctx, id)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in their slots

	neos := make([]domain.NearEarthObject, 0, len(ids))
	for i, r := range results {
		if r.err != nil {
			d.logger.Warn("fetch failed, skipping object", "neo_id", ids[i], "error", r.err)
			continue
		}
		if len(r.neo.Approaches) == 0 {
			d.logger.Debug("object has no approach data, skipping", "neo_id", ids[i])
			continue
		}
		neos = append(neos, r.neo)
	}
	return neos
}

func (d *Detector) fetchOne(ctx context.Context, id string) fetchResult {
	if d.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.fetchTimeout)
		defer cancel()
	}
	neo, err := d.repo.FetchByID(ctx, id)
	if err != nil {
		return fetchResult{err: err}
	}
	return fetchResult{neo: neo}
}

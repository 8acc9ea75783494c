package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/neo-approach-service/internal/domain"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/couchcryptid/neo-approach-service/internal/report"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// FeedSource lists the object identifiers whose approaches fall on the given dates.
type FeedSource interface {
	FeedIDs(ctx context.Context, dates domain.DateInterval) ([]string, error)
}

// ReportPublisher delivers a finished report downstream.
type ReportPublisher interface {
	Publish(ctx context.Context, r report.Report) error
}

// ScanOptions configures a Scanner.
type ScanOptions struct {
	Limit    int           // objects per report
	FeedDays int           // feed covers today through today+FeedDays
	Interval time.Duration // pause between scans in Run
	Clock    clockwork.Clock
}

// PublishError reports a scan that produced a report but could not deliver it.
// The report itself is kept as the latest.
type PublishError struct {
	ScanID string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish report %s: %v", e.ScanID, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Scanner orchestrates the feed-detect-report cycle.
type Scanner struct {
	feed      FeedSource
	detector  *Detector
	publisher ReportPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      ScanOptions
	ready     atomic.Bool
	latest    atomic.Pointer[report.Report]
}

// NewScanner creates a Scanner. A nil publisher disables report publishing.
func NewScanner(feed FeedSource, detector *Detector, publisher ReportPublisher, logger *slog.Logger, metrics *observability.Metrics, opts ScanOptions) *Scanner {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Scanner{
		feed:      feed,
		detector:  detector,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once a scan has produced a report, or an error
// describing why the service is not yet ready.
func (s *Scanner) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no scan has completed yet")
	}
	return nil
}

// Latest returns the most recent report, if any.
func (s *Scanner) Latest() (report.Report, bool) {
	r := s.latest.Load()
	if r == nil {
		return report.Report{}, false
	}
	return *r, true
}

// Scan runs one cycle: read the feed, rank its objects, and publish the
// report. A feed failure aborts the scan. A publish failure is returned
// alongside the report as a *PublishError; the report is still recorded as
// the latest.
func (s *Scanner) Scan(ctx context.Context) (report.Report, error) {
	start := s.opts.Clock.Now()
	scanID := uuid.NewString()
	logger := s.logger.With("scan_id", scanID)

	feedDates := domain.DetectionWindow(start, s.opts.FeedDays)
	ids, err := s.feed.FeedIDs(ctx, feedDates)
	if err != nil {
		s.metrics.ScanErrors.Inc()
		return report.Report{}, fmt.Errorf("scan %s: %w", scanID, err)
	}

	det := s.detector.Detect(ctx, ids, s.opts.Limit)
	rep := report.Build(scanID, start, det.Window, len(ids), det.Objects)

	s.latest.Store(&rep)
	s.ready.Store(true)
	s.metrics.ScansTotal.Inc()
	s.metrics.HazardousRanked.Set(float64(rep.Hazardous()))
	s.metrics.ScanDuration.Observe(s.opts.Clock.Since(start).Seconds())

	logger.Info("scan complete",
		"feed_dates", feedDates.String(),
		"window", det.Window.String(),
		"requested", len(ids),
		"ranked", len(rep.Entries),
		"hazardous", rep.Hazardous(),
	)

	if s.publisher == nil {
		return rep, nil
	}
	if err := s.publisher.Publish(ctx, rep); err != nil {
		s.metrics.PublishErrors.Inc()
		return rep, &PublishError{ScanID: scanID, Err: err}
	}
	s.metrics.ReportsPublished.Inc()
	return rep, nil
}

// Run scans every Interval until the context is cancelled. Scans that fail
// before ranking are retried with exponential backoff instead of waiting a
// full interval. A publish failure is logged and followed by the normal
// interval wait; it never causes a rescan.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scanner started", "interval", s.opts.Interval, "limit", s.opts.Limit)
	s.metrics.ScannerRunning.Set(1)
	defer s.metrics.ScannerRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if ctx.Err() != nil {
			s.logger.Info("scanner stopping", "reason", ctx.Err())
			return nil
		}

		wait := s.opts.Interval
		_, err := s.Scan(ctx)
		var pubErr *PublishError
		switch {
		case err == nil:
			backoff = 200 * time.Millisecond
		case ctx.Err() != nil:
			s.logger.Info("scanner stopping", "reason", ctx.Err())
			return nil
		case errors.As(err, &pubErr):
			s.logger.Error("report publish failed", "scan_id", pubErr.ScanID, "error", pubErr.Err, "next_scan_in", wait)
			backoff = 200 * time.Millisecond
		default:
			s.logger.Error("scan failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		}

		if !sleepWithContext(ctx, s.opts.Clock, wait) {
			s.logger.Info("scanner stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

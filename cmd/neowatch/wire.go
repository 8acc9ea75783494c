package main

import (
	"github.com/couchcryptid/neo-approach-service/internal/adapter/kafka"
	"github.com/couchcryptid/neo-approach-service/internal/adapter/neows"
	"github.com/couchcryptid/neo-approach-service/internal/domain"
	"github.com/couchcryptid/neo-approach-service/internal/observability"
	"github.com/couchcryptid/neo-approach-service/internal/pipeline"
)

// components holds the scanner and whatever needs closing on shutdown.
type components struct {
	scanner *pipeline.Scanner
	writer  *kafka.ReportWriter // nil when publishing is off
}

func (c *components) close() {
	if c.writer == nil {
		return
	}
	if err := c.writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}

func buildComponents(metrics *observability.Metrics, limit int, publish bool) *components {
	client := neows.NewClient(cfg.NeoAPIKey, cfg.NeoBaseURL, cfg.NeoFetchTimeout, cfg.NeoRequestsPerSecond, metrics, logger)

	var repo domain.Repository = client
	if cfg.NeoCacheSize > 0 {
		repo = neows.NewCachedRepository(client, cfg.NeoCacheSize, cfg.NeoCacheTTL, metrics)
		logger.Info("neo detail cache enabled", "cache_size", cfg.NeoCacheSize, "cache_ttl", cfg.NeoCacheTTL)
	}

	detector := pipeline.NewDetector(repo, logger, metrics,
		pipeline.WithConcurrency(cfg.NeoMaxConcurrency),
		pipeline.WithFetchTimeout(cfg.NeoFetchTimeout),
		pipeline.WithWindowDays(cfg.WindowDays),
	)

	c := &components{}
	var publisher pipeline.ReportPublisher
	if publish {
		c.writer = kafka.NewReportWriter(cfg, logger)
		publisher = c.writer
		logger.Info("kafka report publishing enabled", "topic", cfg.KafkaReportTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka report publishing disabled")
	}

	c.scanner = pipeline.NewScanner(client, detector, publisher, logger, metrics, pipeline.ScanOptions{
		Limit:    limit,
		FeedDays: cfg.FeedDays,
		Interval: cfg.ScanInterval,
	})
	return c
}

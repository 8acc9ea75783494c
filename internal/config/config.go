package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NeoWs API configuration.
	NeoAPIKey            string
	NeoBaseURL           string
	NeoFetchTimeout      time.Duration
	NeoMaxConcurrency    int
	NeoRequestsPerSecond float64
	NeoCacheSize         int
	NeoCacheTTL          time.Duration

	// Detection configuration.
	WindowDays   int
	FeedDays     int
	RankLimit    int
	ScanInterval time.Duration

	// Kafka report publishing (feature-flagged via KAFKA_ENABLED).
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string
}

// maxFeedDays is the widest date range the NeoWs feed endpoint accepts.
const maxFeedDays = 7

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("NEO_FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parseDuration("NEO_CACHE_TTL", "6h")
	if err != nil {
		return nil, err
	}

	scanInterval, err := parseDuration("SCAN_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NEO_REQUESTS_PER_SECOND", "0"), 64)
	if err != nil || rps < 0 {
		return nil, errors.New("invalid NEO_REQUESTS_PER_SECOND")
	}

	maxConcurrency, err := parseNonNegativeInt("NEO_MAX_CONCURRENCY", "8")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseNonNegativeInt("NEO_CACHE_SIZE", "500")
	if err != nil {
		return nil, err
	}

	windowDays, err := parseNonNegativeInt("NEO_WINDOW_DAYS", "7")
	if err != nil {
		return nil, err
	}

	feedDays, err := parseNonNegativeInt("NEO_FEED_DAYS", "0")
	if err != nil {
		return nil, err
	}

	rankLimit, err := parseNonNegativeInt("RANK_LIMIT", "10")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NeoAPIKey:            sharedcfg.EnvOrDefault("NEO_API_KEY", "DEMO_KEY"),
		NeoBaseURL:           sharedcfg.EnvOrDefault("NEO_BASE_URL", "https://api.nasa.gov/neo/rest/v1"),
		NeoFetchTimeout:      fetchTimeout,
		NeoMaxConcurrency:    maxConcurrency,
		NeoRequestsPerSecond: rps,
		NeoCacheSize:         cacheSize,
		NeoCacheTTL:          cacheTTL,

		WindowDays:   windowDays,
		FeedDays:     feedDays,
		RankLimit:    rankLimit,
		ScanInterval: scanInterval,

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "neo-closest-approaches"),
	}

	if cfg.NeoAPIKey == "" {
		return nil, errors.New("NEO_API_KEY is required")
	}
	if cfg.NeoMaxConcurrency == 0 {
		return nil, errors.New("NEO_MAX_CONCURRENCY must be at least 1")
	}
	if cfg.FeedDays > maxFeedDays {
		return nil, errors.New("NEO_FEED_DAYS must not exceed 7")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseNonNegativeInt(key, fallback string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	Workers         int

	// Reaches to process in one batch run.
	ReachIDs []string

	// Upstream record source.
	AWBaseURL string

	// Hydrography tracing services.
	WatersIndexingURL   string
	WatersNavigationURL string
	HydrologyBaseURL    string
	SearchRadiusKm      float64

	// External request behavior.
	RequestTimeout     time.Duration
	RequestsPerSecond  float64
	FetchAttempts      int
	SnapAttempts       int
	TraceAttempts      int
	BasinTraceAttempts int

	// Feature layer endpoints.
	LineLayerURL     string
	CentroidLayerURL string
	PointLayerURL    string

	// Optional Kafka sink for resolved reaches.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDuration("REQUEST_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}
	fetchAttempts, err := parsePositiveInt("FETCH_ATTEMPTS", 10)
	if err != nil {
		return nil, err
	}
	snapAttempts, err := parsePositiveInt("SNAP_ATTEMPTS", 10)
	if err != nil {
		return nil, err
	}
	traceAttempts, err := parsePositiveInt("TRACE_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	basinAttempts, err := parsePositiveInt("BASIN_TRACE_ATTEMPTS", 10)
	if err != nil {
		return nil, err
	}

	searchRadius, err := parsePositiveFloat("SEARCH_RADIUS_KM", 5)
	if err != nil {
		return nil, err
	}
	rps, err := parseNonNegativeFloat("REQUESTS_PER_SECOND", 0)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := splitAndTrim(envOrDefault("KAFKA_BROKERS", ""))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Workers:         workers,

		ReachIDs: splitAndTrim(os.Getenv("REACH_IDS")),

		AWBaseURL: envOrDefault("AW_BASE_URL", "https://www.americanwhitewater.org"),

		WatersIndexingURL:   envOrDefault("WATERS_INDEXING_URL", "https://ofmpub.epa.gov/waters10/PointIndexing.Service"),
		WatersNavigationURL: envOrDefault("WATERS_NAVIGATION_URL", "https://ofmpub.epa.gov/waters10/Navigation.Service"),
		HydrologyBaseURL:    os.Getenv("HYDROLOGY_BASE_URL"),
		SearchRadiusKm:      searchRadius,

		RequestTimeout:     requestTimeout,
		RequestsPerSecond:  rps,
		FetchAttempts:      fetchAttempts,
		SnapAttempts:       snapAttempts,
		TraceAttempts:      traceAttempts,
		BasinTraceAttempts: basinAttempts,

		LineLayerURL:     os.Getenv("LINE_LAYER_URL"),
		CentroidLayerURL: os.Getenv("CENTROID_LAYER_URL"),
		PointLayerURL:    os.Getenv("POINT_LAYER_URL"),

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   kafkaBrokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "resolved-reaches"),
	}

	if cfg.HydrologyBaseURL == "" {
		return nil, errors.New("HYDROLOGY_BASE_URL is required")
	}
	if cfg.LineLayerURL == "" || cfg.CentroidLayerURL == "" || cfg.PointLayerURL == "" {
		return nil, errors.New("LINE_LAYER_URL, CENTROID_LAYER_URL, and POINT_LAYER_URL are required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseNonNegativeFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

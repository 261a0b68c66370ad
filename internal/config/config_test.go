package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HYDROLOGY_BASE_URL", "https://hydro.example.com/Tools")
	t.Setenv("LINE_LAYER_URL", "https://layers.example.com/line/0")
	t.Setenv("CENTROID_LAYER_URL", "https://layers.example.com/centroid/0")
	t.Setenv("POINT_LAYER_URL", "https://layers.example.com/point/0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.ReachIDs)
	assert.Equal(t, "https://www.americanwhitewater.org", cfg.AWBaseURL)
	assert.Contains(t, cfg.WatersIndexingURL, "PointIndexing.Service")
	assert.Contains(t, cfg.WatersNavigationURL, "Navigation.Service")
	assert.Equal(t, 5.0, cfg.SearchRadiusKm)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0.0, cfg.RequestsPerSecond)
	assert.Equal(t, 10, cfg.FetchAttempts)
	assert.Equal(t, 10, cfg.SnapAttempts)
	assert.Equal(t, 5, cfg.TraceAttempts)
	assert.Equal(t, 10, cfg.BasinTraceAttempts)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "resolved-reaches", cfg.KafkaSinkTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WORKERS", "8")
	t.Setenv("REACH_IDS", "2172, 3411,1204")
	t.Setenv("SEARCH_RADIUS_KM", "2.5")
	t.Setenv("REQUEST_TIMEOUT", "90s")
	t.Setenv("REQUESTS_PER_SECOND", "4")
	t.Setenv("SNAP_ATTEMPTS", "3")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"2172", "3411", "1204"}, cfg.ReachIDs)
	assert.Equal(t, 2.5, cfg.SearchRadiusKm)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4.0, cfg.RequestsPerSecond)
	assert.Equal(t, 3, cfg.SnapAttempts)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
}

func TestLoad_MissingHydrologyURL(t *testing.T) {
	t.Setenv("LINE_LAYER_URL", "https://layers.example.com/line/0")
	t.Setenv("CENTROID_LAYER_URL", "https://layers.example.com/centroid/0")
	t.Setenv("POINT_LAYER_URL", "https://layers.example.com/point/0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HYDROLOGY_BASE_URL")
}

func TestLoad_MissingLayerURLs(t *testing.T) {
	t.Setenv("HYDROLOGY_BASE_URL", "https://hydro.example.com/Tools")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LAYER_URL")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidWorkers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WORKERS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKERS")
}

func TestLoad_InvalidSearchRadius(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SEARCH_RADIUS_KM", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_RADIUS_KM")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

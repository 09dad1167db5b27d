package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Options{})
		require.NoError(t, err)

		assert.Equal(t, "fern", cfg.AppName)
		assert.Equal(t, 3004, cfg.Port)
		assert.Equal(t, 10*time.Second, cfg.DisambiguationTimeout)
		assert.Equal(t, "name || attributes.name", cfg.DisambiguationNameExpression)
		assert.Equal(t, []string{"person=trim|nname"}, cfg.DisambiguationTypeNormalizers)
		assert.Equal(t, []string{"GET", "POST"}, cfg.AllowMethods)
		assert.Empty(t, cfg.OTLPHeaders)
		assert.Equal(t, time.Hour, cfg.RedisCacheTTL)
		assert.False(t, cfg.KafkaConsumerEnabled)
		assert.True(t, cfg.DatabaseMigrationAutoRollback)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("RESOLUTION_MAX_CONCURRENCY", "8")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
		t.Setenv("KAFKA_CONSUMER_ENABLED", "true")
		t.Setenv("DISAMBIGUATION_TIMEOUT", "250ms")

		cfg, err := Load(Options{})
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, 8, cfg.Collector().Concurrency)
		assert.Equal(t, 250*time.Millisecond, cfg.Collector().CallTimeout)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Consumer().Brokers)
		assert.True(t, cfg.KafkaConsumerEnabled)
	})

	t.Run("env file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("FERN_TEST_ONLY=1\nREDIS_PORT=6380\n"), 0o600))
		t.Cleanup(func() {
			os.Unsetenv("FERN_TEST_ONLY")
			os.Unsetenv("REDIS_PORT")
		})

		cfg, err := Load(Options{EnvFile: path})
		require.NoError(t, err)
		assert.Equal(t, 6380, cfg.Redis().Port)
	})

	t.Run("missing env file is ignored", func(t *testing.T) {
		_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
		assert.NoError(t, err)
	})

	t.Run("empty list value", func(t *testing.T) {
		t.Setenv("HTTP_SERVER_ALLOW_ORIGINS", " , ")
		cfg, err := Load(Options{})
		require.NoError(t, err)
		assert.Empty(t, cfg.AllowOrigins)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fern.yaml")
		require.NoError(t, os.WriteFile(path, []byte("graph_db_host: memgraph\nkafka_brokers:\n  - a:9092\n  - b:9092\n"), 0o600))

		cfg, err := Load(Options{ConfigFile: path})
		require.NoError(t, err)
		assert.Equal(t, "memgraph", cfg.Graph().Host)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("DISAMBIGUATION_TIMEOUT", "soon")
		_, err := Load(Options{})
		assert.ErrorContains(t, err, `invalid duration "soon"`)
	})

	t.Run("invalid integer", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := Load(Options{})
		assert.ErrorContains(t, err, "eighty")
	})
}

func TestConfig_Tracing(t *testing.T) {
	cfg := &Config{AppName: "fern", OTLPEndpoint: "collector:4317", OTLPHeaders: []string{"x-api-key = abc", "bad"}}

	tc := cfg.Tracing()
	assert.Equal(t, "otlp", tc.Exporter)
	assert.Equal(t, map[string]string{"x-api-key": "abc"}, tc.OTLP.Headers)

	cfg.OTLPEndpoint = ""
	assert.Equal(t, "", cfg.Tracing().Exporter)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, 10*time.Second, cfg.Interval.Std())
	assert.Equal(t, 8000, cfg.Assessor.Port)
	assert.Equal(t, 8001, cfg.Payments.Port)
	assert.Equal(t, 8003, cfg.Client.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport: nats
interval: 250ms
nats:
  url: nats://127.0.0.1:4222
  prefix: depositflow.dev
client:
  metrics_addr: ":9003"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportNATS, cfg.Transport)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval.Std())
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "depositflow.dev", cfg.NATS.Prefix)
	assert.Equal(t, ":9003", cfg.Client.MetricsAddr)
	// Untouched keys keep their defaults.
	assert.Equal(t, 8000, cfg.Assessor.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: soon\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Transport = "carrier-pigeon"
	assert.ErrorContains(t, cfg.Validate(), "unknown transport")

	cfg = Default()
	cfg.Interval = 0
	assert.ErrorContains(t, cfg.Validate(), "interval must be positive")

	cfg = Default()
	cfg.Payments.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "payments port")

	// Ports are only required for the http transport.
	cfg.Transport = TransportLocal
	assert.NoError(t, cfg.Validate())
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("AGENT_SEED", "test-seed-phrase")
	s, err := LoadSecrets()
	require.NoError(t, err)
	assert.Equal(t, "test-seed-phrase", s.AgentSeed)
}

func TestLoadSecrets_MissingSeed(t *testing.T) {
	t.Setenv("AGENT_SEED", "")
	os.Unsetenv("AGENT_SEED")

	_, err := LoadSecrets()
	assert.ErrorContains(t, err, "AGENT_SEED")
}

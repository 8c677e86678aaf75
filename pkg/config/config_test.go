package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Execution.Simulation, "默认必须是模拟模式")
	assert.Equal(t, 60, cfg.Matching.CandidateTTLSeconds)
	assert.Equal(t, 100, cfg.Execution.CostPerContractCents)
	assert.Empty(t, cfg.Webhook.Secret)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
webhook:
  secret: whsec-abc
execution:
  simulation: false
matching:
  candidate_ttl_seconds: 30
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "whsec-abc", cfg.Webhook.Secret)
	assert.False(t, cfg.Execution.Simulation)
	assert.Equal(t, 30, cfg.Matching.CandidateTTLSeconds)
	// 未覆盖的字段保留默认值
	assert.Equal(t, "https://api.elections.kalshi.com", cfg.Exchange.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COPYBET_ADDR", ":7070")
	t.Setenv("COPYBET_WEBHOOK_SECRET", "from-env")
	t.Setenv("COPYBET_SIMULATION", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Webhook.Secret)
	assert.False(t, cfg.Execution.Simulation)
}

func TestEnvBadBoolKeepsDefault(t *testing.T) {
	t.Setenv("COPYBET_SIMULATION", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Execution.Simulation)
}

func TestMode(t *testing.T) {
	m := NewMode(true)
	assert.True(t, m.Simulation())

	m.SetSimulation(false)
	assert.False(t, m.Simulation())

	m.SetSimulation(true)
	assert.True(t, m.Simulation())
}

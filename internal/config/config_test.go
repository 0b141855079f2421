package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	originalDir, _ := os.Getwd()
	tmpDir := t.TempDir()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(originalDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Board.MaxTasks)
	assert.Equal(t, 512, cfg.Board.HistorySize)
	assert.Equal(t, 0, cfg.Board.QueueCapacity)
	assert.Equal(t, 10*time.Second, cfg.Board.CallTimeout)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 50, cfg.Redis.PoolSize)

	assert.Equal(t, "tboard", cfg.Bridge.ConsumerGroup)
	assert.Equal(t, []string{"device"}, cfg.Bridge.EnabledTiers)
	assert.Equal(t, 2.0, cfg.Bridge.ReconnectFactor)

	assert.Equal(t, "0.0.0.0", cfg.Admin.Host)
	assert.Equal(t, 8090, cfg.Admin.Port)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := tmpDir + "/config.yaml"

	configContent := `
board:
  maxtasks: 1000

redis:
  addr: "custom-redis:6380"
  password: "secret"
  db: 1

bridge:
  consumergroup: "mygroup"

loglevel: "warn"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	originalDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(originalDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Board.MaxTasks)
	assert.Equal(t, "custom-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "mygroup", cfg.Bridge.ConsumerGroup)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestBoardConfig_Fields(t *testing.T) {
	cfg := BoardConfig{
		MaxTasks:      100,
		HistorySize:   50,
		QueueCapacity: 10,
		CallTimeout:   5 * time.Second,
	}

	assert.Equal(t, 100, cfg.MaxTasks)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
}

func TestBridgeConfig_Fields(t *testing.T) {
	cfg := BridgeConfig{
		ConsumerGroup:    "g",
		EnabledTiers:     []string{"device", "fog"},
		ReconnectInitial: time.Second,
		ReconnectMax:     time.Minute,
		ReconnectFactor:  1.5,
	}

	assert.Equal(t, []string{"device", "fog"}, cfg.EnabledTiers)
	assert.Equal(t, 1.5, cfg.ReconnectFactor)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, 8, cfg.QueueDepth)
	assert.False(t, cfg.QueueDuplicates)
	assert.Equal(t, 2*time.Minute, cfg.ScanTimeout)
	assert.Equal(t, 5*time.Second, cfg.GracePeriod)
	assert.Equal(t, "./config/tools.yaml", cfg.ToolsConfigPath)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SCANHUB_PORT", "9090")
	t.Setenv("SCANHUB_MAX_CONCURRENT", "6")
	t.Setenv("SCANHUB_QUEUE_DEPTH", "0")
	t.Setenv("SCANHUB_QUEUE_DUPLICATES", "true")
	t.Setenv("SCANHUB_SCAN_TIMEOUT", "30s")
	t.Setenv("SCANHUB_GRACE_PERIOD", "1s")
	t.Setenv("SCANHUB_TOOLS_CONFIG", "/etc/scanhub/tools.yaml")
	t.Setenv("SCANHUB_RATE_LIMIT", "2.5")
	t.Setenv("SCANHUB_RATE_BURST", "3")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 6, cfg.MaxConcurrent)
	assert.Equal(t, 0, cfg.QueueDepth)
	assert.True(t, cfg.QueueDuplicates)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, time.Second, cfg.GracePeriod)
	assert.Equal(t, "/etc/scanhub/tools.yaml", cfg.ToolsConfigPath)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 3, cfg.RateBurst)
}

func TestLoadConfig_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("SCANHUB_PORT", "not-a-port")
	t.Setenv("SCANHUB_SCAN_TIMEOUT", "soon")
	t.Setenv("SCANHUB_QUEUE_DUPLICATES", "maybe")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.ScanTimeout)
	assert.False(t, cfg.QueueDuplicates)
}

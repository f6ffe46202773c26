package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	MaxConcurrent   int
	QueueDepth      int
	QueueDuplicates bool
	ScanTimeout     time.Duration
	GracePeriod     time.Duration
	ToolsConfigPath string
	RateLimit       float64
	RateBurst       int
}

// LoadConfig loads service config from environment variables with sensible
// defaults. Supported env vars: SCANHUB_PORT, SCANHUB_MAX_CONCURRENT,
// SCANHUB_QUEUE_DEPTH, SCANHUB_QUEUE_DUPLICATES, SCANHUB_SCAN_TIMEOUT,
// SCANHUB_GRACE_PERIOD, SCANHUB_TOOLS_CONFIG, SCANHUB_RATE_LIMIT,
// SCANHUB_RATE_BURST
func LoadConfig() *Config {
	return &Config{
		Port:            getenvInt("SCANHUB_PORT", 8080),
		MaxConcurrent:   getenvInt("SCANHUB_MAX_CONCURRENT", 2),
		QueueDepth:      getenvInt("SCANHUB_QUEUE_DEPTH", 8),
		QueueDuplicates: getenvBool("SCANHUB_QUEUE_DUPLICATES", false),
		ScanTimeout:     getenvDuration("SCANHUB_SCAN_TIMEOUT", 2*time.Minute),
		GracePeriod:     getenvDuration("SCANHUB_GRACE_PERIOD", 5*time.Second),
		ToolsConfigPath: getenvDefault("SCANHUB_TOOLS_CONFIG", "./config/tools.yaml"),
		RateLimit:       getenvFloat("SCANHUB_RATE_LIMIT", 5),
		RateBurst:       getenvInt("SCANHUB_RATE_BURST", 10),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getenvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getenvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

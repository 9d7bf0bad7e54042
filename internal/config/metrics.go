package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// MetricsConfig holds configuration for offline aggregation of recorded events.
type MetricsConfig struct {
	Pool     PoolConfig
	In       string
	Window   string
	Since    string
	PGDSN    string
	LogLevel string
}

// LoadMetrics merges config file, environment variables, and flags into MetricsConfig.
func LoadMetrics(cfgFile string, flags *pflag.FlagSet) (MetricsConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"window":    "1h",
		"log-level": "info",
	})
	if err != nil {
		return MetricsConfig{}, err
	}

	cfg := MetricsConfig{
		Pool:     poolConfig(v),
		In:       v.GetString("in"),
		Window:   v.GetString("window"),
		Since:    v.GetString("since"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}

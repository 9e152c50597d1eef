// Package config は負荷試験ツールの設定を環境変数とフラグから読み込みます。
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config は負荷試験の設定です。
type Config struct {
	BaseURL    string
	Keys       int
	ReadRatio  float64
	BulkRatio  float64
	BulkSize   int
	Rate       int
	Duration   time.Duration
	Output     string
	Timeout    time.Duration
	Name       string
	DisablePUT bool
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseFloatEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Load は環境変数を既定値としてコマンドラインフラグを解析します。
func Load() *Config {
	var c Config

	defaultBase := envOr("LT_BASE_URL", "http://localhost:8080")
	defaultKeys := parseIntEnv("LT_KEYS", 5000)
	defaultRead := parseFloatEnv("LT_READ_RATIO", 0.8)
	defaultBulkRatio := parseFloatEnv("LT_BULK_RATIO", 0.0)
	defaultBulkSize := parseIntEnv("LT_BULK_SIZE", 256)
	defaultRate := parseIntEnv("LT_RATE", 100)
	defaultDuration := envOr("LT_DURATION", "30s")
	defaultOutput := envOr("LT_OUTPUT", "vegeta_results.bin")
	defaultTimeout := envOr("LT_TIMEOUT", "5s")
	defaultName := envOr("LT_NAME", "mixed")
	disablePUT := os.Getenv("LT_DISABLE_PUT") == "1" || os.Getenv("LT_DISABLE_PUT") == "true"

	dur, _ := time.ParseDuration(defaultDuration)
	to, _ := time.ParseDuration(defaultTimeout)

	flag.StringVar(&c.BaseURL, "base-url", defaultBase, "Base URL of the list server")
	flag.IntVar(&c.Keys, "keys", defaultKeys, "Size of the key space")
	flag.Float64Var(&c.ReadRatio, "read-ratio", defaultRead, "Ratio of GET requests among point operations")
	flag.Float64Var(&c.BulkRatio, "bulk-ratio", defaultBulkRatio, "Ratio of bulk insert requests")
	flag.IntVar(&c.BulkSize, "bulk-size", defaultBulkSize, "Pairs per bulk insert request")
	flag.IntVar(&c.Rate, "rate", defaultRate, "Requests per second")
	flag.DurationVar(&c.Duration, "duration", dur, "Duration of the load test")
	flag.StringVar(&c.Output, "output", defaultOutput, "Output file for raw results")
	flag.DurationVar(&c.Timeout, "timeout", to, "Request timeout")
	flag.StringVar(&c.Name, "name", defaultName, "Name of the load test")
	flag.BoolVar(&c.DisablePUT, "disable-put", disablePUT, "Send GET requests only")

	flag.Parse()
	return &c
}

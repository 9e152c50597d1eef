// Package config はサーバーの設定を環境変数とフラグから読み込みます。
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config はサーバーの設定です。
type Config struct {
	HTTPAddr         string
	Workers          int
	MaxWorkers       int
	ChunkSize        int // 0 でワーカー数固定の分割
	NodeSize         int
	ArenaSlabNodes   int
	ArenaMaxNodes    int // 0 で無制限
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string
	LogFormat        string
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func parseDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load は環境変数を既定値としてフラグを解析し、検証済みの Config を返します。
func Load(args []string) (*Config, error) {
	var c Config
	fs := flag.NewFlagSet("clist", flag.ContinueOnError)

	fs.StringVar(&c.HTTPAddr, "http-addr", envOr("CLIST_HTTP_ADDR", ":8080"), "HTTP listen address")
	fs.IntVar(&c.MaxWorkers, "max-workers", parseIntEnv("CLIST_MAX_WORKERS", 1024), "Upper bound for workers, also enforced on PUT /config/workers")
	fs.IntVar(&c.Workers, "workers", parseIntEnv("CLIST_WORKERS", min(runtime.GOMAXPROCS(0), 1024)), "Workers for bulk operations")
	fs.IntVar(&c.ChunkSize, "chunk-size", parseIntEnv("CLIST_CHUNK_SIZE", 0), "Fixed items per bulk chunk (0 = split by workers)")
	fs.IntVar(&c.NodeSize, "node-size", parseIntEnv("CLIST_NODE_SIZE", 128), "Target node size in bytes")
	fs.IntVar(&c.ArenaSlabNodes, "arena-slab-nodes", parseIntEnv("CLIST_ARENA_SLAB_NODES", 1024), "Nodes per arena slab")
	fs.IntVar(&c.ArenaMaxNodes, "arena-max-nodes", parseIntEnv("CLIST_ARENA_MAX_NODES", 0), "Max live nodes (0 = unlimited)")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", parseDurationEnv("CLIST_SHUTDOWN_TIMEOUT", 5*time.Second), "Graceful shutdown timeout")
	fs.StringVar(&c.MetricsNamespace, "metrics-namespace", envOr("CLIST_METRICS_NAMESPACE", "clist"), "Prometheus namespace")
	fs.StringVar(&c.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level (debug, info, error)")
	fs.StringVar(&c.LogFormat, "log-format", envOr("LOG_FORMAT", "text"), "Log format (text, json)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate は設定値を検証します。
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http-addr must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("max-workers must be positive, got %d", c.MaxWorkers))
	} else if c.Workers > c.MaxWorkers {
		errs = append(errs, fmt.Errorf("workers %d exceeds max-workers %d", c.Workers, c.MaxWorkers))
	}
	if c.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("chunk-size must not be negative, got %d", c.ChunkSize))
	}
	if c.NodeSize < 1 {
		errs = append(errs, fmt.Errorf("node-size must be positive, got %d", c.NodeSize))
	}
	if c.ArenaSlabNodes < 1 {
		errs = append(errs, fmt.Errorf("arena-slab-nodes must be positive, got %d", c.ArenaSlabNodes))
	}
	if c.ArenaMaxNodes < 0 {
		errs = append(errs, fmt.Errorf("arena-max-nodes must not be negative, got %d", c.ArenaMaxNodes))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Package main は 負荷試験ツールのエントリーポイントを提供します。
package main

import (
	"fmt"
	"os"

	"github.com/amakane-hakari/clist/loadtest/attacker"
	"github.com/amakane-hakari/clist/loadtest/config"
	"github.com/amakane-hakari/clist/loadtest/scenario"
)

func main() {
	cfg := config.Load()

	fmt.Printf("[INFO] base-url=%s rate=%d duration=%s read-ratio=%.2f bulk-ratio=%.2f bulk-size=%d keys=%d read-only=%v\n",
		cfg.BaseURL, cfg.Rate, cfg.Duration, cfg.ReadRatio, cfg.BulkRatio, cfg.BulkSize, cfg.Keys, cfg.DisablePUT)

	gen := scenario.NewGenerator(
		cfg.BaseURL,
		cfg.Keys,
		cfg.ReadRatio,
		cfg.BulkRatio,
		cfg.BulkSize,
		cfg.DisablePUT,
	)

	r := attacker.Runner{
		Rate:     cfg.Rate,
		Duration: cfg.Duration,
		Timeout:  cfg.Timeout,
		Name:     cfg.Name,
		Output:   cfg.Output,
	}

	sum, err := r.Run(gen.Targeter())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	if sum.StatusCodes["507"] > 0 {
		fmt.Fprintf(os.Stderr, "[WARN] %d requests hit the node limit\n", sum.StatusCodes["507"])
	}
}

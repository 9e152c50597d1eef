// Package attacker は vegeta で負荷をかけ、結果を集計します。
package attacker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// ResultSummary は 負荷試験の結果概要を表します。
type ResultSummary struct {
	Requests    uint64                `json:"requests"`
	Rate        float64               `json:"rate_req_per_sec"`
	Success     float64               `json:"success_ratio"`
	Throughput  float64               `json:"throughput_bytes_per_sec"`
	Latencies   vegeta.LatencyMetrics `json:"latencies"`
	StatusCodes map[string]int        `json:"status_codes"`
	ByMethod    map[string]uint64     `json:"by_method"`
	Errors      []string              `json:"errors"`
	Duration    time.Duration         `json:"duration"`
}

// Runner は 負荷試験を実行するための構造体です。
type Runner struct {
	Rate     int
	Duration time.Duration
	Timeout  time.Duration
	Name     string
	Output   string
}

// Run は 指定されたターゲッターを使用して負荷試験を実行し、結果の概要を返します。
// 生の結果は Output に逐次書き出します。
func (r *Runner) Run(targeter vegeta.Targeter) (*ResultSummary, error) {
	f, err := os.Create(r.Output)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := vegeta.NewEncoder(w)

	rate := vegeta.Rate{Freq: r.Rate, Per: time.Second}
	att := vegeta.NewAttacker(vegeta.Timeout(r.Timeout))

	var m vegeta.Metrics
	byMethod := map[string]uint64{}
	for res := range att.Attack(targeter, rate, r.Duration, r.Name) {
		m.Add(res)
		byMethod[res.Method]++
		if err := enc.Encode(res); err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
	}
	m.Close()

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}

	summary := &ResultSummary{
		Requests:    m.Requests,
		Rate:        m.Rate,
		Success:     m.Success,
		Throughput:  m.Throughput,
		Latencies:   m.Latencies,
		StatusCodes: m.StatusCodes,
		ByMethod:    byMethod,
		Errors:      m.Errors,
		Duration:    m.Duration,
	}

	out, _ := json.MarshalIndent(summary, "", " ")
	fmt.Printf("\n=== Summary(JSON) ===\n%s\n", string(out))

	return summary, nil
}

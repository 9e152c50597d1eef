package http

import (
	"net/http"
	"sync/atomic"
)

// Health はヘルスチェックの状態を保持します。ドレイン中の /health は 503 を返します。
type Health struct {
	draining atomic.Bool
}

// NewHealth は新しい Health を作成します。
func NewHealth() *Health { return &Health{} }

// SetDraining はドレイニング状態を設定します。
func (h *Health) SetDraining(v bool) { h.draining.Store(v) }

// Draining はドレイン中なら true を返します。
func (h *Health) Draining() bool { return h.draining.Load() }

// healthResponse はチェーンの形状を含むヘルスチェック応答です。
type healthResponse struct {
	Status       string `json:"status"`
	Nodes        int    `json:"nodes"`
	PairsPerNode int    `json:"pairs_per_node"`
	Workers      int    `json:"workers"`
	MaxWorkers   int    `json:"max_workers"`
}

func (h *Health) handler(kv *kvHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := kv.shape()
		if h.Draining() {
			resp.Status = "draining"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Status = "ok"
		writeJSON(w, http.StatusOK, resp)
	}
}

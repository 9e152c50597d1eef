// Package scenario は負荷試験のリクエストを生成します。
package scenario

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

// Generator は 負荷試験のターゲットを生成する構造体です。
// 点操作は GET/PUT /kvs/{key}、バルク操作は POST /kvs/_bulk を使います。
type Generator struct {
	BaseURL   string
	Keys      int
	ReadRatio float64
	BulkRatio float64
	BulkSize  int
	ReadOnly  bool

	rnd *rand.Rand
	mu  sync.Mutex
}

type pair struct {
	Key   uint64 `json:"key"`
	Value uint64 `json:"value"`
}

// NewGenerator は 指定されたパラメータに基づいて新しい Generator を作成します。
func NewGenerator(base string, keys int, readRatio, bulkRatio float64, bulkSize int, readOnly bool) *Generator {
	return newGenerator(base, keys, readRatio, bulkRatio, bulkSize, readOnly, time.Now().UnixNano())
}

func newGenerator(base string, keys int, readRatio, bulkRatio float64, bulkSize int, readOnly bool, seed int64) *Generator {
	if keys < 1 {
		keys = 1
	}
	if bulkSize < 1 {
		bulkSize = 1
	}
	return &Generator{
		BaseURL:   base,
		Keys:      keys,
		ReadRatio: clamp(readRatio, 0, 1),
		BulkRatio: clamp(bulkRatio, 0, 1),
		BulkSize:  bulkSize,
		ReadOnly:  readOnly,
		rnd:       rand.New(rand.NewSource(seed)),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Targeter は vegeta.Targeter インターフェースを実装し、負荷試験のターゲットを生成します。
func (g *Generator) Targeter() vegeta.Targeter {
	return func(t *vegeta.Target) error {
		g.mu.Lock()
		defer g.mu.Unlock()

		if g.ReadOnly {
			g.get(t)
			return nil
		}
		if g.BulkRatio > 0 && g.rnd.Float64() < g.BulkRatio {
			return g.bulk(t)
		}
		if g.rnd.Float64() < g.ReadRatio {
			g.get(t)
			return nil
		}
		return g.put(t)
	}
}

func (g *Generator) key() uint64 {
	return uint64(g.rnd.Intn(g.Keys))
}

func (g *Generator) get(t *vegeta.Target) {
	t.Method = http.MethodGet
	t.URL = fmt.Sprintf("%s/kvs/%d", g.BaseURL, g.key())
	t.Body = nil
	t.Header = nil
}

func (g *Generator) put(t *vegeta.Target) error {
	b, err := json.Marshal(map[string]uint64{"value": g.rnd.Uint64()})
	if err != nil {
		return err
	}
	t.Method = http.MethodPut
	t.URL = fmt.Sprintf("%s/kvs/%d", g.BaseURL, g.key())
	t.Body = b
	setJSON(t)
	return nil
}

func (g *Generator) bulk(t *vegeta.Target) error {
	pairs := make([]pair, g.BulkSize)
	for i := range pairs {
		pairs[i] = pair{Key: g.key(), Value: g.rnd.Uint64()}
	}
	b, err := json.Marshal(map[string][]pair{"pairs": pairs})
	if err != nil {
		return err
	}
	t.Method = http.MethodPost
	t.URL = g.BaseURL + "/kvs/_bulk"
	t.Body = b
	setJSON(t)
	return nil
}

func setJSON(t *vegeta.Target) {
	if t.Header == nil {
		t.Header = make(http.Header, 1)
	}
	t.Header.Set("Content-Type", "application/json")
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prom は Prometheus を使ったメトリクス実装です。
type Prom struct {
	insertNew    prometheus.Counter
	insertUpdate prometheus.Counter
	findHit      prometheus.Counter
	findMiss     prometheus.Counter
	nodeAlloc    prometheus.Counter
	allocFailed  prometheus.Counter
	nodes        prometheus.Gauge
	bulkItems    *prometheus.CounterVec
	bulkDuration *prometheus.HistogramVec
}

// NewProm は Prometheus を使ったメトリクス実装を初期化し、reg に登録します。
// reg が nil の場合は prometheus.DefaultRegisterer を使います。
func NewProm(namespace string, reg prometheus.Registerer) *Prom {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	makeC := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	p := &Prom{
		insertNew:    makeC("insert_new_total", "Number of new keys inserted"),
		insertUpdate: makeC("insert_update_total", "Number of inserts that updated an existing key"),
		findHit:      makeC("find_hit_total", "Number of lookups that found the key"),
		findMiss:     makeC("find_miss_total", "Number of lookups that did not find the key"),
		nodeAlloc:    makeC("node_alloc_total", "Number of nodes appended to the chain"),
		allocFailed:  makeC("node_alloc_failed_total", "Number of failed node allocations"),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Current number of nodes in the chain",
		}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Number of items processed by bulk operations",
		}, []string{"op"}),
		bulkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_duration_seconds",
			Help:      "Duration of bulk operations",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"op"}),
	}

	// 同じ Registerer に 2 回登録すると panic するので、呼び出し側で 1 回だけ呼ぶ
	reg.MustRegister(
		p.insertNew, p.insertUpdate, p.findHit, p.findMiss,
		p.nodeAlloc, p.allocFailed, p.nodes, p.bulkItems, p.bulkDuration,
	)
	return p
}

// IncInsertNew は新しいキーが追加されたことをカウントします。
func (p *Prom) IncInsertNew() { p.insertNew.Inc() }

// IncInsertUpdate は既存のキーが更新されたことをカウントします。
func (p *Prom) IncInsertUpdate() { p.insertUpdate.Inc() }

// IncFindHit は検索ヒットをカウントします。
func (p *Prom) IncFindHit() { p.findHit.Inc() }

// IncFindMiss は検索ミスをカウントします。
func (p *Prom) IncFindMiss() { p.findMiss.Inc() }

// IncNodeAlloc はノードの確保をカウントします。
func (p *Prom) IncNodeAlloc() { p.nodeAlloc.Inc() }

// IncAllocFailed はノード確保の失敗をカウントします。
func (p *Prom) IncAllocFailed() { p.allocFailed.Inc() }

// SetNodes はチェーンのノード数を設定します。
func (p *Prom) SetNodes(n int) {
	if n >= 0 {
		p.nodes.Set(float64(n))
	}
}

// ObserveBulk はバルク操作の件数と所要時間を記録します。
func (p *Prom) ObserveBulk(op string, items int, d time.Duration) {
	if items > 0 {
		p.bulkItems.WithLabelValues(op).Add(float64(items))
	}
	p.bulkDuration.WithLabelValues(op).Observe(d.Seconds())
}

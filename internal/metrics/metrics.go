package metrics

import (
	"sync/atomic"
	"time"
)

// Interface はメトリクス更新用抽象
type Interface interface {
	IncInsertNew()
	IncInsertUpdate()
	IncFindHit()
	IncFindMiss()
	IncNodeAlloc()
	IncAllocFailed()
	SetNodes(n int)
	ObserveBulk(op string, items int, d time.Duration)
}

// バルク操作の種別
const (
	OpInsertRange = "insert_range"
	OpFindRange   = "find_range"
)

// Noop は何もしないメトリクス実装
type Noop struct{}

// IncInsertNew は何もしないメトリクス実装
func (Noop) IncInsertNew() {}

// IncInsertUpdate は何もしないメトリクス実装
func (Noop) IncInsertUpdate() {}

// IncFindHit は何もしないメトリクス実装
func (Noop) IncFindHit() {}

// IncFindMiss は何もしないメトリクス実装
func (Noop) IncFindMiss() {}

// IncNodeAlloc は何もしないメトリクス実装
func (Noop) IncNodeAlloc() {}

// IncAllocFailed は何もしないメトリクス実装
func (Noop) IncAllocFailed() {}

// SetNodes は何もしないメトリクス実装
func (Noop) SetNodes(_ int) {}

// ObserveBulk は何もしないメトリクス実装
func (Noop) ObserveBulk(_ string, _ int, _ time.Duration) {}

// Simple はシンプルなメトリクス実装です。
type Simple struct {
	InsertNew    atomic.Uint64
	InsertUpdate atomic.Uint64
	FindHit      atomic.Uint64
	FindMiss     atomic.Uint64
	NodeAlloc    atomic.Uint64
	AllocFailed  atomic.Uint64
	Nodes        atomic.Uint64
	BulkCalls    atomic.Uint64
	BulkItems    atomic.Uint64
}

// NewSimple は新しい Simple メトリクスを作成します。
func NewSimple() *Simple { return &Simple{} }

// IncInsertNew は新しいキーが追加されたことをカウントします。
func (m *Simple) IncInsertNew() { m.InsertNew.Add(1) }

// IncInsertUpdate は既存のキーが更新されたことをカウントします。
func (m *Simple) IncInsertUpdate() { m.InsertUpdate.Add(1) }

// IncFindHit は検索ヒットをカウントします。
func (m *Simple) IncFindHit() { m.FindHit.Add(1) }

// IncFindMiss は検索ミスをカウントします。
func (m *Simple) IncFindMiss() { m.FindMiss.Add(1) }

// IncNodeAlloc はノードの確保をカウントします。
func (m *Simple) IncNodeAlloc() { m.NodeAlloc.Add(1) }

// IncAllocFailed はノード確保の失敗をカウントします。
func (m *Simple) IncAllocFailed() { m.AllocFailed.Add(1) }

// SetNodes はチェーンのノード数を設定します。
func (m *Simple) SetNodes(n int) {
	if n >= 0 {
		m.Nodes.Store(uint64(n))
	}
}

// ObserveBulk はバルク操作の呼び出し回数と件数を加算します。
func (m *Simple) ObserveBulk(_ string, items int, _ time.Duration) {
	m.BulkCalls.Add(1)
	if items > 0 {
		m.BulkItems.Add(uint64(items))
	}
}

// Package list は固定容量ノードを単方向に連結した並行キー/値コンテナを提供します。
//
// ノードはそれぞれ自身のロックを持ち、挿入・検索はルートから順にノードを 1 つずつロックして走査します。
// ハッシュは使わず、検索はチェーンの線形走査です。チェーンは末尾にのみ伸び、Clear でのみ縮みます。
package list

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/amakane-hakari/clist/internal/metrics"
)

type node[K comparable, V any] struct {
	mu    sync.Mutex
	size  int         // slots[:size] が有効
	next  *node[K, V] // 満杯のノードだけが持つ
	slots []Pair[K, V]
}

// indexOf は有効スロット中の key の位置を返します。呼び出し側で mu を保持していること。
func (n *node[K, V]) indexOf(key K) int {
	for i := 0; i < n.size; i++ {
		if n.slots[i].Key == key {
			return i
		}
	}
	return -1
}

// List は並行キー/値コンテナです。
type List[K comparable, V any] struct {
	cfg      Config
	capacity int
	alloc    Allocator[K, V]
	root     *node[K, V]
	workers  atomic.Int64
	nodes    atomic.Int64
}

// New はヒープ確保の新しい List を作成します。
func New[K comparable, V any](opts ...Option) (*List[K, V], error) {
	return NewWithAllocator[K, V](HeapAllocator[K, V]{}, opts...)
}

// NewWithAllocator はノード確保に alloc を使う新しい List を作成します。
func NewWithAllocator[K comparable, V any](alloc Allocator[K, V], opts ...Option) (*List[K, V], error) {
	cfg := Config{NodeSize: DefaultNodeSize}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.NodeSize <= 0 {
		cfg.NodeSize = DefaultNodeSize
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.MaxWorkers < 0 {
		return nil, fmt.Errorf("%w: max workers %d", ErrInvalidWorkers, cfg.MaxWorkers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = min(runtime.GOMAXPROCS(0), cfg.MaxWorkers)
	}
	if cfg.Workers < 0 || cfg.Workers > cfg.MaxWorkers {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWorkers, cfg.Workers, cfg.MaxWorkers)
	}
	if cfg.ChunkSize < 0 {
		return nil, ErrInvalidChunkSize
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}

	capacity := cfg.PairsPerNode
	if capacity == 0 {
		c, err := PairsPerNode[K, V](cfg.NodeSize)
		if err != nil {
			return nil, fmt.Errorf("%w: node size %d", err, cfg.NodeSize)
		}
		capacity = c
	}
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}

	l := &List[K, V]{
		cfg:      cfg,
		capacity: capacity,
		alloc:    alloc,
	}
	root, err := l.newNode()
	if err != nil {
		return nil, fmt.Errorf("%w: root: %w", ErrAllocation, err)
	}
	l.root = root
	l.workers.Store(int64(cfg.Workers))
	l.nodes.Store(1)
	cfg.Metrics.SetNodes(1)
	return l, nil
}

func (l *List[K, V]) newNode() (*node[K, V], error) {
	slots, err := l.alloc.Allocate(l.capacity)
	if err != nil {
		return nil, err
	}
	return &node[K, V]{slots: slots}, nil
}

// PairsPerNode はノードあたりのペア数を返します。
func (l *List[K, V]) PairsPerNode() int { return l.capacity }

// Workers はバルク操作のワーカー数を返します。
func (l *List[K, V]) Workers() int { return int(l.workers.Load()) }

// MaxWorkers はワーカー数の上限を返します。
func (l *List[K, V]) MaxWorkers() int { return l.cfg.MaxWorkers }

// SetWorkers はバルク操作のワーカー数を設定します。実行中のバルク操作には影響しません。
// n は [1, MaxWorkers()] の範囲でなければなりません。
func (l *List[K, V]) SetWorkers(n int) error {
	if n < 1 || n > l.cfg.MaxWorkers {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWorkers, n, l.cfg.MaxWorkers)
	}
	l.workers.Store(int64(n))
	return nil
}

// Insert はキーと値を挿入します。キーが既にあれば値を上書きします。
// ノード確保に失敗した場合は ErrAllocation を返し、チェーンは変化しません。
func (l *List[K, V]) Insert(key K, value V) error {
	cur := l.root
	for {
		cur.mu.Lock()
		if i := cur.indexOf(key); i >= 0 {
			cur.slots[i].Value = value
			cur.mu.Unlock()
			l.cfg.Metrics.IncInsertUpdate()
			return nil
		}
		if cur.size < len(cur.slots) {
			cur.slots[cur.size] = Pair[K, V]{Key: key, Value: value}
			cur.size++
			cur.mu.Unlock()
			l.cfg.Metrics.IncInsertNew()
			return nil
		}
		if cur.next == nil {
			// next == nil の確認と連結を同じロック区間で行うので、後続ノードは 1 つしか作られない
			nn, err := l.newNode()
			if err != nil {
				cur.mu.Unlock()
				l.cfg.Metrics.IncAllocFailed()
				if l.cfg.Logger != nil {
					l.cfg.Logger.Error("list.insert.alloc_failed", "key", key, "err", err)
				}
				return fmt.Errorf("%w: %w", ErrAllocation, err)
			}
			cur.next = nn
			n := l.nodes.Add(1)
			l.cfg.Metrics.IncNodeAlloc()
			l.cfg.Metrics.SetNodes(int(n))
			if l.cfg.Logger != nil {
				l.cfg.Logger.Debug("list.grow", "nodes", n)
			}
		}
		next := cur.next
		cur.mu.Unlock()
		cur = next
	}
}

// Find はキーに対応する値を返します。チェーン順で最初に見つかったものを返します。
func (l *List[K, V]) Find(key K) (V, bool) {
	for cur := l.root; cur != nil; {
		cur.mu.Lock()
		if i := cur.indexOf(key); i >= 0 {
			v := cur.slots[i].Value
			cur.mu.Unlock()
			l.cfg.Metrics.IncFindHit()
			return v, true
		}
		next := cur.next
		cur.mu.Unlock()
		cur = next
	}
	l.cfg.Metrics.IncFindMiss()
	var zero V
	return zero, false
}

// Len はリスト内のエントリ数を返します。各ノードのロックを取って数えます。
func (l *List[K, V]) Len() int {
	total := 0
	for cur := l.root; cur != nil; {
		cur.mu.Lock()
		total += cur.size
		next := cur.next
		cur.mu.Unlock()
		cur = next
	}
	return total
}

// NodeCount はチェーンのノード数を返します。
func (l *List[K, V]) NodeCount() int {
	n := 0
	for cur := l.root; cur != nil; {
		cur.mu.Lock()
		next := cur.next
		cur.mu.Unlock()
		n++
		cur = next
	}
	return n
}

// Occupancy はチェーン順に各ノードの占有数を返します。
func (l *List[K, V]) Occupancy() []int {
	var out []int
	for cur := l.root; cur != nil; {
		cur.mu.Lock()
		out = append(out, cur.size)
		next := cur.next
		cur.mu.Unlock()
		cur = next
	}
	return out
}

// Clear はルート以外のノードをすべて解放し、ルートを空に戻します。
// 他の操作と並行して呼んではいけません。
func (l *List[K, V]) Clear() {
	root := l.root
	root.mu.Lock()
	cur := root.next
	root.next = nil
	root.size = 0
	clear(root.slots)
	root.mu.Unlock()

	released := 0
	for cur != nil {
		next := cur.next
		cur.next = nil
		l.alloc.Release(cur.slots)
		cur.slots = nil
		cur = next
		released++
	}
	l.nodes.Store(1)
	l.cfg.Metrics.SetNodes(1)
	if l.cfg.Logger != nil {
		l.cfg.Logger.Info("list.clear", "released", released)
	}
}

// Close は Clear に加えてルートのスロットも解放します。以後 List を使ってはいけません。
func (l *List[K, V]) Close() {
	l.Clear()
	l.alloc.Release(l.root.slots)
	l.root.slots = nil
	l.nodes.Store(0)
	l.cfg.Metrics.SetNodes(0)
}

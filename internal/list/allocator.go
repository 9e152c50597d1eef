package list

import (
	"errors"
	"fmt"
	"sync"
)

// Allocator はノードのスロット領域を確保・解放する戦略です。
// Allocate は長さ n のゼロ値スロットを返します。Release されたスロットは以後使われません。
type Allocator[K comparable, V any] interface {
	Allocate(n int) ([]Pair[K, V], error)
	Release(slots []Pair[K, V])
}

// HeapAllocator はノードごとに make する Allocator です。
type HeapAllocator[K comparable, V any] struct{}

// Allocate は長さ n のスロットを確保します。
func (HeapAllocator[K, V]) Allocate(n int) ([]Pair[K, V], error) {
	if n < 1 {
		return nil, ErrInvalidCapacity
	}
	return make([]Pair[K, V], n), nil
}

// Release は何もしません（GC に任せます）。
func (HeapAllocator[K, V]) Release([]Pair[K, V]) {}

var (
	// ErrArenaExhausted は生存ノード数が上限に達したときに返されます。
	ErrArenaExhausted = errors.New("arena: max nodes exceeded")
	// ErrArenaWindowMismatch は最初の Allocate と異なる長さを要求したときに返されます。
	ErrArenaWindowMismatch = errors.New("arena: window size mismatch")
)

// DefaultSlabNodes はスラブ 1 枚あたりのノード数の既定値です。
const DefaultSlabNodes = 1024

// ArenaStats はアリーナの使用状況です。
type ArenaStats struct {
	Slabs       int // 確保済みスラブ数
	LiveNodes   int // 貸し出し中のノード数
	FreeWindows int // 再利用待ちのウィンドウ数
	MaxNodes    int // 0 なら無制限
}

// ArenaAllocator は大きなスラブからノード単位のウィンドウを切り出す Allocator です。
// 連続するノードのスロットが同じスラブ上に並ぶため、チェーン走査のキャッシュ局所性が上がります。
// 解放されたウィンドウはフリーリストで再利用します。並行利用可能です。
type ArenaAllocator[K comparable, V any] struct {
	mu        sync.Mutex
	slabNodes int
	maxNodes  int
	window    int // 最初の Allocate で決まるウィンドウ長
	slabs     [][]Pair[K, V]
	offset    int // 現在のスラブ内の次のウィンドウ位置（ウィンドウ数）
	free      [][]Pair[K, V]
	live      int
}

// NewArenaAllocator は新しい ArenaAllocator を作成します。
// slabNodes が 1 未満なら DefaultSlabNodes、maxNodes が 0 以下なら上限なしです。
func NewArenaAllocator[K comparable, V any](slabNodes, maxNodes int) *ArenaAllocator[K, V] {
	if slabNodes < 1 {
		slabNodes = DefaultSlabNodes
	}
	if maxNodes < 0 {
		maxNodes = 0
	}
	return &ArenaAllocator[K, V]{
		slabNodes: slabNodes,
		maxNodes:  maxNodes,
	}
}

// Allocate は長さ n のウィンドウを返します。
func (a *ArenaAllocator[K, V]) Allocate(n int) ([]Pair[K, V], error) {
	if n < 1 {
		return nil, ErrInvalidCapacity
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.window == 0 {
		a.window = n
	} else if n != a.window {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArenaWindowMismatch, a.window, n)
	}
	if a.maxNodes > 0 && a.live >= a.maxNodes {
		return nil, ErrArenaExhausted
	}

	if k := len(a.free); k > 0 {
		w := a.free[k-1]
		a.free[k-1] = nil
		a.free = a.free[:k-1]
		a.live++
		return w, nil
	}

	if len(a.slabs) == 0 || a.offset == a.slabNodes {
		a.slabs = append(a.slabs, make([]Pair[K, V], a.slabNodes*a.window))
		a.offset = 0
	}
	slab := a.slabs[len(a.slabs)-1]
	lo := a.offset * a.window
	hi := lo + a.window
	a.offset++
	a.live++
	// cap を絞って隣のウィンドウへの append を防ぐ
	return slab[lo:hi:hi], nil
}

// Release はウィンドウをゼロクリアしてフリーリストに戻します。
func (a *ArenaAllocator[K, V]) Release(slots []Pair[K, V]) {
	if len(slots) == 0 {
		return
	}
	clear(slots)
	a.mu.Lock()
	a.free = append(a.free, slots)
	a.live--
	a.mu.Unlock()
}

// Stats は現在の使用状況を返します。
func (a *ArenaAllocator[K, V]) Stats() ArenaStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ArenaStats{
		Slabs:       len(a.slabs),
		LiveNodes:   a.live,
		FreeWindows: len(a.free),
		MaxNodes:    a.maxNodes,
	}
}

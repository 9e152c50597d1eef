package list

import (
	"errors"
	"sync"
	"unsafe"
)

// Pair はキーと値の組です。
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Lookup は Find の結果 1 件分です。Found が false の場合 Value はゼロ値です。
type Lookup[V any] struct {
	Value V
	Found bool
}

// DefaultNodeSize はノード 1 つあたりの目標バイト数です。
// ノードあたりのペア数を決めるための容量目標で、メモリ配置の保証ではありません。
// スロットはノード本体とは別領域(Allocator が返すスライス)に置かれます。
const DefaultNodeSize = 128

// DefaultMaxWorkers はワーカー数上限の既定値です。
const DefaultMaxWorkers = 1024

// metadataSize はノードのスロット以外の領域（ロック・占有数・next）のバイト数です。
// slots のスライスヘッダは含めません。
const metadataSize = int(unsafe.Sizeof(sync.Mutex{}) + unsafe.Sizeof(int(0)) + unsafe.Sizeof(uintptr(0)))

var (
	// ErrNodeSizeTooSmall はノードサイズにペアが 1 つも収まらないときに返されます。
	ErrNodeSizeTooSmall = errors.New("list: node size too small for a single pair")
	// ErrInvalidCapacity はノードあたりのペア数が 1 未満のときに返されます。
	ErrInvalidCapacity = errors.New("list: pairs per node must be positive")
	// ErrInvalidWorkers はワーカー数が 1 未満か上限を超えるときに返されます。
	ErrInvalidWorkers = errors.New("list: workers out of range")
	// ErrInvalidChunkSize はチャンクサイズが負のときに返されます。
	ErrInvalidChunkSize = errors.New("list: chunk size must not be negative")
	// ErrAllocation はノードの確保に失敗したときに返されます。
	ErrAllocation = errors.New("list: node allocation failed")
	// ErrLengthMismatch は結果バッファがキーより短いときに返されます。
	ErrLengthMismatch = errors.New("list: results shorter than keys")
	// ErrOutOfRange は終端カーソルを参照または前進させたときに返されます。
	ErrOutOfRange = errors.New("list: cursor out of range")
)

// PairsPerNode は nodeSize バイトからメタデータ分を引いた領域に収まる Pair[K, V] の数を返します。
// 結果は容量の目標値で、ノードとスロットが 1 つのキャッシュラインに収まることは保証しません。
func PairsPerNode[K comparable, V any](nodeSize int) (int, error) {
	pairSize := int(unsafe.Sizeof(Pair[K, V]{}))
	if pairSize == 0 {
		pairSize = 1
	}
	if nodeSize <= metadataSize+pairSize {
		return 0, ErrNodeSizeTooSmall
	}
	return (nodeSize - metadataSize) / pairSize, nil
}

// Package launcher は [0, N) をチャンクに分割し、チャンクごとに 1 つのタスクを並列実行します。
//
// タスクは呼び出しごとに生成され、関数が戻る前にすべて join されます（常駐プールは持ちません）。
package launcher

import (
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Status はランチャーの実行結果を表します。
type Status int

const (
	// StatusSuccess はすべてのタスクが完了したことを表します。
	StatusSuccess Status = iota
	// StatusFailure は引数不正またはタスクの panic を表します。
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrInvalidWorkers はワーカー数が 1 未満のときに返されます。
	ErrInvalidWorkers = errors.New("launcher: workers must be positive")
	// ErrInvalidChunkSize はチャンクサイズが 1 未満のときに返されます。
	ErrInvalidChunkSize = errors.New("launcher: chunk size must be positive")
	// ErrNegativeTotal はアイテム総数が負のときに返されます。
	ErrNegativeTotal = errors.New("launcher: total must not be negative")
)

// PanicError はタスク内で発生した panic を表します。
// 複数のチャンクが panic した場合、ランチャーはそれぞれの PanicError を errors.Join でまとめて返します。
type PanicError struct {
	Chunk int
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("launcher: chunk %d panicked: %v", e.Chunk, e.Value)
}

// Func はチャンクごとに呼ばれる関数です。
// 担当範囲は [chunk*chunkSize, chunk*chunkSize+chunkSize) で、total を超える分の境界チェックは関数側の責務です。
type Func func(chunk, chunkSize int)

// LaunchWorkers はワーカー数を固定して実行します。
// chunkSize = ceil(total/workers)、チャンク数は workers で、末尾のチャンクは範囲外になり得ます。
func LaunchWorkers(total, workers int, fn Func) (Status, error) {
	if workers < 1 {
		return StatusFailure, ErrInvalidWorkers
	}
	if total < 0 {
		return StatusFailure, ErrNegativeTotal
	}
	if total == 0 {
		return StatusSuccess, nil
	}
	chunkSize := ceilDiv(total, workers)
	return run(workers, chunkSize, fn)
}

// LaunchChunks はチャンクサイズを固定して実行します。チャンク数は ceil(total/chunkSize) です。
func LaunchChunks(total, chunkSize int, fn Func) (Status, error) {
	if chunkSize < 1 {
		return StatusFailure, ErrInvalidChunkSize
	}
	if total < 0 {
		return StatusFailure, ErrNegativeTotal
	}
	if total == 0 {
		return StatusSuccess, nil
	}
	return run(ceilDiv(total, chunkSize), chunkSize, fn)
}

// Bounds はチャンクの担当範囲 [lo, hi) を total で切り詰めて返します。範囲外のチャンクは lo == hi です。
func Bounds(chunk, chunkSize, total int) (lo, hi int) {
	lo = min(chunk*chunkSize, total)
	hi = min(lo+chunkSize, total)
	return lo, hi
}

// run はチャンクごとにタスクを起動して待ちます。
// Wait は最初のエラーしか返さないので、panic はチャンクごとに保持してまとめて返します。
func run(numChunks, chunkSize int, fn Func) (Status, error) {
	var g errgroup.Group
	errs := make([]error, numChunks)
	for chunk := 0; chunk < numChunks; chunk++ {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = &PanicError{Chunk: chunk, Value: rec, Stack: debug.Stack()}
					errs[chunk] = err
				}
			}()
			fn(chunk, chunkSize)
			return nil
		})
	}
	if g.Wait() != nil {
		return StatusFailure, errors.Join(errs...)
	}
	return StatusSuccess, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

package list

import (
	"errors"
	"fmt"
	"time"

	"github.com/amakane-hakari/clist/internal/launcher"
	"github.com/amakane-hakari/clist/internal/metrics"
)

// partition は n 件のバルク操作の分割を決めます。
// ChunkSize が設定されていればチャンクサイズ固定、そうでなければワーカー数固定です。
// どちらの場合もチャンク数(= タスク数)は MaxWorkers を超えません。
type partition struct {
	chunks    int
	chunkSize int
	fixed     bool // チャンクサイズ固定
}

func (l *List[K, V]) partition(n int) partition {
	if cs := l.cfg.ChunkSize; cs > 0 {
		cs = max(cs, ceilDiv(n, l.cfg.MaxWorkers))
		return partition{chunks: ceilDiv(n, cs), chunkSize: cs, fixed: true}
	}
	w := l.Workers()
	return partition{chunks: w, chunkSize: ceilDiv(n, w)}
}

func (p partition) launch(n int, body func(chunk, lo, hi int)) error {
	fn := func(chunk, chunkSize int) {
		lo, hi := launcher.Bounds(chunk, chunkSize, n)
		if lo < hi {
			body(chunk, lo, hi)
		}
	}
	var err error
	if p.fixed {
		_, err = launcher.LaunchChunks(n, p.chunkSize, fn)
	} else {
		_, err = launcher.LaunchWorkers(n, p.chunks, fn)
	}
	return err
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// InsertRange は pairs をチャンクに分けて並列に Insert します。
// チャンク内の順序は保たれ、チャンク間の順序は保証しません。
// チャンクは最初の挿入エラーで打ち切られ、各チャンクのエラーをまとめて返します。
func (l *List[K, V]) InsertRange(pairs []Pair[K, V]) error {
	start := time.Now()
	p := l.partition(len(pairs))
	errs := make([]error, p.chunks)

	err := p.launch(len(pairs), func(chunk, lo, hi int) {
		for i := lo; i < hi; i++ {
			if err := l.Insert(pairs[i].Key, pairs[i].Value); err != nil {
				errs[chunk] = fmt.Errorf("chunk %d at %d: %w", chunk, i, err)
				return
			}
		}
	})
	l.cfg.Metrics.ObserveBulk(metrics.OpInsertRange, len(pairs), time.Since(start))
	if err != nil {
		return fmt.Errorf("list: insert range: %w", err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if l.cfg.Logger != nil {
		l.cfg.Logger.Debug("list.bulk.insert",
			"count", len(pairs), "chunks", p.chunks, "chunk_size", p.chunkSize, "duration", time.Since(start))
	}
	return nil
}

// FindRange は keys を並列に検索し、keys と同じ順序で結果を返します。
func (l *List[K, V]) FindRange(keys []K) ([]Lookup[V], error) {
	results := make([]Lookup[V], len(keys))
	if err := l.FindRangeInto(keys, results); err != nil {
		return nil, err
	}
	return results, nil
}

// FindRangeInto は keys を並列に検索し、results[i] に keys[i] の結果を書き込みます。
func (l *List[K, V]) FindRangeInto(keys []K, results []Lookup[V]) error {
	if len(results) < len(keys) {
		return fmt.Errorf("%w: %d < %d", ErrLengthMismatch, len(results), len(keys))
	}
	start := time.Now()
	p := l.partition(len(keys))

	err := p.launch(len(keys), func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			v, ok := l.Find(keys[i])
			results[i] = Lookup[V]{Value: v, Found: ok}
		}
	})
	l.cfg.Metrics.ObserveBulk(metrics.OpFindRange, len(keys), time.Since(start))
	if err != nil {
		return fmt.Errorf("list: find range: %w", err)
	}
	if l.cfg.Logger != nil {
		l.cfg.Logger.Debug("list.bulk.find",
			"count", len(keys), "chunks", p.chunks, "chunk_size", p.chunkSize, "duration", time.Since(start))
	}
	return nil
}

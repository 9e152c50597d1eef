package list

import "iter"

// Cursor はチェーン順の前方向カーソルです。ロックを取らないため、変更と並行して使ってはいけません。
type Cursor[K comparable, V any] struct {
	n   *node[K, V]
	idx int
}

// Begin は先頭エントリを指すカーソルを返します。空なら End と等しくなります。
func (l *List[K, V]) Begin() *Cursor[K, V] {
	return &Cursor[K, V]{n: firstNonEmpty(l.root)}
}

// End は終端カーソルを返します。
func (l *List[K, V]) End() *Cursor[K, V] {
	return &Cursor[K, V]{}
}

func firstNonEmpty[K comparable, V any](n *node[K, V]) *node[K, V] {
	for n != nil && n.size == 0 {
		n = n.next
	}
	return n
}

// Valid はカーソルが終端でなければ true を返します。
func (c *Cursor[K, V]) Valid() bool { return c.n != nil }

// Equal は 2 つのカーソルが同じ位置を指していれば true を返します。
func (c *Cursor[K, V]) Equal(o *Cursor[K, V]) bool {
	return c.n == o.n && c.idx == o.idx
}

// Pair は現在位置のエントリを返します。終端では ErrOutOfRange を返します。
func (c *Cursor[K, V]) Pair() (Pair[K, V], error) {
	if c.n == nil {
		return Pair[K, V]{}, ErrOutOfRange
	}
	return c.n.slots[c.idx], nil
}

// Next は次のエントリへ進みます。ノード末尾では次のノードの先頭へ移ります。
// 終端から進めようとすると ErrOutOfRange を返します。
func (c *Cursor[K, V]) Next() error {
	if c.n == nil {
		return ErrOutOfRange
	}
	c.idx++
	if c.idx < c.n.size {
		return nil
	}
	c.n = firstNonEmpty(c.n.next)
	c.idx = 0
	return nil
}

// All はチェーン順にすべてのエントリを返すイテレータです。
func (l *List[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for c := l.Begin(); c.Valid(); _ = c.Next() {
			p := c.n.slots[c.idx]
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

package list

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_TraversalCompleteness(t *testing.T) {
	l := newList[int, int](t, WithPairsPerNode(5))
	const n = 23
	for i := 0; i < n; i++ {
		require.NoError(t, l.Insert(i, i*i))
	}

	var got []Pair[int, int]
	for c := l.Begin(); !c.Equal(l.End()); {
		p, err := c.Pair()
		require.NoError(t, err)
		got = append(got, p)
		require.NoError(t, c.Next())
	}
	require.Len(t, got, n)
	// 単一ゴルーチンで挿入したのでチェーン順は挿入順と一致する
	for i, p := range got {
		assert.Equal(t, Pair[int, int]{Key: i, Value: i * i}, p)
	}
}

func TestCursor_EndMisuse(t *testing.T) {
	l := newList[int, int](t)

	end := l.End()
	assert.False(t, end.Valid())
	_, err := end.Pair()
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, end.Next(), ErrOutOfRange)

	// 空リストでは Begin == End
	assert.True(t, l.Begin().Equal(end))

	require.NoError(t, l.Insert(1, 1))
	c := l.Begin()
	require.True(t, c.Valid())
	require.NoError(t, c.Next())
	assert.True(t, c.Equal(end))
	assert.ErrorIs(t, c.Next(), ErrOutOfRange)
}

func TestCursor_CrossesNodeBoundary(t *testing.T) {
	l := newList[int, int](t, WithPairsPerNode(2))
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Insert(i, i))
	}
	c := l.Begin()
	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	p, err := c.Pair()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Key)
	assert.Same(t, l.root.next, c.n)
}

func TestAll_StopsEarly(t *testing.T) {
	l := newList[int, int](t, WithPairsPerNode(2))
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Insert(i, i))
	}
	var seen []int
	for k := range l.All() {
		if k == 4 {
			break
		}
		seen = append(seen, k)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, seen)

	m := map[int]int{}
	for k, v := range l.All() {
		m[k] = v
	}
	assert.Len(t, m, 10)
}

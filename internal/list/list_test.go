package list

import (
	"fmt"
	"sync"
	"testing"
	"unsafe"

	"github.com/amakane-hakari/clist/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newList[K comparable, V any](t testing.TB, opts ...Option) *List[K, V] {
	t.Helper()
	l, err := New[K, V](opts...)
	require.NoError(t, err)
	return l
}

func TestList_ConcreteScenario(t *testing.T) {
	l := newList[uint32, uint32](t, WithPairsPerNode(5))

	for i := uint32(0); i < 12; i++ {
		require.NoError(t, l.Insert(i, i+12))
	}

	assert.Equal(t, []int{5, 5, 2}, l.Occupancy())
	assert.Equal(t, 3, l.NodeCount())

	v, ok := l.Find(7)
	assert.True(t, ok)
	assert.Equal(t, uint32(19), v)

	_, ok = l.Find(99)
	assert.False(t, ok)

	assert.Equal(t, 12, l.Len())
}

func TestList_SingleWriterLastValueWins(t *testing.T) {
	l := newList[int, string](t, WithPairsPerNode(3))
	model := map[int]string{}
	for i := 0; i < 200; i++ {
		k := (i * 7) % 31
		v := fmt.Sprintf("v%d", i)
		require.NoError(t, l.Insert(k, v))
		model[k] = v
	}
	for k, want := range model {
		got, ok := l.Find(k)
		require.True(t, ok, "key %d", k)
		assert.Equal(t, want, got, "key %d", k)
	}
	_, ok := l.Find(1000)
	assert.False(t, ok)
	assert.Equal(t, len(model), l.Len())
}

func TestList_CapacityDrivenGrowth(t *testing.T) {
	const per = 4
	for _, tc := range []struct{ m, r int }{{0, 1}, {0, 4}, {1, 1}, {2, 3}, {5, 4}} {
		t.Run(fmt.Sprintf("M=%d,r=%d", tc.m, tc.r), func(t *testing.T) {
			l := newList[int, int](t, WithPairsPerNode(per))
			n := per*tc.m + tc.r
			for i := 0; i < n; i++ {
				require.NoError(t, l.Insert(i, -i))
			}
			occ := l.Occupancy()
			require.Len(t, occ, tc.m+1)
			for i := 0; i < tc.m; i++ {
				assert.Equal(t, per, occ[i])
			}
			assert.Equal(t, tc.r, occ[tc.m])
		})
	}
}

func TestList_UpdateNotDuplicate(t *testing.T) {
	l := newList[int, int](t, WithPairsPerNode(2))
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Insert(i, i))
	}
	// キー 0 はルート、キー 4 は末尾ノードにある
	require.NoError(t, l.Insert(0, 100))
	require.NoError(t, l.Insert(4, 400))

	assert.Equal(t, 5, l.Len())
	count := map[int]int{}
	for k := range l.All() {
		count[k]++
	}
	for k, c := range count {
		assert.Equal(t, 1, c, "key %d", k)
	}
	v, _ := l.Find(0)
	assert.Equal(t, 100, v)
	v, _ = l.Find(4)
	assert.Equal(t, 400, v)
}

func TestList_ConcurrentDisjointInserts(t *testing.T) {
	const (
		goroutines = 8
		perG       = 1500
	)
	sm := metrics.NewSimple()
	l := newList[uint64, uint64](t, WithMetrics(sm))

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				k := uint64(g*perG + i)
				if err := l.Insert(k, k*3+1); err != nil {
					t.Errorf("insert %d: %v", k, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	total := goroutines * perG
	require.Equal(t, total, l.Len())
	for k := uint64(0); k < uint64(total); k++ {
		v, ok := l.Find(k)
		if !ok || v != k*3+1 {
			t.Fatalf("key %d: got (%d, %v)", k, v, ok)
		}
	}
	assert.Equal(t, uint64(total), sm.InsertNew.Load())
	assert.Equal(t, uint64(l.NodeCount()-1), sm.NodeAlloc.Load())
}

func TestList_ConcurrentSameKeysStayUnique(t *testing.T) {
	const goroutines = 16
	const keys = 300
	l := newList[int, int](t, WithPairsPerNode(3))

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for k := 0; k < keys; k++ {
				if err := l.Insert(k, g); err != nil {
					t.Errorf("insert: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, keys, l.Len())
	seen := map[int]int{}
	for k, v := range l.All() {
		seen[k]++
		assert.True(t, v >= 0 && v < goroutines)
	}
	assert.Len(t, seen, keys)
	for k, c := range seen {
		if c != 1 {
			t.Fatalf("key %d appears %d times", k, c)
		}
	}
	// 満杯ノードだけが後続を持つ
	occ := l.Occupancy()
	for i := 0; i < len(occ)-1; i++ {
		assert.Equal(t, 3, occ[i])
	}
}

func TestList_Clear(t *testing.T) {
	l := newList[int, int](t, WithPairsPerNode(4))
	for i := 0; i < 30; i++ {
		require.NoError(t, l.Insert(i, i))
	}
	l.Clear()

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 1, l.NodeCount())
	_, ok := l.Find(3)
	assert.False(t, ok)
	assert.True(t, l.Begin().Equal(l.End()))

	require.NoError(t, l.Insert(3, 33))
	v, ok := l.Find(3)
	assert.True(t, ok)
	assert.Equal(t, 33, v)
}

func TestList_Workers(t *testing.T) {
	l := newList[int, int](t, WithWorkers(3))
	assert.Equal(t, 3, l.Workers())
	require.NoError(t, l.SetWorkers(7))
	assert.Equal(t, 7, l.Workers())
	assert.ErrorIs(t, l.SetWorkers(0), ErrInvalidWorkers)
	assert.Equal(t, 7, l.Workers())
}

func TestList_WorkersUpperBound(t *testing.T) {
	l := newList[int, int](t, WithWorkers(2), WithMaxWorkers(8))
	assert.Equal(t, 8, l.MaxWorkers())
	require.NoError(t, l.SetWorkers(8))
	assert.ErrorIs(t, l.SetWorkers(9), ErrInvalidWorkers)
	assert.ErrorIs(t, l.SetWorkers(1<<40), ErrInvalidWorkers)
	assert.Equal(t, 8, l.Workers())

	// 上限に達していてもバルク操作のタスク数は上限以内
	require.NoError(t, l.InsertRange([]Pair[int, int]{{1, 1}}))
	v, ok := l.Find(1)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	d := newList[int, int](t)
	assert.Equal(t, DefaultMaxWorkers, d.MaxWorkers())
	assert.LessOrEqual(t, d.Workers(), d.MaxWorkers())
	assert.ErrorIs(t, d.SetWorkers(DefaultMaxWorkers+1), ErrInvalidWorkers)
}

func TestNew_Validation(t *testing.T) {
	_, err := New[uint64, uint64](WithNodeSize(metadataSize + 16))
	assert.ErrorIs(t, err, ErrNodeSizeTooSmall)

	_, err = New[int, int](WithPairsPerNode(-1))
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New[int, int](WithWorkers(-2))
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = New[int, int](WithWorkers(5), WithMaxWorkers(4))
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = New[int, int](WithChunkSize(-1))
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	l, err := New[int, int](WithNodeSize(0))
	require.NoError(t, err)
	want, _ := PairsPerNode[int, int](DefaultNodeSize)
	assert.Equal(t, want, l.PairsPerNode())
	assert.Positive(t, l.Workers())
}

func TestPairsPerNode(t *testing.T) {
	pairSize := int(unsafe.Sizeof(Pair[uint32, uint32]{}))
	n, err := PairsPerNode[uint32, uint32](DefaultNodeSize)
	require.NoError(t, err)
	assert.Equal(t, (DefaultNodeSize-metadataSize)/pairSize, n)
	// メタデータとスロットの合計はノードサイズに収まる
	assert.LessOrEqual(t, metadataSize+n*pairSize, DefaultNodeSize)

	n, err = PairsPerNode[uint64, uint64](metadataSize + 17)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = PairsPerNode[uint64, uint64](metadataSize + 16)
	assert.ErrorIs(t, err, ErrNodeSizeTooSmall)
}

func TestList_Close(t *testing.T) {
	a := NewArenaAllocator[int, int](4, 0)
	l, err := NewWithAllocator[int, int](a, WithPairsPerNode(2))
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		require.NoError(t, l.Insert(i, i))
	}
	assert.Equal(t, 4, a.Stats().LiveNodes)
	l.Close()
	assert.Equal(t, 0, a.Stats().LiveNodes)
	assert.Equal(t, 4, a.Stats().FreeWindows)
}

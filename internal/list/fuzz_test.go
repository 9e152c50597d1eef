package list

import (
	"encoding/binary"
	"math/rand"
	"sync"
	"testing"
)

/*
Fuzzで検証する性質（簡易）
1. パニックしない
2. Find は参照モデル（map）と同じ結果を返す（最後の Insert の値、未挿入なら absent）
3. Len() はモデルのキー数と一致する
4. 先頭から End までの走査はモデルと同じ集合を 1 回ずつ返す
5. 満杯のノードだけが後続を持つ
*/
func FuzzListOperations(f *testing.F) {
	seedCorpus := [][]byte{
		{0x00, 3, 3},
		{0x00, 3, 3, 0x01, 3, 0},
		{0x00, 1, 1, 0x00, 1, 2, 0x02, 0, 0, 0x01, 1, 0},
	}
	for _, c := range seedCorpus {
		f.Add(c)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 3 {
			t.Skip()
		}
		per := int(data[0]%6) + 1
		l, err := New[uint8, uint8](WithPairsPerNode(per), WithWorkers(int(data[1]%4)+1))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		model := map[uint8]uint8{}

		const (
			opInsert = 0
			opFind   = 1
			opClear  = 2
		)
		for i := 0; i+2 < len(data) && i < 3*20_000; i += 3 {
			op, k, v := data[i]%8, data[i+1], data[i+2]
			switch {
			case op < 5:
				if err := l.Insert(k, v); err != nil {
					t.Fatalf("insert: %v", err)
				}
				model[k] = v
			case op < 7:
				got, ok := l.Find(k)
				want, wok := model[k]
				if ok != wok || got != want {
					t.Fatalf("find %d: got (%d,%v) want (%d,%v)", k, got, ok, want, wok)
				}
			default:
				l.Clear()
				clear(model)
			}
		}

		if l.Len() != len(model) {
			t.Fatalf("len %d want %d", l.Len(), len(model))
		}
		seen := map[uint8]bool{}
		for c := l.Begin(); c.Valid(); _ = c.Next() {
			p, err := c.Pair()
			if err != nil {
				t.Fatalf("pair: %v", err)
			}
			if seen[p.Key] {
				t.Fatalf("duplicate key %d", p.Key)
			}
			seen[p.Key] = true
			if model[p.Key] != p.Value {
				t.Fatalf("key %d value %d want %d", p.Key, p.Value, model[p.Key])
			}
		}
		if len(seen) != len(model) {
			t.Fatalf("traversal saw %d keys want %d", len(seen), len(model))
		}
		occ := l.Occupancy()
		for i := 0; i < len(occ)-1; i++ {
			if occ[i] != per {
				t.Fatalf("node %d has successor but holds %d/%d", i, occ[i], per)
			}
		}
	})
}

// 簡易並行版: fuzz 入力でキー集合を派生し複数 goroutine が Insert/Find する
func FuzzListConcurrent(f *testing.F) {
	f.Add([]byte("concurrent-seed"))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 2 {
			t.Skip()
		}
		l, err := New[uint16, uint16](WithPairsPerNode(int(data[0]%7) + 1))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		workers := int(data[1]%8) + 2
		var seedBuf [8]byte
		if len(data) > 2 {
			copy(seedBuf[:], data[2:])
		}
		rndSeed := binary.LittleEndian.Uint64(seedBuf[:])

		// ワーカーごとに担当キー帯を分け、値は常にキーから決まるようにする
		var wg sync.WaitGroup
		for w := range workers {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				r := rand.New(rand.NewSource(int64(rndSeed) + int64(w)))
				for range 200 {
					k := uint16(w*64 + r.Intn(64))
					if r.Intn(3) == 0 {
						if v, ok := l.Find(k); ok && v != k^0x5a5a {
							t.Errorf("key %d corrupted: %d", k, v)
						}
						continue
					}
					if err := l.Insert(k, k^0x5a5a); err != nil {
						t.Errorf("insert: %v", err)
					}
				}
			}(w)
		}
		wg.Wait()

		n := 0
		for k, v := range l.All() {
			if v != k^0x5a5a {
				t.Fatalf("key %d corrupted: %d", k, v)
			}
			n++
		}
		if n != l.Len() {
			t.Fatalf("traversal %d != len %d", n, l.Len())
		}
	})
}

//go:build test

package shelf

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bastiangx/shelfserve/pkg/browse"
)

// typing sessions: each query grows one rune at a time
var typing = [][]string{
	{"h", "ha", "had", "hade", "hades"},
	{"e", "el", "eld", "elde", "elden", "eldenr", "eldenring"},
	{"c", "cy", "cyb", "cybe", "cyber", "cyberp", "cyberpunk"},
	{"t", "te", "ter", "tera", "terar", "terarr", "terarri", "terarria"},
	{"赛", "赛博", "赛博朋", "赛博朋克"},
	{"2", "20", "207", "2077"},
}

var states = []browse.FilterState{
	{},
	{PriceRangeID: "under-50"},
	{Genres: []string{"动作", "独立"}},
	{Tags: []string{"手柄支持", "云存档"}},
}

func heapAndGoroutines() (int64, int) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return int64(m.Alloc), runtime.NumGoroutine()
}

func TestMemoryLeakBasic(t *testing.T) {
	for _, iterations := range []int{100, 500, 1000} {
		t.Run(fmt.Sprintf("iterations_%d", iterations), func(t *testing.T) {
			s := loadShelf(t)
			baseMem, baseG := heapAndGoroutines()

			ops := 0
			for i := 0; i < iterations; i++ {
				for _, session := range typing {
					for _, q := range session {
						s.Search(Query{FilterState: browse.FilterState{Search: q}, Sort: browse.SortKeys[i%len(browse.SortKeys)]})
						s.Suggest(q, 8)
						ops++
					}
				}
			}

			mem, g := heapAndGoroutines()
			memPerOp := float64(mem-baseMem) / float64(ops)
			t.Logf("iterations=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
				iterations, ops, mem-baseMem, memPerOp, g-baseG)

			if memPerOp > 1000 {
				t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
			}
			if g-baseG > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", g-baseG)
			}
		})
	}
}

func TestMemoryLeakConcurrent(t *testing.T) {
	memFile, err := os.Create("concurrent_memory.prof")
	if err != nil {
		t.Fatalf("profile file creation failed: %v", err)
	}
	defer func() {
		memFile.Close()
		os.Remove("concurrent_memory.prof")
	}()

	s := loadShelf(t)
	baseMem, baseG := heapAndGoroutines()

	var wg sync.WaitGroup
	var ops atomic.Int64
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 125; i++ {
				for _, session := range typing {
					for _, q := range session {
						state := states[(w+i)%len(states)]
						state.Search = q
						s.Search(Query{FilterState: state, Page: 1 + i%3})
						ops.Add(1)
					}
				}
				// reloads race with readers
				if w == 0 && i%25 == 0 {
					s.Replace(s.Catalog())
				}
			}
		}(w)
	}
	wg.Wait()

	mem, g := heapAndGoroutines()
	memPerOp := float64(mem-baseMem) / float64(ops.Load())
	t.Logf("workers=8 ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		ops.Load(), mem-baseMem, memPerOp, g-baseG)

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		t.Errorf("heap profile write failed: %v", err)
	}
	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if g-baseG > 3 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", g-baseG)
	}
}

package arena

import (
	"testing"

	"github.com/dust-engine/voxarena/arena/block"
)

type benchNode struct {
	Children [4]uint32
}

func newBenchArena(b *testing.B) *Arena[benchNode] {
	b.Helper()
	p, err := block.NewHeapProvider(1<<22, 0)
	if err != nil {
		b.Fatal(err)
	}
	a, err := New[benchNode](p)
	if err != nil {
		b.Fatal(err)
	}
	return a
}

func Benchmark_Alloc_Bump(b *testing.B) {
	a := newBenchArena(b)
	defer a.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Alloc(1); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_AllocFree_FreelistCycle(b *testing.B) {
	a := newBenchArena(b)
	defer a.Close()

	h, err := a.Alloc(4)
	if err != nil {
		b.Fatal(err)
	}
	if err := a.Free(h, 4); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, err := a.Alloc(4)
		if err != nil {
			b.Fatal(err)
		}
		if err := a.Free(h, 4); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Get(b *testing.B) {
	a := newBenchArena(b)
	defer a.Close()

	h, err := a.Alloc(1)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	var sink uint32
	for i := 0; i < b.N; i++ {
		sink += a.Get(h).Children[0]
	}
	_ = sink
}

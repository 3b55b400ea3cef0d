package arena_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dust-engine/voxarena/arena"
	"github.com/dust-engine/voxarena/arena/block"
	"github.com/dust-engine/voxarena/arena/verify"
)

type elem struct {
	Payload [2]uint64
}

// Random alloc/free interleavings against a shadow auditor: live handles
// never overlap, counters track the outstanding runs exactly, and every
// element keeps the value written through its handle.
func Test_Fuzz_RandomAllocFree_ShadowAudit(t *testing.T) {
	p, err := block.NewHeapProvider(1024, 0)
	require.NoError(t, err)
	a, err := arena.New[elem](p)
	require.NoError(t, err)
	defer a.Close()

	rng := rand.New(rand.NewSource(42)) // fixed seed, deterministic run
	aud := verify.NewAuditor()

	type run struct {
		h   arena.Handle
		n   int
		val uint64
	}
	var live []run

	for step := 0; step < 5000; step++ {
		if len(live) == 0 || rng.Intn(5) < 3 {
			n := 1 + rng.Intn(arena.MaxRun)
			h, allocErr := a.Alloc(n)
			require.NoError(t, allocErr, "step %d", step)
			require.NoError(t, aud.OnAlloc(h, n), "step %d: overlap with a live run", step)

			val := rng.Uint64()
			for i := uint32(0); i < uint32(n); i++ {
				a.Get(h.Offset(i)).Payload[0] = val
				a.Get(h.Offset(i)).Payload[1] = uint64(i)
			}
			a.ChangedBlock(h, n)
			live = append(live, run{h: h, n: n, val: val})
		} else {
			i := rng.Intn(len(live))
			r := live[i]

			for j := uint32(0); j < uint32(r.n); j++ {
				e := a.Get(r.h.Offset(j))
				require.Equal(t, r.val, e.Payload[0], "step %d: payload corrupted", step)
				require.Equal(t, uint64(j), e.Payload[1], "step %d: slot order corrupted", step)
			}

			require.NoError(t, a.Free(r.h, r.n), "step %d", step)
			require.NoError(t, aud.OnFree(r.h, r.n), "step %d", step)
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}

		require.Equal(t, aud.Live(), a.Size(), "step %d: size drifted from shadow", step)
		require.Equal(t, aud.Blocks(), a.NumBlocks(), "step %d: block count drifted", step)
	}

	for _, r := range live {
		require.NoError(t, a.Free(r.h, r.n))
		require.NoError(t, aud.OnFree(r.h, r.n))
	}
	require.Equal(t, 0, a.Size())
	require.Equal(t, 0, a.NumBlocks())

	st := a.Stats()
	require.Equal(t, st.AllocCalls, st.FreelistHits+st.BumpAllocs,
		"every successful allocation came from a freelist or the frontier")
}

// The same workload replayed with the same seed yields the same handle
// sequence: allocation is fully deterministic.
func Test_Fuzz_DeterministicReplay(t *testing.T) {
	trace := func() []arena.Handle {
		p, err := block.NewHeapProvider(1024, 0)
		require.NoError(t, err)
		a, err := arena.New[elem](p)
		require.NoError(t, err)
		defer a.Close()

		rng := rand.New(rand.NewSource(7))
		var handles, out []arena.Handle
		var lens []int
		for step := 0; step < 800; step++ {
			if len(handles) == 0 || rng.Intn(2) == 0 {
				n := 1 + rng.Intn(arena.MaxRun)
				h, allocErr := a.Alloc(n)
				require.NoError(t, allocErr)
				handles = append(handles, h)
				lens = append(lens, n)
				out = append(out, h)
			} else {
				i := rng.Intn(len(handles))
				require.NoError(t, a.Free(handles[i], lens[i]))
				handles[i] = handles[len(handles)-1]
				handles = handles[:len(handles)-1]
				lens[i] = lens[len(lens)-1]
				lens = lens[:len(lens)-1]
			}
		}
		return out
	}

	first := trace()
	second := trace()
	require.Equal(t, first, second)
}

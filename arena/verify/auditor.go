package verify

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/dust-engine/voxarena/arena"
)

var (
	// ErrOverlap indicates an allocation covering slots already live.
	ErrOverlap = errors.New("verify: allocation overlaps a live run")

	// ErrUnknownRun indicates a free of a handle with no recorded
	// allocation (double free or foreign handle).
	ErrUnknownRun = errors.New("verify: free of unknown run")

	// ErrLengthDrift indicates a free whose length differs from the
	// recorded allocation length.
	ErrLengthDrift = errors.New("verify: free length differs from allocation")
)

// Auditor shadows an arena's allocations. Live slots are kept in a
// roaring bitmap keyed directly by handle value: a handle already is a
// dense 32-bit slot address, so the bitmap needs no translation layer.
type Auditor struct {
	live *roaring.Bitmap
	runs map[arena.Handle]int
}

// NewAuditor returns an empty auditor.
func NewAuditor() *Auditor {
	return &Auditor{
		live: roaring.New(),
		runs: make(map[arena.Handle]int),
	}
}

// OnAlloc records an n-slot allocation at h, failing if any of its slots
// is already live.
func (a *Auditor) OnAlloc(h arena.Handle, n int) error {
	for i := uint32(0); i < uint32(n); i++ {
		if a.live.Contains(uint32(h) + i) {
			return fmt.Errorf("%w: %#x+%d", ErrOverlap, uint32(h), i)
		}
	}
	a.live.AddRange(uint64(h), uint64(h)+uint64(n))
	a.runs[h] = n
	return nil
}

// OnFree records the free of the n-slot run at h, failing on unknown
// handles and length drift.
func (a *Auditor) OnFree(h arena.Handle, n int) error {
	want, ok := a.runs[h]
	if !ok {
		return fmt.Errorf("%w: %#x", ErrUnknownRun, uint32(h))
	}
	if want != n {
		return fmt.Errorf("%w: allocated %d, freed %d", ErrLengthDrift, want, n)
	}
	a.live.RemoveRange(uint64(h), uint64(h)+uint64(n))
	delete(a.runs, h)
	return nil
}

// Live returns the number of live slots, the shadow of arena.Size.
func (a *Auditor) Live() int {
	return int(a.live.GetCardinality())
}

// Blocks returns the number of live runs, the shadow of arena.NumBlocks.
func (a *Auditor) Blocks() int {
	return len(a.runs)
}

// Handles returns the live run heads with their lengths. The map is the
// auditor's own; callers must not modify it.
func (a *Auditor) Handles() map[arena.Handle]int {
	return a.runs
}

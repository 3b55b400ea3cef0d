package arena

import (
	"fmt"
	"math/bits"
	"reflect"
	"unsafe"

	"github.com/dust-engine/voxarena/arena/block"
)

// MaxRun is the largest contiguous run, in slots, a single allocation may
// cover. Eight matches the fan-out of the octree nodes the arena was built
// to store, and bounds the number of freelists.
const MaxRun = 8

// freeLinkSize is the intrusive freelist link stored in the first bytes
// of a free slot.
const freeLinkSize = 4

// Per-slot run marks. A mark byte lives in arena-side chunk metadata, not
// inside slot memory: an occupied slot's element may legally overwrite
// every byte of the slot, so an intrusive marker could not survive
// occupation. markFree doubles as the zero value of fresh chunk metadata.
const (
	markFree     uint8 = 0
	markInterior uint8 = 0xFF
)

// chunk pairs a provider block with the per-slot run marks used by Free's
// diagnostics.
type chunk struct {
	block block.Block
	marks []uint8
}

// Arena is a handle-based slab allocator for elements of type T. See the
// package documentation for the allocation model and safety contract.
type Arena[T any] struct {
	provider block.Provider
	cfg      config

	stride  uintptr // slot size in bytes, >= freeLinkSize, slot starts 4-aligned
	degree  uint32  // log2 of slots per chunk
	perChnk uint32  // 1 << degree

	chunks []chunk
	heads  [MaxRun]Handle // freelist heads, one per run length
	top    Handle         // bump frontier; HandleNone when tail exhausted

	size     int // live slots
	blocks   int // live allocations
	capacity int // slots across all chunks

	stats  Stats
	closed bool
}

// New creates an arena drawing chunks from p.
//
// T must be plain data: any type reachable through T that the garbage
// collector would need to scan (pointers, slices, maps, strings, channels,
// interfaces, functions) is rejected with ErrElemType. The provider's
// block size must yield more than MaxRun slots per chunk.
func New[T any](p block.Provider, opts ...Option) (*Arena[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	typ := reflect.TypeOf((*T)(nil)).Elem()
	if hasPointers(typ) {
		return nil, fmt.Errorf("%w: %s", ErrElemType, typ)
	}

	stride := typ.Size()
	if stride < freeLinkSize {
		stride = freeLinkSize
	}
	align := uintptr(typ.Align())
	if align < freeLinkSize {
		align = freeLinkSize
	}
	stride = (stride + align - 1) / align * align

	slots := uintptr(p.BlockSize()) / stride
	if slots <= MaxRun {
		return nil, fmt.Errorf("%w: %d bytes / %d-byte slots", ErrBlockTooSmall, p.BlockSize(), stride)
	}
	degree := uint32(bits.Len(uint(slots))) - 1 // floor(log2(slots))

	a := &Arena[T]{
		provider: p,
		cfg:      cfg,
		stride:   stride,
		degree:   degree,
		perChnk:  1 << degree,
		top:      HandleNone,
	}
	for i := range a.heads {
		a.heads[i] = HandleNone
	}
	return a, nil
}

// Alloc returns a handle addressing n contiguous slots in one chunk,
// 1 <= n <= MaxRun. The exact-length freelist is tried first; otherwise
// the bump frontier serves the run, acquiring a new chunk from the
// provider when the frontier is exhausted. Provider failures are
// propagated and leave the arena unchanged, so the caller may free other
// runs and retry.
func (a *Arena[T]) Alloc(n int) (Handle, error) {
	if n < 1 || n > MaxRun {
		return HandleNone, fmt.Errorf("%w: got %d", ErrRunLength, n)
	}
	if a.closed {
		return HandleNone, ErrClosed
	}
	a.stats.AllocCalls++

	// Exact-length freelist first, then the bump frontier.
	if h := a.heads[n-1]; !h.IsNone() {
		a.heads[n-1] = *a.linkAt(h)
		a.stats.FreelistHits++
		a.commit(h, n)
		return h, nil
	}

	if a.top.IsNone() {
		if err := a.grow(); err != nil {
			return HandleNone, err
		}
	}

	h := a.top
	remaining := a.perChnk - h.Slot(a.degree) - uint32(n)
	switch {
	case remaining > MaxRun:
		a.top = h.Offset(uint32(n))
	case remaining > 0:
		// The remainder fits a single run; push it on its length's
		// freelist and close the frontier.
		a.pushFree(h.Offset(uint32(n)), int(remaining))
		a.stats.TailRecycles++
		a.stats.TailSlots += uint64(remaining)
		a.top = HandleNone
	default:
		a.top = HandleNone
	}

	a.stats.BumpAllocs++
	a.commit(h, n)
	return h, nil
}

// Free releases the n-slot run at h. h must be a handle returned by an
// Alloc(n) call and not freed since. Violations are detected through the
// per-slot run marks and rejected with ErrDoubleFree, ErrSizeMismatch, or
// ErrOverlap; a rejected Free changes nothing.
func (a *Arena[T]) Free(h Handle, n int) error {
	if n < 1 || n > MaxRun {
		return fmt.Errorf("%w: got %d", ErrRunLength, n)
	}
	if a.closed {
		return ErrClosed
	}

	ci := h.Chunk(a.degree)
	slot := h.Slot(a.degree)
	if int(ci) >= len(a.chunks) || slot+uint32(n) > a.perChnk {
		return fmt.Errorf("%w: %#x", ErrBadHandle, uint32(h))
	}

	marks := a.chunks[ci].marks
	switch head := marks[slot]; {
	case head == markFree:
		return fmt.Errorf("%w: %#x", ErrDoubleFree, uint32(h))
	case head == markInterior:
		return fmt.Errorf("%w: %#x", ErrOverlap, uint32(h))
	case int(head) != n:
		return fmt.Errorf("%w: allocated %d, freeing %d", ErrSizeMismatch, head, n)
	}
	for i := 1; i < n; i++ {
		if marks[slot+uint32(i)] != markInterior {
			return fmt.Errorf("%w: run at %#x is shorter than %d", ErrOverlap, uint32(h), n)
		}
	}

	for i := 0; i < n; i++ {
		marks[slot+uint32(i)] = markFree
	}
	a.pushFree(h, n)
	a.size -= n
	a.blocks--
	a.stats.FreeCalls++
	return nil
}

// Get returns a pointer to the element at h.
//
// This is the load-bearing unsafe boundary: no bounds or liveness check
// is performed. h must address a currently live allocation; anything else
// is undefined behavior. The pointer stays valid until the run is freed
// or the arena is closed.
func (a *Arena[T]) Get(h Handle) *T {
	return (*T)(a.slotPtr(h))
}

// Changed notifies the provider that the element at h was written.
func (a *Arena[T]) Changed(h Handle) {
	a.ChangedBlock(h, 1)
}

// ChangedBlock notifies the provider that the n-slot run at h was
// written. The arena relays the byte range as-is; coalescing is the
// provider's concern.
func (a *Arena[T]) ChangedBlock(h Handle, n int) {
	c := &a.chunks[h.Chunk(a.degree)]
	off := int(uintptr(h.Slot(a.degree)) * a.stride)
	a.provider.NotifyDirty(c.block, off, n*int(a.stride))
	a.stats.DirtyNotes++
}

// Size returns the number of live slots.
func (a *Arena[T]) Size() int { return a.size }

// NumBlocks returns the number of live allocations.
func (a *Arena[T]) NumBlocks() int { return a.blocks }

// Capacity returns the slot capacity across all chunks.
func (a *Arena[T]) Capacity() int { return a.capacity }

// NumChunks returns the number of chunks acquired so far.
func (a *Arena[T]) NumChunks() int { return len(a.chunks) }

// SlotsPerChunk returns the usable slots per chunk (a power of two).
func (a *Arena[T]) SlotsPerChunk() uint32 { return a.perChnk }

// Degree returns log2 of the slots-per-chunk count, the shift used by the
// handle codec.
func (a *Arena[T]) Degree() uint32 { return a.degree }

// SlotStride returns the slot size in bytes.
func (a *Arena[T]) SlotStride() int { return int(a.stride) }

// Stats returns a snapshot of the running counters.
func (a *Arena[T]) Stats() Stats { return a.stats }

// Close releases every chunk back to the provider and marks the arena
// unusable. Chunks are never released earlier because handles from any
// chunk may still be outstanding. Close is idempotent; the first error
// from the provider is returned.
func (a *Arena[T]) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	var firstErr error
	for i := range a.chunks {
		if err := a.provider.Release(a.chunks[i].block); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.chunks = nil
	a.top = HandleNone
	for i := range a.heads {
		a.heads[i] = HandleNone
	}
	a.size, a.blocks, a.capacity = 0, 0, 0
	return firstErr
}

// grow acquires one chunk from the provider and points the bump frontier
// at its first slot. On failure the arena is unchanged.
func (a *Arena[T]) grow() error {
	if a.cfg.maxChunks > 0 && len(a.chunks) >= a.cfg.maxChunks {
		return fmt.Errorf("%w: %d chunks", ErrChunkCap, a.cfg.maxChunks)
	}
	// The last representable chunk index is excluded entirely so no
	// packed (chunk, slot) pair can collide with HandleNone.
	if len(a.chunks) >= int(uint32(1)<<(32-a.degree))-1 {
		return ErrHandleSpace
	}

	b, err := a.provider.Allocate()
	if err != nil {
		return fmt.Errorf("arena: acquire chunk: %w", err)
	}

	idx := uint32(len(a.chunks))
	a.chunks = append(a.chunks, chunk{
		block: b,
		marks: make([]uint8, a.perChnk),
	})
	a.capacity += int(a.perChnk)
	a.top = NewHandle(a.degree, idx, 0)
	a.stats.GrowCalls++

	if a.cfg.onGrow != nil {
		a.cfg.onGrow(GrowEvent{
			Chunk:    idx,
			Slots:    a.perChnk,
			Bytes:    len(b.Mem),
			Capacity: a.capacity,
		})
	}
	return nil
}

// commit marks the run at h live and updates the accounting counters.
func (a *Arena[T]) commit(h Handle, n int) {
	marks := a.chunks[h.Chunk(a.degree)].marks
	slot := h.Slot(a.degree)
	marks[slot] = uint8(n)
	for i := 1; i < n; i++ {
		marks[slot+uint32(i)] = markInterior
	}
	a.size += n
	a.blocks++
}

// pushFree links the n-slot run at h onto its freelist. The link lives in
// the first bytes of the head slot; the arena owns free slot memory, so
// the intrusive write is safe.
func (a *Arena[T]) pushFree(h Handle, n int) {
	*a.linkAt(h) = a.heads[n-1]
	a.heads[n-1] = h
}

// linkAt returns the intrusive freelist link of the slot at h.
func (a *Arena[T]) linkAt(h Handle) *Handle {
	return (*Handle)(a.slotPtr(h))
}

// slotPtr returns the base address of the slot at h. Unchecked.
func (a *Arena[T]) slotPtr(h Handle) unsafe.Pointer {
	c := &a.chunks[h.Chunk(a.degree)]
	return unsafe.Pointer(&c.block.Mem[uintptr(h.Slot(a.degree))*a.stride])
}

// hasPointers reports whether the garbage collector would need to scan a
// value of type t.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointers, slices, maps, strings, chans, funcs, interfaces and
		// unsafe pointers all carry GC-visible words.
		return true
	}
}

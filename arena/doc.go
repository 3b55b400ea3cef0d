// Package arena implements a handle-based slab allocator for fixed-size
// elements, the node store underneath sparse-voxel-octree and VDB-style
// hierarchies.
//
// # Overview
//
// An Arena[T] partitions fixed-size memory blocks (chunks) obtained from a
// block.Provider into slots sized to hold one T, and serves allocations of
// 1 to 8 contiguous slots. Allocations are addressed by opaque 32-bit
// Handles packing a chunk index and an in-chunk slot index, so they stay
// valid across internal table growth and never expose raw pointers to
// callers.
//
// Free runs are kept on eight intrusive freelists, one per run length.
// Fresh space comes from a bump frontier in the most recently opened
// chunk; when no more than eight slots remain at a chunk's tail, the
// remainder is pushed onto the matching freelist and the frontier moves
// to the next chunk, so runs never straddle a chunk boundary.
//
// # Element contract
//
// T must be plain data without pointers: chunk memory is raw bytes the
// garbage collector does not scan. New rejects pointer-carrying types.
// The arena never runs finalization for freed elements; callers overwrite
// slots on reuse.
//
// # The unsafe boundary
//
// Get performs no bounds or liveness checks. Passing a stale or foreign
// handle is undefined behavior, exactly like dereferencing a dangling
// index into any slab. Free, by contrast, validates its arguments against
// per-slot run marks and rejects double frees, mismatched lengths, and
// handles pointing into the interior of a live run.
//
// # Thread safety
//
// Arenas are not thread-safe. They follow a single-writer discipline:
// one owning structure (a tree) uses the arena, synchronized externally
// if that structure is shared.
package arena

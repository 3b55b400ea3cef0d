// Package block defines the chunk-provider boundary of the arena allocator.
//
// A Provider hands out fixed-size memory blocks on demand and accepts
// notifications about byte ranges that were written. The arena above this
// package is agnostic to where block memory lives: the HeapProvider backs
// blocks with ordinary Go allocations, while the MmapProvider backs them
// with a memory-mapped file and flushes dirty ranges with msync. Providers
// that stage blocks in device-visible memory fit the same interface.
//
// Providers are not thread-safe. A provider may be shared between several
// arenas, but synchronizing that sharing is the caller's responsibility.
package block

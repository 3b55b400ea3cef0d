package block

import (
	"context"
	"fmt"
)

// HeapProvider backs blocks with ordinary Go heap allocations.
//
// It is the host-memory backend: NotifyDirty is a no-op and Flush always
// succeeds immediately. An optional block cap turns unbounded growth into
// an ErrOutOfMemory failure, which is useful for tests and for arenas that
// must stay within a memory budget.
type HeapProvider struct {
	blockSize int
	maxBlocks int
	next      uint64
	live      map[uint64]struct{}
	closed    bool
}

// NewHeapProvider creates a provider handing out zeroed blocks of
// blockSize bytes. maxBlocks caps the number of simultaneously live
// blocks; zero or negative means unlimited.
func NewHeapProvider(blockSize, maxBlocks int) (*HeapProvider, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBlockSize, blockSize)
	}
	return &HeapProvider{
		blockSize: blockSize,
		maxBlocks: maxBlocks,
		live:      make(map[uint64]struct{}),
	}, nil
}

// BlockSize returns the configured block size in bytes.
func (p *HeapProvider) BlockSize() int { return p.blockSize }

// Allocate hands out a new zeroed block.
func (p *HeapProvider) Allocate() (Block, error) {
	if p.closed {
		return Block{}, ErrClosed
	}
	if p.maxBlocks > 0 && len(p.live) >= p.maxBlocks {
		return Block{}, fmt.Errorf("%w: cap of %d blocks reached", ErrOutOfMemory, p.maxBlocks)
	}
	b := Block{
		Mem: make([]byte, p.blockSize),
		Tag: p.next,
	}
	p.live[b.Tag] = struct{}{}
	p.next++
	return b, nil
}

// Release returns a block to the provider.
func (p *HeapProvider) Release(b Block) error {
	if p.closed {
		return ErrClosed
	}
	if _, ok := p.live[b.Tag]; !ok {
		return ErrForeignBlock
	}
	delete(p.live, b.Tag)
	return nil
}

// NotifyDirty is a no-op; heap blocks have no backing store.
func (p *HeapProvider) NotifyDirty(Block, int, int) {}

// Flush is a no-op; heap blocks have no backing store.
func (p *HeapProvider) Flush(context.Context) error { return nil }

// Live reports the number of blocks currently handed out.
func (p *HeapProvider) Live() int { return len(p.live) }

// Close marks the provider closed. Subsequent Allocate and Release calls
// fail with ErrClosed.
func (p *HeapProvider) Close() error {
	p.closed = true
	return nil
}

var _ Provider = (*HeapProvider)(nil)

//go:build linux || darwin || freebsd

package block

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/dust-engine/voxarena/arena/dirty"
)

// MmapProvider backs blocks with mappings of a grow-on-demand file.
//
// Each Allocate extends the backing file by one block and maps the new
// region shared and read-write. NotifyDirty records written ranges;
// Flush msyncs the coalesced ranges so only touched pages reach the
// backing store. This mirrors how device-visible chunk backends flush
// host writes range by range instead of wholesale.
type MmapProvider struct {
	f         *os.File
	blockSize int
	maxBlocks int
	blocks    map[uint64][]byte
	next      uint64
	tracker   *dirty.Tracker
	closed    bool
}

// NewMmapProvider creates a provider whose blocks are mappings of the
// file at path. The file is created if missing and truncated to zero.
// blockSize must be a multiple of the OS page size. maxBlocks caps the
// number of simultaneously live blocks; zero or negative means unlimited.
func NewMmapProvider(path string, blockSize, maxBlocks int) (*MmapProvider, error) {
	page := os.Getpagesize()
	if blockSize <= 0 || blockSize%page != 0 {
		return nil, fmt.Errorf("%w: %d is not a multiple of the %d-byte page size",
			ErrBlockSize, blockSize, page)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("block: open backing file: %w", err)
	}
	return &MmapProvider{
		f:         f,
		blockSize: blockSize,
		maxBlocks: maxBlocks,
		blocks:    make(map[uint64][]byte),
		tracker:   dirty.NewTracker(page),
	}, nil
}

// BlockSize returns the configured block size in bytes.
func (p *MmapProvider) BlockSize() int { return p.blockSize }

// Allocate extends the backing file by one block and maps it.
func (p *MmapProvider) Allocate() (Block, error) {
	if p.closed {
		return Block{}, ErrClosed
	}
	if p.maxBlocks > 0 && len(p.blocks) >= p.maxBlocks {
		return Block{}, fmt.Errorf("%w: cap of %d blocks reached", ErrOutOfMemory, p.maxBlocks)
	}

	tag := p.next
	off := int64(tag) * int64(p.blockSize)
	if err := p.f.Truncate(off + int64(p.blockSize)); err != nil {
		return Block{}, fmt.Errorf("%w: extend backing file: %v", ErrOutOfMemory, err)
	}
	mem, err := unix.Mmap(int(p.f.Fd()), off, p.blockSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return Block{}, fmt.Errorf("%w: mmap: %v", ErrOutOfMemory, err)
	}

	p.blocks[tag] = mem
	p.next++
	return Block{Mem: mem, Tag: tag}, nil
}

// Release unmaps a block. The file region stays allocated; regions are
// only reclaimed when the provider is closed.
func (p *MmapProvider) Release(b Block) error {
	if p.closed {
		return ErrClosed
	}
	mem, ok := p.blocks[b.Tag]
	if !ok {
		return ErrForeignBlock
	}
	delete(p.blocks, b.Tag)
	p.tracker.Drop(b.Tag)
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("block: munmap: %w", err)
	}
	return nil
}

// NotifyDirty records a written range for the next Flush.
func (p *MmapProvider) NotifyDirty(b Block, off, n int) {
	if _, ok := p.blocks[b.Tag]; !ok {
		return
	}
	p.tracker.Add(b.Tag, off, n)
}

// Flush msyncs the coalesced dirty ranges of every block, fanning out
// across blocks. On success all recorded ranges are dropped; on failure
// or cancellation some ranges may have been flushed while others were
// not, and all remain recorded.
func (p *MmapProvider) Flush(ctx context.Context) error {
	if p.closed {
		return ErrClosed
	}
	tags := p.tracker.Tags()
	if len(tags) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, tag := range tags {
		mem := p.blocks[tag]
		ranges := p.tracker.Coalesced(tag)
		g.Go(func() error {
			for _, r := range ranges {
				if err := ctx.Err(); err != nil {
					return err
				}
				end := r.Off + r.Len
				if end > len(mem) {
					end = len(mem)
				}
				if r.Off >= end {
					continue
				}
				if err := unix.Msync(mem[r.Off:end], unix.MS_SYNC); err != nil {
					return fmt.Errorf("block: msync: %w", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.tracker.Reset()
	return nil
}

// Pending reports the number of recorded, unflushed dirty ranges.
func (p *MmapProvider) Pending() int { return p.tracker.Pending() }

// Live reports the number of blocks currently handed out.
func (p *MmapProvider) Live() int { return len(p.blocks) }

// Close unmaps all live blocks and closes the backing file.
func (p *MmapProvider) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	var firstErr error
	for tag, mem := range p.blocks {
		if err := unix.Munmap(mem); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("block: munmap: %w", err)
		}
		delete(p.blocks, tag)
	}
	if err := p.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

var _ Provider = (*MmapProvider)(nil)

//go:build !linux && !darwin && !freebsd

package block

import (
	"context"
	"fmt"
	"os"
)

// MmapProvider falls back to heap-backed blocks on platforms without the
// unix mmap path. The backing file is created so callers observe the same
// filesystem effects, but blocks live on the Go heap and Flush writes
// nothing.
type MmapProvider struct {
	inner *HeapProvider
	f     *os.File
}

// NewMmapProvider creates the fallback provider. blockSize must still be
// a multiple of the OS page size so code is portable across builds.
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
	inner, err := NewHeapProvider(blockSize, maxBlocks)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &MmapProvider{inner: inner, f: f}, nil
}

func (p *MmapProvider) BlockSize() int                { return p.inner.BlockSize() }
func (p *MmapProvider) Allocate() (Block, error)      { return p.inner.Allocate() }
func (p *MmapProvider) Release(b Block) error         { return p.inner.Release(b) }
func (p *MmapProvider) NotifyDirty(b Block, o, n int) { p.inner.NotifyDirty(b, o, n) }
func (p *MmapProvider) Flush(ctx context.Context) error {
	return p.inner.Flush(ctx)
}
func (p *MmapProvider) Pending() int { return 0 }
func (p *MmapProvider) Live() int    { return p.inner.Live() }

func (p *MmapProvider) Close() error {
	err := p.inner.Close()
	if cerr := p.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

var _ Provider = (*MmapProvider)(nil)

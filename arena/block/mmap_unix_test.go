//go:build linux || darwin || freebsd

package block

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newMmapProvider(t *testing.T, maxBlocks int) *MmapProvider {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunks.mem")
	p, err := NewMmapProvider(path, os.Getpagesize(), maxBlocks)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func Test_MmapProvider_BlockSizeMustBePageMultiple(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.mem")
	_, err := NewMmapProvider(path, os.Getpagesize()+1, 0)
	require.ErrorIs(t, err, ErrBlockSize)
	_, err = NewMmapProvider(path, 0, 0)
	require.ErrorIs(t, err, ErrBlockSize)
}

func Test_MmapProvider_AllocateWriteFlush(t *testing.T) {
	p := newMmapProvider(t, 0)

	b1, err := p.Allocate()
	require.NoError(t, err)
	require.Len(t, b1.Mem, p.BlockSize())
	b2, err := p.Allocate()
	require.NoError(t, err)
	require.Equal(t, 2, p.Live())

	copy(b1.Mem[128:], []byte("octree node payload"))
	copy(b2.Mem[0:], []byte("second chunk"))
	p.NotifyDirty(b1, 128, 32)
	p.NotifyDirty(b2, 0, 16)
	require.Equal(t, 2, p.Pending())

	require.NoError(t, p.Flush(context.Background()))
	require.Equal(t, 0, p.Pending(), "flushed ranges are dropped")

	require.NoError(t, p.Release(b1))
	require.NoError(t, p.Release(b2))
	require.Equal(t, 0, p.Live())
}

func Test_MmapProvider_FlushPersistsToBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.mem")
	p, err := NewMmapProvider(path, os.Getpagesize(), 0)
	require.NoError(t, err)
	defer p.Close()

	b, err := p.Allocate()
	require.NoError(t, err)
	copy(b.Mem, []byte("persisted"))
	p.NotifyDirty(b, 0, 9)
	require.NoError(t, p.Flush(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), raw[:9])
}

func Test_MmapProvider_BlockCap(t *testing.T) {
	p := newMmapProvider(t, 1)

	_, err := p.Allocate()
	require.NoError(t, err)
	_, err = p.Allocate()
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func Test_MmapProvider_ForeignAndReleased(t *testing.T) {
	p := newMmapProvider(t, 0)

	b, err := p.Allocate()
	require.NoError(t, err)
	require.NoError(t, p.Release(b))
	require.ErrorIs(t, p.Release(b), ErrForeignBlock)

	// Dirty notes for released blocks are ignored.
	p.NotifyDirty(b, 0, 8)
	require.Equal(t, 0, p.Pending())
}

func Test_MmapProvider_FlushCancellation(t *testing.T) {
	p := newMmapProvider(t, 0)

	b, err := p.Allocate()
	require.NoError(t, err)
	b.Mem[0] = 1
	p.NotifyDirty(b, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Flush(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, p.Pending(), "ranges stay recorded after a cancelled flush")
}

func Test_MmapProvider_Closed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.mem")
	p, err := NewMmapProvider(path, os.Getpagesize(), 0)
	require.NoError(t, err)

	b, err := p.Allocate()
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Allocate()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, p.Release(b), ErrClosed)
	require.ErrorIs(t, p.Flush(context.Background()), ErrClosed)
	require.NoError(t, p.Close(), "Close is idempotent")
}

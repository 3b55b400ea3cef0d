package block

import "context"

// Block is one fixed-size run of bytes handed out by a Provider.
//
// Mem is always exactly Provider.BlockSize() bytes long and aligned to at
// least 8 bytes. Tag identifies the block to the provider that created it;
// callers treat it as opaque and must hand the Block back unmodified.
type Block struct {
	Mem []byte
	Tag uint64
}

// Provider supplies fixed-size memory blocks to an arena.
//
// Implementations decide where block memory lives (heap, mapped file,
// staging memory for a device). The arena never resizes a block and only
// releases blocks when it is torn down.
type Provider interface {
	// BlockSize returns the size in bytes of every block this provider
	// hands out. It is constant for the lifetime of the provider.
	BlockSize() int

	// Allocate returns a new zeroed block. Failures are reported with the
	// package sentinel errors (ErrOutOfMemory, ErrClosed, ...) and leave
	// the provider unchanged; the caller performs no retry.
	Allocate() (Block, error)

	// Release returns a block obtained from Allocate. Releasing a block
	// that did not come from this provider fails with ErrForeignBlock.
	Release(b Block) error

	// NotifyDirty records that n bytes at off within the block were
	// written. Providers backing plain host memory may treat this as a
	// no-op. The call is best-effort bookkeeping and must be cheap.
	NotifyDirty(b Block, off, n int)

	// Flush pushes all dirty ranges recorded by NotifyDirty to the
	// block backing store. Providers with no backing store return nil.
	Flush(ctx context.Context) error
}

package block

import "errors"

var (
	// ErrOutOfMemory indicates the provider cannot supply another block.
	ErrOutOfMemory = errors.New("block: out of memory")

	// ErrClosed indicates the provider has been closed.
	ErrClosed = errors.New("block: provider closed")

	// ErrForeignBlock indicates a block was handed to a provider that did
	// not create it.
	ErrForeignBlock = errors.New("block: block not owned by this provider")

	// ErrBlockSize indicates an invalid block size was requested.
	ErrBlockSize = errors.New("block: invalid block size")
)

package arena

import "errors"

var (
	// ErrRunLength indicates an allocation or free length outside 1..8.
	ErrRunLength = errors.New("arena: run length must be between 1 and 8")

	// ErrDoubleFree indicates a free of a run that is already free.
	ErrDoubleFree = errors.New("arena: double free")

	// ErrOverlap indicates a free of a handle addressing the interior of
	// a live run rather than its head.
	ErrOverlap = errors.New("arena: handle addresses the interior of a live run")

	// ErrSizeMismatch indicates a free whose length does not match the
	// length recorded at allocation.
	ErrSizeMismatch = errors.New("arena: free length does not match allocation")

	// ErrBadHandle indicates a handle outside the arena's current chunks.
	ErrBadHandle = errors.New("arena: handle out of range")

	// ErrElemType indicates the element type carries pointers, which raw
	// chunk memory cannot hold.
	ErrElemType = errors.New("arena: element type must be plain data without pointers")

	// ErrBlockTooSmall indicates the provider's block size yields too few
	// slots per chunk to host the maximum run length.
	ErrBlockTooSmall = errors.New("arena: provider block holds too few slots")

	// ErrHandleSpace indicates the 32-bit handle space is exhausted.
	ErrHandleSpace = errors.New("arena: handle space exhausted")

	// ErrChunkCap indicates the configured chunk cap was reached.
	ErrChunkCap = errors.New("arena: chunk cap reached")

	// ErrClosed indicates use of a closed arena.
	ErrClosed = errors.New("arena: closed")
)

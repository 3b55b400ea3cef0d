package arena

// Handle is an opaque 32-bit slot address: a chunk index and an in-chunk
// slot index packed as chunk<<degree | slot, where degree is the log2 of
// the arena's slots-per-chunk count. Handles are plain indices: they
// carry no pointer and remain valid however the arena's internal tables
// move. They are comparable and totally ordered.
type Handle uint32

// HandleNone is the reserved "no handle" value, used as a freelist
// terminator and as an uninitialized-reference sentinel. Arena geometry
// guarantees no real allocation ever packs to this value.
const HandleNone Handle = ^Handle(0)

// NewHandle packs a chunk and slot index. The caller must guarantee
// slot < 1<<degree; there is no runtime check on this hot path.
func NewHandle(degree, chunk, slot uint32) Handle {
	return Handle(chunk<<degree | slot)
}

// Chunk returns the chunk index encoded in h.
func (h Handle) Chunk(degree uint32) uint32 {
	return uint32(h) >> degree
}

// Slot returns the in-chunk slot index encoded in h.
func (h Handle) Slot(degree uint32) uint32 {
	return uint32(h) & (1<<degree - 1)
}

// Offset returns the handle n slots after h. Valid only when the caller
// knows the result stays within h's chunk; allocation runs never straddle
// chunks, so offsets within a run are always safe.
func (h Handle) Offset(n uint32) Handle {
	return h + Handle(n)
}

// IsNone reports whether h is the HandleNone sentinel.
func (h Handle) IsNone() bool {
	return h == HandleNone
}

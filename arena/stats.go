package arena

// Stats holds running allocator counters for instrumentation and tests.
// Counters only ever increase; live-state numbers (Size, NumBlocks,
// Capacity) are exposed as arena methods instead.
type Stats struct {
	AllocCalls   uint64 // total Alloc calls, successful or not
	FreeCalls    uint64 // successful Free calls
	FreelistHits uint64 // allocations served by a freelist pop
	BumpAllocs   uint64 // allocations served by the bump frontier
	GrowCalls    uint64 // chunks acquired from the provider
	TailRecycles uint64 // chunk tails pushed onto a freelist
	TailSlots    uint64 // total slots recycled from chunk tails
	DirtyNotes   uint64 // Changed/ChangedBlock relays to the provider
}

// GrowEvent describes one chunk acquisition, delivered to the OnGrow hook.
type GrowEvent struct {
	Chunk    uint32 // index of the chunk just opened
	Slots    uint32 // usable slots in the chunk
	Bytes    int    // block size in bytes
	Capacity int    // total slot capacity after growth
}

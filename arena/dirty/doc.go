// Package dirty tracks written byte ranges within fixed-size memory blocks.
//
// Recording a range is a plain append and stays off the allocation hot
// path's budget; alignment, sorting, and merging are deferred until a
// flush asks for the coalesced view. The tracker keys ranges by the block
// tag assigned by the owning provider.
//
// Trackers are not thread-safe; they follow the same single-writer,
// externally synchronized discipline as the arena itself.
package dirty

package dirty

import "sort"

// defaultPageSize is used when the caller does not supply one.
const defaultPageSize = 4096

// Range is a dirty byte range within a single block.
type Range struct {
	Off int
	Len int
}

// Tracker accumulates dirty ranges per block tag.
type Tracker struct {
	pageSize int
	ranges   map[uint64][]Range
}

// NewTracker creates a tracker that aligns coalesced ranges to pageSize
// boundaries. pageSize values below 1 fall back to 4096.
func NewTracker(pageSize int) *Tracker {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return &Tracker{
		pageSize: pageSize,
		ranges:   make(map[uint64][]Range),
	}
}

// Add records n dirty bytes at off within the block identified by tag.
// Ranges are stored raw; merging happens in Coalesced.
func (t *Tracker) Add(tag uint64, off, n int) {
	if n <= 0 {
		return
	}
	t.ranges[tag] = append(t.ranges[tag], Range{Off: off, Len: n})
}

// Tags returns the tags that currently have dirty ranges, in ascending
// order for deterministic flushing.
func (t *Tracker) Tags() []uint64 {
	tags := make([]uint64, 0, len(t.ranges))
	for tag := range t.ranges {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Pending reports the number of raw, uncoalesced ranges across all tags.
func (t *Tracker) Pending() int {
	n := 0
	for _, rs := range t.ranges {
		n += len(rs)
	}
	return n
}

// Coalesced returns the page-aligned, sorted, merged ranges for tag.
// Returns nil when the tag has no dirty ranges.
func (t *Tracker) Coalesced(tag uint64) []Range {
	raw := t.ranges[tag]
	if len(raw) == 0 {
		return nil
	}

	aligned := make([]Range, len(raw))
	for i, r := range raw {
		start := r.Off / t.pageSize * t.pageSize
		end := r.Off + r.Len
		if rem := end % t.pageSize; rem != 0 {
			end += t.pageSize - rem
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool { return aligned[i].Off < aligned[j].Off })

	merged := make([]Range, 0, len(aligned))
	cur := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= cur.Off+cur.Len {
			if end := next.Off + next.Len; end > cur.Off+cur.Len {
				cur.Len = end - cur.Off
			}
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}

// Drop discards the ranges recorded for tag, typically after the tag's
// block was flushed or released.
func (t *Tracker) Drop(tag uint64) {
	delete(t.ranges, tag)
}

// Reset discards all recorded ranges.
func (t *Tracker) Reset() {
	clear(t.ranges)
}

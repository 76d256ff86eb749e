// segment_coalesce.go - segment coalescer (C2, spec §4.2).

package main

import (
	"fmt"
	"sort"
)

const maxSegmentEnd = 0x10000

// CoalesceSegments merges possibly sparse, possibly unordered segments
// into one contiguous zero-padded segment. An empty input becomes one
// empty segment at start 0. Overlapping segments and segments that would
// run past the 64 KiB address space are fatal (spec §7 invariant
// violations).
func CoalesceSegments(segments []Segment) (Segment, error) {
	if len(segments) == 0 {
		return Segment{Start: 0, Size: 0, Data: nil}, nil
	}

	sorted := append([]Segment(nil), segments...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	start := sorted[0].Start
	prevEnd := uint32(start)
	var out []byte

	for _, seg := range sorted {
		segStart := uint32(seg.Start)
		if segStart < prevEnd {
			return Segment{}, fmt.Errorf(
				"segment at 0x%04X overlaps previous segment ending at 0x%04X", seg.Start, prevEnd)
		}
		if gap := segStart - prevEnd; gap > 0 {
			out = append(out, make([]byte, gap)...)
		}
		out = append(out, seg.Data...)
		prevEnd = segStart + uint32(len(seg.Data))
		if prevEnd > maxSegmentEnd {
			return Segment{}, fmt.Errorf(
				"segment ending at 0x%05X exceeds 64 KiB address space", prevEnd)
		}
	}

	return Segment{
		Start: start,
		Size:  uint32(len(out)),
		Data:  out,
	}, nil
}

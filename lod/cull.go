package lod

import "sort"

// CullResult describes a narrowed [Start, End) range into a bar-time array.
type CullResult struct {
	Start, End int
}

// Cull narrows times (sorted ascending) to the [start,end) window whose
// values lie within [from-padData, to+padData], where padData is derived
// from padBars and the average bar spacing observed in times. The result
// is then clamped to minCount <= (end-start) <= maxCount; an over-full
// range is center-trimmed (both ends shrink symmetrically around the
// viewport's own center), the way gioverse-chat's list/processor.go
// Compact trims a too-large raw-element window around the current
// viewport. An under-full range is grown outward, clamped to the array's
// bounds.
func Cull(times []float64, from, to float64, padBars, minCount, maxCount int) CullResult {
	n := len(times)
	if n == 0 {
		return CullResult{0, 0}
	}
	padData := averageSpacing(times) * float64(padBars)

	start := lowerBound(times, from-padData)
	end := upperBound(times, to+padData)
	if start > end {
		start = end
	}

	if maxCount > 0 && end-start > maxCount {
		start, end = centerTrim(times, from, to, start, end, maxCount)
	}
	if minCount > 0 && end-start < minCount {
		start, end = growToMin(n, start, end, minCount)
	}
	return CullResult{Start: start, End: end}
}

// averageSpacing estimates the mean gap between consecutive timestamps.
func averageSpacing(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	return (times[len(times)-1] - times[0]) / float64(len(times)-1)
}

// lowerBound returns the index of the first element >= v.
func lowerBound(times []float64, v float64) int {
	return sort.Search(len(times), func(i int) bool { return times[i] >= v })
}

// upperBound returns the index of the first element > v.
func upperBound(times []float64, v float64) int {
	return sort.Search(len(times), func(i int) bool { return times[i] > v })
}

// centerTrim shrinks [start,end) down to maxCount elements, keeping the
// window centered on the viewport [from,to]'s own midpoint within the
// culled range — the bar-range analogue of list/processor.go's Compact,
// which keeps a viewport-centered window and discards symmetric overflow
// at both ends.
func centerTrim(times []float64, from, to float64, start, end, maxCount int) (int, int) {
	mid := (from + to) / 2
	centerIdx := lowerBound(times, mid)
	if centerIdx < start {
		centerIdx = start
	}
	if centerIdx >= end {
		centerIdx = end - 1
	}
	half := maxCount / 2
	newStart := centerIdx - half
	newEnd := newStart + maxCount
	if newStart < start {
		newEnd += start - newStart
		newStart = start
	}
	if newEnd > end {
		newStart -= newEnd - end
		newEnd = end
	}
	if newStart < start {
		newStart = start
	}
	return newStart, newEnd
}

// growToMin expands [start,end) outward (favoring whichever side has room)
// until it has minCount elements or the array bounds are exhausted.
func growToMin(n, start, end, minCount int) (int, int) {
	for end-start < minCount && (start > 0 || end < n) {
		if end < n {
			end++
		}
		if end-start >= minCount {
			break
		}
		if start > 0 {
			start--
		}
	}
	return start, end
}

// NeedsUpdate reports whether the culled window should be recomputed:
// spec §4.7 — redraw is required if zoom (span ratio) differs by more
// than 10%, or pan (from-offset relative to span) differs by more than
// 10% of span, from the previous range.
func NeedsUpdate(prev, cur [2]float64) bool {
	prevSpan := prev[1] - prev[0]
	curSpan := cur[1] - cur[0]
	if prevSpan == 0 {
		return true
	}
	zoomRatio := curSpan / prevSpan
	if zoomRatio > 1.10 || zoomRatio < 0.90 {
		return true
	}
	panDelta := cur[0] - prev[0]
	if abs(panDelta) > 0.10*prevSpan {
		return true
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

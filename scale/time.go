package scale

import "sort"

// timeLadder is the fixed set of "nice" time steps (in milliseconds) spec
// §4.6 specifies for time-axis gridlines.
var timeLadder = []float64{
	1000, 5000, 10000, 30000, // 1s, 5s, 10s, 30s
	60000, 5 * 60000, 15 * 60000, 30 * 60000, // 1m, 5m, 15m, 30m
	3600000, 2 * 3600000, 4 * 3600000, 6 * 3600000, 12 * 3600000, // 1h..12h
	86400000, 2 * 86400000, // 1d, 2d
	7 * 86400000, 14 * 86400000, // 1wk, 2wk
	30 * 86400000, 91 * 86400000, 182 * 86400000, 365 * 86400000, // 1mo, 3mo, 6mo, 1yr
}

// TimeScale maps between data-space time (milliseconds) and both a
// normalized [0,1] coordinate and a pixel coordinate, and owns pan/zoom
// state and clamping for the time axis.
type TimeScale struct {
	dataRange    Range
	visibleRange Range
	pixelExtent  float64
	rightPadding float64 // fraction of data span appended to the right bound

	// timestamps, if set, is a sorted ascending list of bar times used for
	// binary-search bar-index lookup.
	timestamps []float64
}

const (
	minTimeSpanFraction = 0.01     // 1% of data span
	minTimeSpanAbsolute = 60_000.0 // 1 minute, in ms
)

// NewTimeScale constructs a TimeScale over dataRange with the given
// right-padding fraction (spec: "clamped into [minData, maxData +
// rightPadding*span]").
func NewTimeScale(dataRange Range, rightPadding float64) *TimeScale {
	t := &TimeScale{dataRange: dataRange, rightPadding: rightPadding, pixelExtent: 1}
	t.visibleRange = t.bounds()
	return t
}

// SetTimestamps installs the sorted bar-time array used by BarIndex.
func (t *TimeScale) SetTimestamps(ts []float64) { t.timestamps = ts }

// SetDataRange updates the underlying data range (e.g. after new bars
// arrive) and re-clamps the visible range into the new bounds.
func (t *TimeScale) SetDataRange(r Range) {
	t.dataRange = r
	if t.visibleRange.Span() <= 0 {
		t.visibleRange = t.bounds()
		return
	}
	t.visibleRange = Clamp(t.visibleRange, t.bounds())
}

// SetPixelExtent sets the pixel width the visible range maps onto.
func (t *TimeScale) SetPixelExtent(px float64) {
	if px <= 0 {
		px = 1
	}
	t.pixelExtent = px
}

// DataRange returns the full data range.
func (t *TimeScale) DataRange() Range { return t.dataRange }

// VisibleRange returns the current visible (viewport) range.
func (t *TimeScale) VisibleRange() Range { return t.visibleRange }

func (t *TimeScale) bounds() Range {
	span := t.dataRange.Span()
	return Range{From: t.dataRange.From, To: t.dataRange.To + t.rightPadding*span}
}

// minSpan is the smaller of 1% of the data span and one minute.
func (t *TimeScale) minSpan() float64 {
	span := t.dataRange.Span()
	m := span * minTimeSpanFraction
	if m > minTimeSpanAbsolute {
		m = minTimeSpanAbsolute
	}
	return m
}

// DataToNormalized maps a data-space time to [0,1] within the visible range.
func (t *TimeScale) DataToNormalized(v float64) float64 {
	span := t.visibleRange.Span()
	if span == 0 {
		return 0
	}
	return (v - t.visibleRange.From) / span
}

// NormalizedToData is the inverse of DataToNormalized.
func (t *TimeScale) NormalizedToData(n float64) float64 {
	return t.visibleRange.From + n*t.visibleRange.Span()
}

// DataToPixel maps a data-space time to a pixel x coordinate.
func (t *TimeScale) DataToPixel(v float64) float64 {
	return t.DataToNormalized(v) * t.pixelExtent
}

// PixelToData is the inverse of DataToPixel.
func (t *TimeScale) PixelToData(px float64) float64 {
	return t.NormalizedToData(px / t.pixelExtent)
}

// clampAndSet enforces the minimum-span and data-bound invariants (spec
// testable property 8) and installs the result as the visible range.
func (t *TimeScale) clampAndSet(r Range) {
	if span := r.Span(); span < t.minSpan() {
		mid := r.Mid()
		half := t.minSpan() / 2
		r = Range{mid - half, mid + half}
	}
	t.visibleRange = Clamp(r, t.bounds())
}

// Zoom rescales the visible range by factor around center (data-space
// time). factor<1 zooms in. If center is nil, the midpoint of the current
// visible range is used.
func (t *TimeScale) Zoom(factor float64, center *float64) {
	c := t.visibleRange.Mid()
	if center != nil {
		c = *center
	}
	newFrom := c - (c-t.visibleRange.From)*factor
	newTo := c + (t.visibleRange.To-c)*factor
	t.clampAndSet(Range{newFrom, newTo})
}

// Pan shifts the visible range by deltaData (data-space time units).
func (t *TimeScale) Pan(deltaData float64) {
	t.clampAndSet(Range{t.visibleRange.From + deltaData, t.visibleRange.To + deltaData})
}

// PanByPixels shifts the visible range by a pixel delta, converted to data
// space via the current span/pixelExtent ratio.
func (t *TimeScale) PanByPixels(deltaPx float64) {
	if t.pixelExtent == 0 {
		return
	}
	t.Pan(deltaPx / t.pixelExtent * t.visibleRange.Span())
}

// FitContent resets the visible range to exactly the data range.
func (t *TimeScale) FitContent() {
	t.clampAndSet(t.dataRange)
}

// GridTicks returns at most targetCount+1 "nice" tick positions within the
// visible range, chosen from the fixed time-step ladder in spec §4.6.
func (t *TimeScale) GridTicks(targetCount int) []float64 {
	if targetCount <= 0 {
		return nil
	}
	span := t.visibleRange.Span()
	if span <= 0 {
		return nil
	}
	step := timeLadder[len(timeLadder)-1]
	for _, s := range timeLadder {
		if span/s <= float64(targetCount) {
			step = s
			break
		}
	}
	first := t.visibleRange.From - mod(t.visibleRange.From, step)
	var ticks []float64
	for v := first; v <= t.visibleRange.To; v += step {
		if v >= t.visibleRange.From {
			ticks = append(ticks, v)
		}
	}
	return ticks
}

func mod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	if m < 0 {
		m += b
	}
	return m
}

// BarIndex returns the index of the bar whose time is the closest value
// <= t in the installed timestamps array (binary search, per spec §4.6).
// Returns -1 if no timestamps are installed or t precedes all of them.
func (t *TimeScale) BarIndex(tm float64) int {
	if len(t.timestamps) == 0 {
		return -1
	}
	i := sort.Search(len(t.timestamps), func(i int) bool { return t.timestamps[i] > tm })
	return i - 1
}

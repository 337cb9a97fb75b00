package scale

import "math"

const (
	minPriceSpanFraction = 0.001 // 0.1% of data span
)

// PriceScale maps between data-space price and both a normalized [0,1]
// coordinate and a pixel coordinate. The Y axis is inverted: pixel 0
// corresponds to the top of the viewport, which is the maximum price.
type PriceScale struct {
	dataRange    Range
	visibleRange Range
	pixelExtent  float64
	log          bool
}

// NewPriceScale constructs a PriceScale over dataRange.
func NewPriceScale(dataRange Range) *PriceScale {
	p := &PriceScale{dataRange: dataRange, pixelExtent: 1, visibleRange: dataRange}
	return p
}

// SetLogScale toggles logarithmic price mapping.
func (p *PriceScale) SetLogScale(on bool) { p.log = on }

// SetDataRange updates the data range and re-clamps the visible range.
func (p *PriceScale) SetDataRange(r Range) {
	p.dataRange = r
	p.visibleRange = Clamp(p.visibleRange, p.dataRange)
}

// SetPixelExtent sets the pixel height the visible range maps onto.
func (p *PriceScale) SetPixelExtent(px float64) {
	if px <= 0 {
		px = 1
	}
	p.pixelExtent = px
}

// DataRange returns the full data range.
func (p *PriceScale) DataRange() Range { return p.dataRange }

// VisibleRange returns the current visible range.
func (p *PriceScale) VisibleRange() Range { return p.visibleRange }

func (p *PriceScale) xform(v float64) float64 {
	if p.log {
		if v <= 0 {
			v = 1e-12
		}
		return math.Log(v)
	}
	return v
}

func (p *PriceScale) invXform(v float64) float64 {
	if p.log {
		return math.Exp(v)
	}
	return v
}

// DataToNormalized maps a data-space price to [0,1] within the visible
// range (0 at the bottom/min, 1 at the top/max — the flip to pixel space
// happens in DataToPixel).
func (p *PriceScale) DataToNormalized(v float64) float64 {
	lo, hi := p.xform(p.visibleRange.From), p.xform(p.visibleRange.To)
	if hi == lo {
		return 0
	}
	return (p.xform(v) - lo) / (hi - lo)
}

// NormalizedToData is the inverse of DataToNormalized.
func (p *PriceScale) NormalizedToData(n float64) float64 {
	lo, hi := p.xform(p.visibleRange.From), p.xform(p.visibleRange.To)
	return p.invXform(lo + n*(hi-lo))
}

// DataToPixel maps a data-space price to a pixel y coordinate, with pixel
// 0 at the top (maximum price) per spec §4.6.
func (p *PriceScale) DataToPixel(v float64) float64 {
	return (1 - p.DataToNormalized(v)) * p.pixelExtent
}

// PixelToData is the inverse of DataToPixel.
func (p *PriceScale) PixelToData(px float64) float64 {
	return p.NormalizedToData(1 - px/p.pixelExtent)
}

func (p *PriceScale) minSpan() float64 {
	return p.dataRange.Span() * minPriceSpanFraction
}

func (p *PriceScale) clampAndSet(r Range) {
	if p.log && r.From <= 0 {
		r.From = 1e-9
	}
	if span := r.Span(); span < p.minSpan() {
		mid := r.Mid()
		half := p.minSpan() / 2
		r = Range{mid - half, mid + half}
	}
	p.visibleRange = Clamp(r, p.dataRange)
}

// Zoom rescales the visible range by factor around center (data-space
// price). factor<1 zooms in. If center is nil the midpoint is used.
func (p *PriceScale) Zoom(factor float64, center *float64) {
	c := p.visibleRange.Mid()
	if center != nil {
		c = *center
	}
	newFrom := c - (c-p.visibleRange.From)*factor
	newTo := c + (p.visibleRange.To-c)*factor
	p.clampAndSet(Range{newFrom, newTo})
}

// Pan shifts the visible range by deltaData (data-space price units).
func (p *PriceScale) Pan(deltaData float64) {
	p.clampAndSet(Range{p.visibleRange.From + deltaData, p.visibleRange.To + deltaData})
}

// PanByPixels shifts the visible range by a pixel delta. Because the pixel
// axis is inverted relative to data space, a positive pixel delta (moving
// down the screen) decreases price.
func (p *PriceScale) PanByPixels(deltaPx float64) {
	if p.pixelExtent == 0 {
		return
	}
	p.Pan(-deltaPx / p.pixelExtent * p.visibleRange.Span())
}

// FitContent resets the visible range to exactly the data range.
func (p *PriceScale) FitContent() {
	p.clampAndSet(p.dataRange)
}

// GridTicks returns at most targetCount+1 "nice" tick positions within the
// visible range, using the m*10^e (m in {1,2,5}) rule of spec §4.6.
func (p *PriceScale) GridTicks(targetCount int) []float64 {
	span := p.visibleRange.Span()
	if span <= 0 {
		return nil
	}
	step := niceStep(span, targetCount)
	first := math.Ceil(p.visibleRange.From/step) * step
	var ticks []float64
	for v := first; v <= p.visibleRange.To+1e-9; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

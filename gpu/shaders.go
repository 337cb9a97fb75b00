package gpu

import (
	"image"
	"image/color"
	"math"

	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"bitchart.dev/core/scale"
	"bitchart.dev/core/store"
)

// Colors is the up/down palette shared by the candlestick and volume
// shaders, generalizing the spec's "up RGBA, down RGBA" uniforms.
type Colors struct {
	Up, Down color.NRGBA
}

// ColorFor returns Up if close >= open, else Down, per spec §4.4.
func (c Colors) ColorFor(open, close float32) color.NRGBA {
	if close >= open {
		return c.Up
	}
	return c.Down
}

// MinBodyHeightNDC is the minimum candle-body height in normalized device
// coordinates, keeping doji bars visible (spec §4.4, §9's open question —
// this module keeps the spec's literal NDC resolution rather than pixel
// space, per DESIGN.md's decision).
const MinBodyHeightNDC = 0.001

// NDCQuad is an axis-aligned rectangle in normalized device coordinates,
// [-1,1] on both axes.
type NDCQuad struct {
	X0, Y0, X1, Y1 float64
}

// CandleGeometry computes the candlestick shader's per-instance geometry
// (spec §4.4 "Candlestick" algorithm): a body quad spanning
// [min(open,close), max(open,close)] (with a minimum height clamp), an
// upper wick spanning [bodyTop, high], and a lower wick spanning
// [low, bodyBottom], each centered on the bar's time column.
func CandleGeometry(b store.Bar, timeRange, priceRange scale.Range, halfWidthNorm float64) (body, upperWick, lowerWick NDCQuad) {
	timeNorm := (float64(b.Time) - timeRange.From) / timeRange.Span()
	xCenter := 2*timeNorm - 1

	toY := func(price float32) float64 {
		n := (float64(price) - priceRange.From) / priceRange.Span()
		return 2*n - 1
	}

	bodyBottomPrice, bodyTopPrice := b.Open, b.Close
	if bodyBottomPrice > bodyTopPrice {
		bodyBottomPrice, bodyTopPrice = bodyTopPrice, bodyBottomPrice
	}
	yBottom, yTop := toY(bodyBottomPrice), toY(bodyTopPrice)
	if yTop-yBottom < MinBodyHeightNDC {
		mid := (yTop + yBottom) / 2
		yBottom = mid - MinBodyHeightNDC/2
		yTop = mid + MinBodyHeightNDC/2
	}
	body = NDCQuad{X0: xCenter - halfWidthNorm, X1: xCenter + halfWidthNorm, Y0: yBottom, Y1: yTop}

	wickHalfWidth := halfWidthNorm * 0.1
	upperWick = NDCQuad{
		X0: xCenter - wickHalfWidth, X1: xCenter + wickHalfWidth,
		Y0: yTop, Y1: toY(b.High),
	}
	lowerWick = NDCQuad{
		X0: xCenter - wickHalfWidth, X1: xCenter + wickHalfWidth,
		Y0: toY(b.Low), Y1: yBottom,
	}
	return body, upperWick, lowerWick
}

// VolumeGeometry computes the volume shader's per-instance geometry (spec
// §4.4 "Volume"): a bar whose height is proportional to volume within
// [min,max], anchored to a baseY strip of the given height in NDC.
func VolumeGeometry(b store.Bar, timeRange scale.Range, volMin, volMax, baseY, height, halfWidthNorm float64) NDCQuad {
	timeNorm := (float64(b.Time) - timeRange.From) / timeRange.Span()
	xCenter := 2*timeNorm - 1

	span := volMax - volMin
	frac := 0.0
	if span > 0 {
		frac = (float64(b.Volume) - volMin) / span
	}
	barHeight := frac * height
	return NDCQuad{X0: xCenter - halfWidthNorm, X1: xCenter + halfWidthNorm, Y0: baseY, Y1: baseY + barHeight}
}

// ndcToPixel maps an NDC rectangle to a pixel-space image.Rectangle for a
// viewport of the given size, flipping Y (NDC's +1 is up; pixel space's
// origin is top-left, growing down).
func ndcToPixel(q NDCQuad, width, height int) image.Rectangle {
	toPxX := func(x float64) int { return int((x + 1) / 2 * float64(width)) }
	toPxY := func(y float64) int { return int((1 - (y+1)/2) * float64(height)) }
	x0, x1 := toPxX(q.X0), toPxX(q.X1)
	y0, y1 := toPxY(q.Y1), toPxY(q.Y0) // Y1 (top in NDC) becomes the smaller pixel Y
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return image.Rect(x0, y0, x1, y1)
}

// PaintCandles draws the candlestick shader's output for every instance in
// bars into ops, for a viewport of size width x height pixels. It returns
// the number of instances drawn (one "draw call" conceptually batches
// them all, matching drawArraysInstanced semantics).
func PaintCandles(ops *op.Ops, bars []store.Bar, timeRange, priceRange scale.Range, halfWidthNorm float64, colors Colors, width, height int) (instances int) {
	for _, b := range bars {
		body, upper, lower := CandleGeometry(b, timeRange, priceRange, halfWidthNorm)
		col := colors.ColorFor(b.Open, b.Close)
		paintQuad(ops, body, col, width, height)
		paintQuad(ops, upper, col, width, height)
		paintQuad(ops, lower, col, width, height)
		instances++
	}
	return instances
}

// PaintVolume draws the volume shader's output for every instance, with an
// opacity multiplier applied to each color's alpha channel.
func PaintVolume(ops *op.Ops, bars []store.Bar, timeRange scale.Range, volMin, volMax, baseY, barAreaHeight, halfWidthNorm float64, colors Colors, opacity float64, width, height int) (instances int) {
	for _, b := range bars {
		q := VolumeGeometry(b, timeRange, volMin, volMax, baseY, barAreaHeight, halfWidthNorm)
		col := colors.ColorFor(b.Open, b.Close)
		col.A = uint8(float64(col.A) * opacity)
		paintQuad(ops, q, col, width, height)
		instances++
	}
	return instances
}

func paintQuad(ops *op.Ops, q NDCQuad, col color.NRGBA, width, height int) {
	rect := ndcToPixel(q, width, height)
	if rect.Empty() {
		return
	}
	defer clip.Rect(rect).Push(ops).Pop()
	paint.ColorOp{Color: col}.Add(ops)
	paint.PaintOp{}.Add(ops)
}

// GridLine is one horizontal or vertical screen-space rule, per spec §4.4
// "Grid" (no instancing; positions come directly from the scales).
type GridLine struct {
	Horizontal bool
	Pixel      float64 // y for horizontal, x for vertical
}

// PaintGrid draws the grid shader's lines directly in pixel space.
func PaintGrid(ops *op.Ops, lines []GridLine, col color.NRGBA, width, height int, thicknessPx int) {
	if thicknessPx < 1 {
		thicknessPx = 1
	}
	for _, l := range lines {
		var rect image.Rectangle
		if l.Horizontal {
			y := int(l.Pixel)
			rect = image.Rect(0, y, width, y+thicknessPx)
		} else {
			x := int(l.Pixel)
			rect = image.Rect(x, 0, x+thicknessPx, height)
		}
		if rect.Empty() {
			continue
		}
		func() {
			defer clip.Rect(rect).Push(ops).Pop()
			paint.ColorOp{Color: col}.Add(ops)
			paint.PaintOp{}.Add(ops)
		}()
	}
}

// LinePoint is one vertex of a polyline, in pixel space, used by the Line
// shader for indicator overlays (spec §4.4 "Line").
type LinePoint struct {
	X, Y float64
}

// PaintLine draws a polyline of the given thickness (pixels) by expanding
// each segment into a thin quad along its normal — the CPU-side analogue
// of the GPU's triangle-strip expansion with a per-vertex normal/side
// attribute described in spec §4.4.
func PaintLine(ops *op.Ops, pts []LinePoint, thicknessPx float64, col color.NRGBA, width, height int) {
	if len(pts) < 2 {
		return
	}
	half := thicknessPx / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half
		minX := minOf4(a.X+nx, a.X-nx, b.X+nx, b.X-nx)
		maxX := maxOf4(a.X+nx, a.X-nx, b.X+nx, b.X-nx)
		minY := minOf4(a.Y+ny, a.Y-ny, b.Y+ny, b.Y-ny)
		maxY := maxOf4(a.Y+ny, a.Y-ny, b.Y+ny, b.Y-ny)
		rect := image.Rect(int(minX), int(minY), int(maxX), int(maxY))
		if rect.Empty() {
			continue
		}
		func() {
			defer clip.Rect(rect).Push(ops).Pop()
			paint.ColorOp{Color: col}.Add(ops)
			paint.PaintOp{}.Add(ops)
		}()
	}
}

func minOf4(a, b, c, d float64) float64 {
	m := a
	for _, v := range []float64{b, c, d} {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf4(a, b, c, d float64) float64 {
	m := a
	for _, v := range []float64{b, c, d} {
		if v > m {
			m = v
		}
	}
	return m
}

package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	corelayout "bitchart.dev/core/layout"
	"bitchart.dev/core/internal/debug"
	"bitchart.dev/core/scale"
	"bitchart.dev/core/store"
)

// DebugOutline, when true, traces a border around the tooltip card; off by
// default, flipped on by callers diagnosing hit-testing/layout issues.
var DebugOutline = false

// Crosshair is the last resolved pointer position over the chart surface,
// in pixel coordinates, plus the bar it resolved to (if any).
type Crosshair struct {
	X, Y     float64
	Bar      store.Bar
	Resolved bool
}

// Snapshot is the immutable input the overlay paints from each frame: spec
// §4.9's "(timeScale, priceScale, theme, lastCrosshair?)". The overlay
// itself holds no persistent state across frames.
type Snapshot struct {
	Time          *scale.TimeScale
	Price         *scale.PriceScale
	Theme         *Theme
	Crosshair     *Crosshair // nil if no crosshair is active
	Width, Height int
	DPR           float64
}

// Paint draws, in order, grid, price-axis labels, time-axis labels,
// crosshair (if any), and an OHLCV tooltip card (if the crosshair resolved
// to a bar) — spec §4.9's fixed paint order.
func Paint(gtx layout.Context, s Snapshot) layout.Dimensions {
	paintGrid(gtx, s)
	paintPriceAxis(gtx, s)
	paintTimeAxis(gtx, s)
	if s.Crosshair != nil {
		paintCrosshair(gtx, s)
		if s.Crosshair.Resolved {
			paintTooltip(gtx, s)
		}
	}
	return layout.Dimensions{Size: image.Pt(s.Width, s.Height)}
}

func paintGrid(gtx layout.Context, s Snapshot) {
	s.Price.SetPixelExtent(float64(s.Height))
	s.Time.SetPixelExtent(float64(s.Width))

	for _, v := range s.Price.GridTicks(6) {
		y := int(s.Price.DataToPixel(v))
		drawLine(gtx, 0, y, s.Width, y+1, s.Theme.Palette.Grid)
	}
	for _, v := range s.Time.GridTicks(8) {
		x := int(s.Time.DataToPixel(v))
		drawLine(gtx, x, 0, x+1, s.Height, s.Theme.Palette.Grid)
	}
}

func paintPriceAxis(gtx layout.Context, s Snapshot) {
	for _, v := range s.Price.GridTicks(6) {
		y := int(s.Price.DataToPixel(v))
		lbl := material.Label(s.Theme.Theme, unit.Sp(11), fmt.Sprintf("%.2f", v))
		lbl.Color = s.Theme.Palette.AxisText
		offset := op.Offset(image.Pt(s.Width-48, y-7)).Push(gtx.Ops)
		lbl.Layout(gtx)
		offset.Pop()
	}
}

func paintTimeAxis(gtx layout.Context, s Snapshot) {
	for _, v := range s.Time.GridTicks(8) {
		x := int(s.Time.DataToPixel(v))
		lbl := material.Label(s.Theme.Theme, unit.Sp(11), formatTimeLabel(v))
		lbl.Color = s.Theme.Palette.AxisText
		offset := op.Offset(image.Pt(x-20, s.Height-18)).Push(gtx.Ops)
		lbl.Layout(gtx)
		offset.Pop()
	}
}

func paintCrosshair(gtx layout.Context, s Snapshot) {
	c := s.Crosshair
	drawLine(gtx, 0, int(c.Y), s.Width, int(c.Y)+1, s.Theme.Palette.Crosshair)
	drawLine(gtx, int(c.X), 0, int(c.X)+1, s.Height, s.Theme.Palette.Crosshair)
}

// paintTooltip draws an OHLCV card near the crosshair. The rounded,
// colored surface is the teacher's layout.Rounded + layout.Background
// widgets (kept as corelayout here to avoid colliding with gioui.org/layout)
// wrapped around a Flex column of labels spaced with layout.VerticalMargin,
// grounded on widget/material/bubble.go's "surface beneath stacked content"
// shape.
func paintTooltip(gtx layout.Context, s Snapshot) {
	b := s.Crosshair.Bar
	lines := []string{
		fmt.Sprintf("O %.2f", b.Open),
		fmt.Sprintf("H %.2f", b.High),
		fmt.Sprintf("L %.2f", b.Low),
		fmt.Sprintf("C %.2f", b.Close),
		fmt.Sprintf("V %.0f", b.Volume),
	}
	const (
		pad   = 6
		lineH = 20
		cardW = 120
	)
	cardH := pad*2 + lineH*len(lines)
	x, y := int(s.Crosshair.X)+12, int(s.Crosshair.Y)+12
	if x+cardW > s.Width {
		x = s.Width - cardW
	}
	if y+cardH > s.Height {
		y = s.Height - cardH
	}

	card := func(gtx layout.Context) layout.Dimensions {
		return corelayout.Background(s.Theme.Palette.TooltipBg).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(pad)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				children := make([]layout.FlexChild, len(lines))
				for i, line := range lines {
					line := line
					children[i] = layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return corelayout.VerticalMargin().Layout(gtx, func(gtx layout.Context) layout.Dimensions {
							lbl := material.Label(s.Theme.Theme, unit.Sp(11), line)
							lbl.Color = s.Theme.Palette.TooltipText
							return lbl.Layout(gtx)
						})
					})
				}
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
			})
		})
	}
	rounded := func(gtx layout.Context) layout.Dimensions {
		return corelayout.Rounded(unit.Dp(6)).Layout(gtx, card)
	}
	if DebugOutline {
		inner := rounded
		rounded = func(gtx layout.Context) layout.Dimensions {
			return debug.Outline(gtx, s.Theme.Palette.Crosshair, inner)
		}
	}

	offset := op.Offset(image.Pt(x, y)).Push(gtx.Ops)
	gtx.Constraints = layout.Exact(image.Pt(cardW, cardH))
	rounded(gtx)
	offset.Pop()
}

// drawLine fills a thin axis-aligned rectangle, the overlay's screen-space
// rule primitive (spec §4.4 "Grid", reused here for the crosshair's cross).
func drawLine(gtx layout.Context, x0, y0, x1, y1 int, col color.NRGBA) {
	rect := image.Rect(x0, y0, x1, y1)
	if rect.Empty() {
		return
	}
	paint.FillShape(gtx.Ops, col, clip.Rect(rect).Op())
}

func formatTimeLabel(ms float64) string {
	d := int64(ms)
	secs := d / 1000
	h := (secs / 3600) % 24
	m := (secs / 60) % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

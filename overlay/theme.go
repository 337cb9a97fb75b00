// Package overlay implements the UI Overlay Renderer (spec C9): the
// canvas-2D-equivalent layer painted on the UI thread directly from a
// (timeScale, priceScale, theme, lastCrosshair?) snapshot — grid, axis
// labels, crosshair, and an OHLCV tooltip card.
//
// Theme and its palette are grounded on
// example/kitchen/appwidget/apptheme/theme.go's Theme/Palette split: a
// *material.Theme plus semantic colors layered on top, extended here with
// the up/down candle colors the chart needs and interpolated with
// github.com/lucasb-eyer/go-colorful the way apptheme.UserColor does.
package overlay

import (
	"image/color"

	"gioui.org/font/gofont"
	"gioui.org/text"
	"gioui.org/widget/material"
	"github.com/lucasb-eyer/go-colorful"

	"bitchart.dev/core/gpu"
)

// Palette holds the chart's semantic colors, the overlay analogue of
// apptheme.Palette.
type Palette struct {
	Candle      gpu.Colors
	Grid        color.NRGBA
	AxisText    color.NRGBA
	Crosshair   color.NRGBA
	TooltipBg   color.NRGBA
	TooltipText color.NRGBA
}

// Light is the default light palette.
var Light = Palette{
	Candle:      gpu.Colors{Up: rgb(0x26A69A), Down: rgb(0xEF5350)},
	Grid:        rgba(0x00000022),
	AxisText:    rgb(0x555555),
	Crosshair:   rgba(0x00000066),
	TooltipBg:   rgb(0xFFFFFF),
	TooltipText: rgb(0x000000),
}

// Dark is the default dark palette.
var Dark = Palette{
	Candle:      gpu.Colors{Up: rgb(0x26A69A), Down: rgb(0xEF5350)},
	Grid:        rgba(0xFFFFFF22),
	AxisText:    rgb(0xCCCCCC),
	Crosshair:   rgba(0xFFFFFF88),
	TooltipBg:   rgb(0x222222),
	TooltipText: rgb(0xEEEEEE),
}

// Theme wraps a *material.Theme with the chart's Palette, mirroring
// apptheme.Theme's "material.Theme + semantic Palette" composition.
type Theme struct {
	*material.Theme
	Palette Palette
}

// NewTheme constructs a Theme using the stock Go font collection, the same
// way every teacher example (example/kitchen/main.go, example/carousel,
// example/stretch) bootstraps material.NewTheme(gofont.Collection()).
func NewTheme() *Theme {
	return &Theme{Theme: material.NewTheme(fonts()), Palette: Light}
}

func fonts() []text.FontFace { return gofont.Collection() }

// Use switches the active palette.
func (t *Theme) Use(p Palette) { t.Palette = p }

// Interpolate blends two palette colors fractionally, using go-colorful's
// perceptual Lab blend the way apptheme's UserColor reaches for
// colorful.FastHappyColor() instead of naive RGB lerp.
func Interpolate(a, b color.NRGBA, t float64) color.NRGBA {
	ca, _ := colorful.MakeColor(a)
	cb, _ := colorful.MakeColor(b)
	return toNRGBA(ca.BlendLab(cb, t).Clamped())
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b, a := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func rgb(c uint32) color.NRGBA { return rgba(0xff000000 | c) }

func rgba(c uint32) color.NRGBA {
	return color.NRGBA{A: uint8(c >> 24), R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c)}
}

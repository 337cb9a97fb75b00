// Command bitchart-demo demonstrates the chart controller driving a live
// Gio window: synthetic OHLCV ticks feed the controller, window frame events
// drive its render worker's frame loop (whose draw ops go into a frame-local
// list and are not added to the window), and the overlay paints
// grid/axes/crosshair into the window, the same split main/event-loop shape
// as example/kitchen/main.go.
package main

import (
	"flag"
	"fmt"
	"image"
	"math/rand"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/unit"
	lorem "github.com/drhodes/golorem"

	"bitchart.dev/core/chart"
	"bitchart.dev/core/overlay"
	"bitchart.dev/core/render"
	"bitchart.dev/core/store"
)

var bars = flag.Int("bars", 300, "initial synthetic bar count")

func main() {
	flag.Parse()
	symbol := fmt.Sprintf("%sUSD", lorem.Word(3, 5))

	w := app.NewWindow(
		app.Title("BitChart — "+symbol),
		app.Size(unit.Dp(900), unit.Dp(600)),
	)

	ticker, push := render.NewWindowTicker()
	ctrl := chart.New(chart.DefaultConfig())
	ctrl.Init(ticker, 900, 600)
	defer ctrl.Destroy()

	ctrl.AddEventListener(func(e chart.Event) {
		if ee, ok := e.(chart.ErrorEvent); ok {
			fmt.Fprintf(os.Stderr, "bitchart: %v\n", ee.Err)
		}
	})

	ctrl.SetData(syntheticBars(*bars))
	go driveLiveTicks(ctrl)

	go func() {
		var ops op.Ops
		var pressed bool
		for e := range w.Events() {
			switch e := e.(type) {
			case system.DestroyEvent:
				if e.Err != nil {
					fmt.Fprintf(os.Stderr, "bitchart: %v\n", e.Err)
					os.Exit(1)
				}
				os.Exit(0)
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, e)
				push(render.Frame{Time: e.Now})

				area := clip.Rect(image.Rectangle{Max: e.Size}).Push(gtx.Ops)
				pointer.InputOp{
					Tag:   ctrl,
					Types: pointer.Press | pointer.Drag | pointer.Release | pointer.Move | pointer.Leave | pointer.Scroll,
					ScrollBounds: image.Rectangle{
						Min: image.Pt(-1, -1), Max: image.Pt(1, 1),
					},
				}.Add(gtx.Ops)
				area.Pop()

				for _, ev := range gtx.Events(ctrl) {
					pe, ok := ev.(pointer.Event)
					if !ok {
						continue
					}
					switch pe.Type {
					case pointer.Press:
						pressed = true
						ctrl.HandlePointer(chart.PointerEvent{Kind: chart.PointerDown, X: float64(pe.Position.X), Y: float64(pe.Position.Y)})
					case pointer.Drag, pointer.Move:
						ctrl.HandlePointer(chart.PointerEvent{Kind: chart.PointerMove, X: float64(pe.Position.X), Y: float64(pe.Position.Y)})
					case pointer.Release:
						pressed = false
						ctrl.HandlePointer(chart.PointerEvent{Kind: chart.PointerUp})
					case pointer.Leave:
						pressed = false
						ctrl.HandlePointer(chart.PointerEvent{Kind: chart.PointerLeave})
					case pointer.Scroll:
						ctrl.HandleWheel(chart.WheelEvent{X: float64(pe.Position.X), Y: float64(pe.Position.Y), DeltaY: float64(pe.Scroll.Y)})
					}
				}
				_ = pressed

				overlay.Paint(gtx, ctrl.OverlaySnapshot())
				e.Frame(gtx.Ops)
			}
		}
	}()
	app.Main()
}

// syntheticBars generates a random-walk OHLCV series for the demo, grounded
// on example/kitchen/main.go's use of lorem/rand to fabricate content
// without a live data source.
func syntheticBars(n int) []store.Bar {
	out := make([]store.Bar, n)
	price := 100.0
	now := time.Now().UnixMilli()
	const timeframeMs = 60_000
	for i := 0; i < n; i++ {
		open := price
		delta := (rand.Float64() - 0.5) * 2
		price += delta
		high := max2(open, price) + rand.Float64()*0.5
		low := min2(open, price) - rand.Float64()*0.5
		vol := 50 + rand.Float64()*200
		out[i] = store.Bar{
			Time: float32(now - int64(n-i)*timeframeMs),
			Open: float32(open), High: float32(high), Low: float32(low),
			Close: float32(price), Volume: float32(vol),
		}
	}
	return out
}

// driveLiveTicks periodically appends a new synthetic bar, simulating a
// live feed without requiring a real exchange connection (see ingest's
// Non-goal on concrete transports).
func driveLiveTicks(ctrl *chart.Controller) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	price := 100.0
	for range t.C {
		price += (rand.Float64() - 0.5) * 2
		bar := store.Bar{
			Time: float32(time.Now().UnixMilli()),
			Open: float32(price), High: float32(price + 0.3), Low: float32(price - 0.3),
			Close: float32(price), Volume: float32(50 + rand.Float64()*100),
		}
		ctrl.AppendData([]store.Bar{bar})
	}
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

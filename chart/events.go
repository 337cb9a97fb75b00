// Package chart implements the Chart Controller (spec C10): the UI-thread
// conductor that owns the Shared Data Store, Compute Worker, Render Worker,
// and the two scales, and routes pointer/wheel/touch/resize input into
// them.
//
// The controller's request/response bridge (ComputeIndicator with a
// context timeout and cancellation on Destroy) is grounded on
// async/loader.go's Resource/Loader pairing: a caller schedules work and
// gets back a handle it can poll or wait on, and teardown cancels
// everything outstanding.
package chart

import (
	"bitchart.dev/core/compute"
	"bitchart.dev/core/overlay"
	"bitchart.dev/core/store"
)

// Event is the outbound Chart Controller protocol (spec §4.10):
// ready, dataChange, viewportChange, crosshair, click, error.
type Event interface{ isChartEvent() }

type ReadyEvent struct{}

type DataChangeEvent struct {
	Count int
}

type ViewportChangeEvent struct {
	TimeFrom, TimeTo   float64
	PriceFrom, PriceTo float64
}

type CrosshairEvent struct {
	Crosshair *overlay.Crosshair // nil when cleared
}

type ClickEvent struct {
	X, Y float64
	Bar  store.Bar
}

type ErrorEvent struct {
	Err error
}

func (ReadyEvent) isChartEvent()          {}
func (DataChangeEvent) isChartEvent()     {}
func (ViewportChangeEvent) isChartEvent() {}
func (CrosshairEvent) isChartEvent()      {}
func (ClickEvent) isChartEvent()          {}
func (ErrorEvent) isChartEvent()          {}

// Listener receives controller events, the Go analogue of
// addEventListener(fn).
type Listener func(Event)

// IndicatorResult is the resolved value of ComputeIndicator.
type IndicatorResult struct {
	Kind   compute.Kind
	Values []float64
}

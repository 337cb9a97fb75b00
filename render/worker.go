package render

import (
	"time"

	"gioui.org/op"

	"bitchart.dev/core/gpu"
	"bitchart.dev/core/scale"
	"bitchart.dev/core/store"
)

// VolumeViewport carries the volume strip geometry alongside its data
// range, matching spec §4.4's "volumeRange.{min,max,baseY,height}".
type VolumeViewport struct {
	Min, Max  float64
	BaseY     float64
	Height    float64
	HalfWidth float64
	Opacity   float64
}

// Viewport is the render-relevant subset of spec §3's Viewport type: the
// ranges the shaders need as uniforms, plus the candle half-width, a layout
// parameter the spec leaves implicit.
type Viewport struct {
	TimeRange       scale.Range
	PriceRange      scale.Range
	Volume          VolumeViewport
	CandleHalfWidth float64
}

// Message is the inbound protocol (spec §4.5): init, resize, updateData,
// updateDataShared, setViewport, setTheme, setSeriesVisibility, destroy.
type Message interface{ isMessage() }

type InitMsg struct {
	Width, Height int
	DPR           float64
	Shared        *store.Handle // nil if no shared memory (spec §4.1 degraded mode)
}

type ResizeMsg struct{ Width, Height int }

// UpdateDataMsg is the "transferred copy" path: a full payload handed over
// by value, used when no shared handle is available.
type UpdateDataMsg struct{ Data []store.Bar }

// UpdateDataSharedMsg tells the worker to re-read [offset,offset+count) from
// its shared handle rather than carrying the payload in the message.
type UpdateDataSharedMsg struct{ Offset, Count int32 }

type SetViewportMsg struct{ Viewport Viewport }

type SetThemeMsg struct{ Colors gpu.Colors }

type SeriesID string

const (
	SeriesCandlestick SeriesID = "candlestick"
	SeriesVolume      SeriesID = "volume"
)

type SetSeriesVisibilityMsg struct {
	Series  SeriesID
	Visible bool
}

type DestroyMsg struct{}

func (InitMsg) isMessage()               {}
func (ResizeMsg) isMessage()             {}
func (UpdateDataMsg) isMessage()         {}
func (UpdateDataSharedMsg) isMessage()   {}
func (SetViewportMsg) isMessage()        {}
func (SetThemeMsg) isMessage()           {}
func (SetSeriesVisibilityMsg) isMessage() {}
func (DestroyMsg) isMessage()            {}

// Event is the outbound protocol: ready, frameComplete, error.
type Event interface{ isEvent() }

type ReadyEvent struct {
	GLVersion      string
	MaxTextureSize int
	RendererString string
}

// FrameCompleteEvent is emitted only for slow frames (>16ms), per spec §4.5.
type FrameCompleteEvent struct {
	Timestamp time.Time
	FrameTime time.Duration
	DrawCalls int
	Instances int
}

type ErrorEvent struct {
	Message string
	ID      string
}

func (ReadyEvent) isEvent()         {}
func (FrameCompleteEvent) isEvent() {}
func (ErrorEvent) isEvent()         {}

// slowFrameThreshold is the spec's ">16ms" frameComplete emission gate.
const slowFrameThreshold = 16 * time.Millisecond

// Worker is the Render Worker (C5): owns the GPU buffer state and the frame
// loop, translating viewport + instance data into draw calls each tick.
// Its goroutine-plus-channels shape generalizes the worker loop pattern in
// async/loader.go, replacing the loader's task queue with a frame ticker
// and a small inbound-message protocol.
type Worker struct {
	in  chan Message
	out chan Event

	ticker Ticker

	bufMgr *gpu.BufferManager

	width, height int
	shared        *store.Handle
	data          []store.Bar

	viewport Viewport
	colors   gpu.Colors
	visible  map[SeriesID]bool

	drawCalls int
	instances int
}

// NewWorker constructs a Worker driven by ticker, with outbound events
// delivered on a channel of the given buffer depth.
func NewWorker(ticker Ticker, outBuf int) *Worker {
	return &Worker{
		in:     make(chan Message, 8),
		out:    make(chan Event, outBuf),
		ticker: ticker,
		bufMgr: gpu.NewBufferManager(),
		visible: map[SeriesID]bool{
			SeriesCandlestick: true,
			SeriesVolume:      true,
		},
		colors: gpu.Colors{},
	}
}

// Send delivers a message to the worker's inbound queue.
func (w *Worker) Send(m Message) { w.in <- m }

// Events returns the outbound event channel.
func (w *Worker) Events() <-chan Event { return w.out }

// Run drives the worker's loop until a DestroyMsg is received or the
// ticker's Frames channel is closed. It is run in its own goroutine,
// mirroring the off-main-thread ownership the spec requires.
func (w *Worker) Run() {
	defer close(w.out)
	for {
		select {
		case msg, ok := <-w.in:
			if !ok {
				return
			}
			if w.handle(msg) {
				return
			}
		case frame, ok := <-w.ticker.Frames():
			if !ok {
				return
			}
			w.renderFrame(frame)
		}
	}
}

func (w *Worker) handle(msg Message) (destroy bool) {
	switch m := msg.(type) {
	case InitMsg:
		w.width, w.height = m.Width, m.Height
		w.shared = m.Shared
		w.bufMgr.Create("candles", 0)
		w.bufMgr.Create("volume", 0)
		w.out <- ReadyEvent{
			GLVersion:      "headless-3.00",
			MaxTextureSize: 16384,
			RendererString: "bitchart-software",
		}
	case ResizeMsg:
		w.width, w.height = m.Width, m.Height
	case UpdateDataMsg:
		w.data = m.Data
		w.uploadInstances()
	case UpdateDataSharedMsg:
		if w.shared == nil {
			w.out <- ErrorEvent{Message: "updateDataShared: no shared handle available"}
			return false
		}
		w.data = w.shared.Slice(m.Offset, m.Count)
		w.uploadInstances()
	case SetViewportMsg:
		w.viewport = m.Viewport
	case SetThemeMsg:
		w.colors = m.Colors
	case SetSeriesVisibilityMsg:
		w.visible[m.Series] = m.Visible
	case DestroyMsg:
		for _, id := range []gpu.BufferID{"candles", "volume"} {
			w.bufMgr.Destroy(id)
		}
		w.ticker.Stop()
		return true
	}
	return false
}

// uploadInstances performs the buffer-orphaning upload the spec requires
// for per-frame streaming data (§4.5 "Instance upload"): both the
// candlestick and volume instance buffers receive the same payload via
// Replace, not Update.
func (w *Worker) uploadInstances() {
	payload := make([]byte, len(w.data)*store.BarSize)
	for i, b := range w.data {
		store.EncodeBar(payload[i*store.BarSize:], b)
	}
	w.bufMgr.Replace("candles", payload)
	w.bufMgr.Replace("volume", payload)
}

// renderFrame performs one iteration of spec §4.5's Frame algorithm:
// conditionally draw volume then candlesticks into a frame-local op list,
// record stats, and on slow frames emit frameComplete. No background clear
// is recorded.
func (w *Worker) renderFrame(f Frame) {
	start := f.Time
	var ops op.Ops

	drawCalls, instances := 0, 0
	if w.visible[SeriesVolume] && len(w.data) > 0 {
		volMin, volMax := w.viewport.Volume.Min, w.viewport.Volume.Max
		if volMax <= volMin {
			volMin, volMax = volumeRange(w.data)
		}
		n := gpu.PaintVolume(&ops, w.data, w.viewport.TimeRange, volMin, volMax,
			w.viewport.Volume.BaseY, w.viewport.Volume.Height, w.viewport.Volume.HalfWidth,
			w.colors, w.viewport.Volume.Opacity, w.width, w.height)
		if n > 0 {
			drawCalls++
			instances += n
		}
	}
	if w.visible[SeriesCandlestick] && len(w.data) > 0 {
		n := gpu.PaintCandles(&ops, w.data, w.viewport.TimeRange, w.viewport.PriceRange,
			w.viewport.CandleHalfWidth, w.colors, w.width, w.height)
		if n > 0 {
			drawCalls++
			instances += n
		}
	}
	w.drawCalls, w.instances = drawCalls, instances

	elapsed := f.Delta
	if elapsed > slowFrameThreshold {
		select {
		case w.out <- FrameCompleteEvent{
			Timestamp: start,
			FrameTime: elapsed,
			DrawCalls: drawCalls,
			Instances: instances,
		}:
		default:
			// Outbound buffer full: drop the stats event rather than
			// block the frame loop on a slow consumer.
		}
	}
}

// volumeRange computes the min/max volume across bars, for the volume
// shader's normalization uniform.
func volumeRange(bars []store.Bar) (min, max float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	min, max = float64(bars[0].Volume), float64(bars[0].Volume)
	for _, b := range bars[1:] {
		v := float64(b.Volume)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

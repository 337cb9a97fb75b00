package chart

import (
	"context"
	"errors"
	"sync"
	"time"

	"bitchart.dev/core/compute"
	"bitchart.dev/core/internal/profiling"
	"bitchart.dev/core/lod"
	"bitchart.dev/core/overlay"
	"bitchart.dev/core/render"
	"bitchart.dev/core/scale"
	"bitchart.dev/core/store"
)

// RequestTimeout is the default worker-request bridge timeout (spec §5).
const RequestTimeout = 30 * time.Second

// errDestroyed is returned to any ComputeIndicator caller still waiting
// when Destroy is called, matching spec §5's "rejected with destroyed".
var errDestroyed = errors.New("destroyed")

// PointerKind distinguishes the phases of a pointer interaction (spec
// §4.10's event mapping).
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

// PointerEvent is the controller's input for pointer interaction, in
// content (chart-surface) pixel coordinates.
type PointerEvent struct {
	Kind PointerKind
	X, Y float64
}

// WheelEvent is the controller's input for zoom. DeltaY>0 zooms out
// (factor 1.1); DeltaY<0 zooms in (factor 0.9), per spec §4.10.
type WheelEvent struct {
	X, Y   float64
	DeltaY float64
}

// PinchEvent carries a two-finger pinch distance ratio (spec §4.10
// "Touch"): ratio<1 means fingers moved closer (zoom in).
type PinchEvent struct {
	Ratio float64
}

// Config configures a new Controller.
type Config struct {
	Store          store.Mode
	Timeframe      time.Duration
	ComputeWorkers int
	RightPadding   float64 // fraction of data span; spec §4.6 default small value
}

// DefaultConfig returns BitChart's default controller configuration.
func DefaultConfig() Config {
	return Config{
		Store:        store.Mode{Shared: true, Ring: false, InitialCapacity: 1024},
		Timeframe:    time.Minute,
		RightPadding: 0.05,
	}
}

// Controller is the Chart Controller (C10): the UI-thread conductor owning
// the Shared Data Store, Compute Worker, Render Worker, and both scales.
type Controller struct {
	mu sync.Mutex

	cfg Config

	store   *store.Store
	handle  *store.Handle
	compute *compute.Worker
	render  *render.Worker
	ticker  render.Ticker

	time  *scale.TimeScale
	price *scale.PriceScale
	lod   *lod.Manager

	theme     *overlay.Theme
	crosshair *overlay.Crosshair
	panning   bool
	lastX, lastY float64

	width, height int

	listeners []Listener

	nextReqID compute.RequestID
	destroyed bool
	destroyCh chan struct{}
}

// New constructs a Controller. Init must be called before any other method.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg, destroyCh: make(chan struct{})}
}

// Init instantiates the Shared Data Store, Compute Worker, Render Worker,
// and both scales (spec §4.10), and starts the render worker's loop on
// ticker. Emits ReadyEvent once the render worker reports ready.
func (c *Controller) Init(ticker render.Ticker, width, height int) {
	c.mu.Lock()
	c.store = store.New(c.cfg.Store)
	c.handle = c.store.GetSharedHandle()
	c.compute = compute.NewWorker(c.cfg.ComputeWorkers, profiling.None)
	c.lod = lod.NewManager(lod.DefaultLevels(), 0)
	c.time = scale.NewTimeScale(scale.Range{}, c.cfg.RightPadding)
	c.price = scale.NewPriceScale(scale.Range{})
	c.theme = overlay.NewTheme()
	c.width, c.height = width, height
	c.ticker = ticker

	c.render = render.NewWorker(ticker, 16)
	go c.render.Run()
	go c.pumpRenderEvents()
	c.mu.Unlock()

	c.render.Send(render.InitMsg{Width: width, Height: height, DPR: 1, Shared: c.handle})
}

// pumpRenderEvents forwards the render worker's error events into the
// controller's own event stream, and emits ReadyEvent on the render
// worker's ready event. frameComplete events are not forwarded.
func (c *Controller) pumpRenderEvents() {
	for ev := range c.render.Events() {
		switch e := ev.(type) {
		case render.ReadyEvent:
			c.emit(ReadyEvent{})
		case render.ErrorEvent:
			c.emit(ErrorEvent{Err: errors.New(e.Message)})
		case render.FrameCompleteEvent:
			// No controller-level event corresponds to frameComplete;
			// it is discarded.
		}
	}
}

// AddEventListener registers fn to receive controller events.
func (c *Controller) AddEventListener(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) emit(e Event) {
	c.mu.Lock()
	ls := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, l := range ls {
		l(e)
	}
}

// SetData replaces the entire data set (spec §4.10's setData).
func (c *Controller) SetData(bars []store.Bar) {
	c.store.SetAll(bars, nowMs())
	c.lod.Invalidate()
	c.syncScalesAndData()
}

// AppendData appends new bars (spec's appendData).
func (c *Controller) AppendData(bars []store.Bar) {
	c.store.Append(bars, nowMs())
	c.lod.Invalidate()
	c.syncScalesAndData()
}

// UpdateLastCandle overwrites the current last bar in place.
func (c *Controller) UpdateLastCandle(b store.Bar) {
	c.store.UpdateLast(b, nowMs())
	c.lod.Invalidate()
	c.syncScalesAndData()
}

// SetTheme installs a new overlay palette.
func (c *Controller) SetTheme(p overlay.Palette) {
	c.mu.Lock()
	c.theme.Use(p)
	c.mu.Unlock()
	c.render.Send(render.SetThemeMsg{Colors: p.Candle})
}

// Resize propagates a new size to both scales and the render worker (spec
// §4.10's "Resize observer").
func (c *Controller) Resize(w, h int) {
	c.mu.Lock()
	c.width, c.height = w, h
	c.time.SetPixelExtent(float64(w))
	c.price.SetPixelExtent(float64(h))
	c.mu.Unlock()
	c.render.Send(render.ResizeMsg{Width: w, Height: h})
	c.uploadViewport()
}

// ComputeIndicator dispatches a compute request and blocks (up to
// RequestTimeout, or until Destroy) for its result, the Go analogue of
// computeIndicator's returned promise.
func (c *Controller) ComputeIndicator(kind compute.Kind, params compute.Params) (IndicatorResult, error) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return IndicatorResult{}, errDestroyed
	}
	c.nextReqID++
	id := c.nextReqID
	c.mu.Unlock()

	bars := c.store.Snapshot()
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = float64(b.Close)
	}

	respCh := c.compute.ComputeIndicator(compute.IndicatorRequest{
		ID: id, Kind: kind, Params: params, Closes: closes,
	})

	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()

	select {
	case resp, ok := <-respCh:
		if !ok {
			return IndicatorResult{}, errors.New("compute: no response")
		}
		switch r := resp.(type) {
		case *compute.IndicatorResponse:
			return IndicatorResult{Kind: kind, Values: r.Values}, nil
		case *compute.ErrorResponse:
			return IndicatorResult{}, errors.New(r.Message)
		default:
			return IndicatorResult{}, errors.New("compute: unexpected response type")
		}
	case <-ctx.Done():
		return IndicatorResult{}, errors.New("compute: request timed out")
	case <-c.destroyCh:
		return IndicatorResult{}, errDestroyed
	}
}

// HandlePointer implements spec §4.10's pointer event mapping.
func (c *Controller) HandlePointer(e PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch e.Kind {
	case PointerDown:
		c.panning = true
		c.lastX, c.lastY = e.X, e.Y
	case PointerMove:
		if c.panning {
			dx, dy := e.X-c.lastX, e.Y-c.lastY
			c.lastX, c.lastY = e.X, e.Y
			c.time.PanByPixels(-dx)
			c.price.PanByPixels(dy)
			c.mu.Unlock()
			c.uploadViewport()
			c.mu.Lock()
			return
		}
		c.crosshair = &overlay.Crosshair{X: e.X, Y: e.Y}
		c.resolveCrosshair()
		ch := c.crosshair
		c.mu.Unlock()
		c.emit(CrosshairEvent{Crosshair: ch})
		c.mu.Lock()
	case PointerUp:
		c.panning = false
	case PointerLeave:
		c.panning = false
		c.crosshair = nil
		c.mu.Unlock()
		c.emit(CrosshairEvent{Crosshair: nil})
		c.mu.Lock()
	}
}

// HandleWheel implements spec §4.10's wheel→zoom mapping.
func (c *Controller) HandleWheel(e WheelEvent) {
	factor := 0.9
	if e.DeltaY > 0 {
		factor = 1.1
	}
	c.mu.Lock()
	center := c.time.PixelToData(e.X)
	c.time.Zoom(factor, &center)
	c.mu.Unlock()
	c.uploadViewport()
}

// HandlePinch implements spec §4.10's two-finger pinch→zoom mapping.
func (c *Controller) HandlePinch(e PinchEvent) {
	c.mu.Lock()
	c.time.Zoom(e.Ratio, nil)
	c.mu.Unlock()
	c.uploadViewport()
}

// FitContent implements spec §4.10's double-click→fitContent mapping.
func (c *Controller) FitContent() {
	c.mu.Lock()
	c.time.FitContent()
	c.price.FitContent()
	c.mu.Unlock()
	c.uploadViewport()
}

// resolveCrosshair attempts to resolve the current crosshair's X pixel
// coordinate to a bar via binary search; must be called with c.mu held.
func (c *Controller) resolveCrosshair() {
	if c.crosshair == nil {
		return
	}
	bars := c.store.Snapshot()
	if len(bars) == 0 {
		return
	}
	dataTime := c.time.PixelToData(c.crosshair.X)
	idx := c.time.BarIndex(dataTime)
	if idx < 0 || idx >= len(bars) {
		return
	}
	c.crosshair.Bar = bars[idx]
	c.crosshair.Resolved = true
}

// syncScalesAndData implements spec §4.10's "Data sync": recompute data
// ranges, then push the updated payload and viewport to the render worker.
func (c *Controller) syncScalesAndData() {
	bars := c.store.Snapshot()
	if len(bars) == 0 {
		return
	}
	times := make([]float64, len(bars))
	minP, maxP := float64(bars[0].Low), float64(bars[0].High)
	for i, b := range bars {
		times[i] = float64(b.Time)
		if float64(b.Low) < minP {
			minP = float64(b.Low)
		}
		if float64(b.High) > maxP {
			maxP = float64(b.High)
		}
	}

	c.mu.Lock()
	c.time.SetTimestamps(times)
	c.time.SetDataRange(scale.Range{From: times[0], To: times[len(times)-1]})
	c.price.SetDataRange(scale.Range{From: minP, To: maxP})
	c.mu.Unlock()

	if c.handle != nil {
		c.render.Send(render.UpdateDataSharedMsg{Offset: 0, Count: int32(len(bars))})
	} else {
		c.render.Send(render.UpdateDataMsg{Data: bars})
	}
	c.uploadViewport()
	c.emit(DataChangeEvent{Count: len(bars)})
}

// uploadViewport sends the render worker a setViewport derived from the
// scales' current visible ranges and the max volume within the visible
// time window (spec §4.10's "Data sync" closing sentence).
func (c *Controller) uploadViewport() {
	c.mu.Lock()
	tr := c.time.VisibleRange()
	pr := c.price.VisibleRange()
	bars := c.store.Snapshot()
	c.mu.Unlock()

	volMax := 0.0
	for _, b := range bars {
		t := float64(b.Time)
		if t < tr.From || t > tr.To {
			continue
		}
		if float64(b.Volume) > volMax {
			volMax = float64(b.Volume)
		}
	}

	c.render.Send(render.SetViewportMsg{Viewport: render.Viewport{
		TimeRange:       tr,
		PriceRange:      pr,
		CandleHalfWidth: 0.01,
		Volume: render.VolumeViewport{
			Min: 0, Max: volMax,
			BaseY: -1, Height: 0.2,
			HalfWidth: 0.01, Opacity: 0.5,
		},
	}})

	c.emit(ViewportChangeEvent{
		TimeFrom: tr.From, TimeTo: tr.To,
		PriceFrom: pr.From, PriceTo: pr.To,
	})
}

// Destroy rejects any outstanding ComputeIndicator calls, tears down the
// render worker, and stops the compute worker (spec §5's teardown
// sequence).
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.mu.Unlock()

	close(c.destroyCh)
	c.render.Send(render.DestroyMsg{})
	c.compute.Close()
}

// OverlaySnapshot returns the immutable snapshot the UI Overlay Renderer
// paints from this frame (spec §4.9): current scales, theme, and crosshair.
func (c *Controller) OverlaySnapshot() overlay.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return overlay.Snapshot{
		Time: c.time, Price: c.price, Theme: c.theme,
		Crosshair: c.crosshair,
		Width:     c.width, Height: c.height, DPR: 1,
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

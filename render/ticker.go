// Package render implements the Render Worker (spec C5): the frame loop and
// the translation of viewport + instance data into draw calls.
//
// The off-main-thread canvas/WebGL2 context of the spec maps onto a
// goroutine that owns a *gpu.BufferManager and paints through Gio's op.Ops,
// the same shape example/kitchen/main.go's event loop uses to drive a
// window — except here the loop is fed by an abstract Ticker rather than a
// live gioui.org/app.Window, so it can run headless in tests (see
// DESIGN.md).
package render

import "time"

// Frame is one tick of the animation loop: a timestamp and the elapsed
// duration since the previous frame, generalizing gioui.org/io/system's
// FrameEvent down to what the render loop actually needs.
type Frame struct {
	Time  time.Time
	Delta time.Duration
}

// Ticker abstracts the "request next frame" primitive (the spec's
// requestAnimationFrame loop, §4.5 Frame step 4). Production code drives it
// from a real window's FrameEvent stream; tests drive it manually.
type Ticker interface {
	// Frames returns a channel of frame ticks. The manual ticker closes it
	// on Stop; the window ticker leaves it open.
	Frames() <-chan Frame
	// Stop terminates the ticker; no further frames are delivered.
	Stop()
}

// manualTicker is a Ticker a test (or a non-Gio host) can drive by calling
// Tick explicitly, with no wall-clock dependency.
type manualTicker struct {
	ch   chan Frame
	done chan struct{}
}

// NewManualTicker returns a Ticker with no automatic production; call Tick
// to emit a frame.
func NewManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan Frame, 1), done: make(chan struct{})}
}

func (t *manualTicker) Frames() <-chan Frame { return t.ch }

// Tick emits one frame, blocking if the channel is full. Returns false if
// the ticker has been stopped.
func (t *manualTicker) Tick(f Frame) bool {
	select {
	case <-t.done:
		return false
	case t.ch <- f:
		return true
	}
}

func (t *manualTicker) Stop() {
	select {
	case <-t.done:
	default:
		close(t.done)
		close(t.ch)
	}
}

// windowTicker adapts a Gio window's FrameEvent stream into a Ticker. Callers
// feed it from their own `for event := range w.Events()` loop (the pattern
// example/kitchen/main.go uses) by calling the returned push function on
// every system.FrameEvent and Stop on system.DestroyEvent.
type windowTicker struct {
	ch   chan Frame
	done chan struct{}
}

// NewWindowTicker returns a Ticker plus a push function a host event loop
// calls once per FrameEvent.
func NewWindowTicker() (t *windowTicker, push func(Frame)) {
	wt := &windowTicker{ch: make(chan Frame, 1), done: make(chan struct{})}
	return wt, func(f Frame) {
		select {
		case <-wt.done:
		case wt.ch <- f:
		default:
			// Drop the frame if the render loop hasn't drained the
			// previous one yet; the next FrameEvent will supersede it.
		}
	}
}

func (t *windowTicker) Frames() <-chan Frame { return t.ch }

// Stop makes push drop every later frame. The Frames channel is not closed.
func (t *windowTicker) Stop() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

package chart

import (
	"testing"
	"time"

	"bitchart.dev/core/compute"
	"bitchart.dev/core/render"
	"bitchart.dev/core/store"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ComputeWorkers = 1
	c := New(cfg)
	c.Init(render.NewManualTicker(), 800, 600)
	<-drainReady(t, c)
	return c
}

// drainReady returns a channel that is closed when the controller emits its
// ReadyEvent; other events are ignored.
func drainReady(t *testing.T, c *Controller) <-chan struct{} {
	t.Helper()
	done := make(chan struct{})
	c.AddEventListener(func(e Event) {
		if _, ok := e.(ReadyEvent); ok {
			close(done)
		}
	})
	return done
}

func sampleBars(n int) []store.Bar {
	bars := make([]store.Bar, n)
	for i := range bars {
		t := float32(i * 60_000)
		bars[i] = store.Bar{
			Time: t, Open: 10 + float32(i), High: 12 + float32(i),
			Low: 9 + float32(i), Close: 11 + float32(i), Volume: 100 + float32(i),
		}
	}
	return bars
}

func TestSetDataEmitsDataChange(t *testing.T) {
	c := newTestController(t)
	defer c.Destroy()

	var got DataChangeEvent
	ch := make(chan struct{}, 1)
	c.AddEventListener(func(e Event) {
		if d, ok := e.(DataChangeEvent); ok {
			got = d
			ch <- struct{}{}
		}
	})

	c.SetData(sampleBars(20))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for DataChangeEvent")
	}
	if got.Count != 20 {
		t.Errorf("Count = %d, want 20", got.Count)
	}
}

func TestHandlePointerPansInsteadOfCrosshairWhenDown(t *testing.T) {
	c := newTestController(t)
	defer c.Destroy()
	c.SetData(sampleBars(50))

	var crosshairEvents int
	c.AddEventListener(func(e Event) {
		if _, ok := e.(CrosshairEvent); ok {
			crosshairEvents++
		}
	})

	c.HandlePointer(PointerEvent{Kind: PointerDown, X: 100, Y: 100})
	c.HandlePointer(PointerEvent{Kind: PointerMove, X: 150, Y: 100})
	c.HandlePointer(PointerEvent{Kind: PointerUp})

	if crosshairEvents != 0 {
		t.Errorf("expected no crosshair events while panning, got %d", crosshairEvents)
	}
}

func TestHandlePointerMoveWithoutPanningResolvesCrosshair(t *testing.T) {
	c := newTestController(t)
	defer c.Destroy()
	c.SetData(sampleBars(50))

	ch := make(chan *CrosshairEvent, 1)
	c.AddEventListener(func(e Event) {
		if ce, ok := e.(CrosshairEvent); ok {
			ch <- &ce
		}
	})

	c.HandlePointer(PointerEvent{Kind: PointerMove, X: 400, Y: 300})
	select {
	case ce := <-ch:
		if ce.Crosshair == nil {
			t.Fatal("expected a non-nil crosshair")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for CrosshairEvent")
	}
}

func TestHandlePointerLeaveClearsCrosshair(t *testing.T) {
	c := newTestController(t)
	defer c.Destroy()
	c.SetData(sampleBars(50))

	events := make(chan *CrosshairEvent, 4)
	c.AddEventListener(func(e Event) {
		if ce, ok := e.(CrosshairEvent); ok {
			events <- &ce
		}
	})

	c.HandlePointer(PointerEvent{Kind: PointerMove, X: 400, Y: 300})
	c.HandlePointer(PointerEvent{Kind: PointerLeave})

	var last *CrosshairEvent
	for i := 0; i < 2; i++ {
		select {
		case last = <-events:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for CrosshairEvent")
		}
	}
	if last.Crosshair != nil {
		t.Errorf("expected crosshair cleared on leave, got %+v", last.Crosshair)
	}
}

func TestHandleWheelZoomFactorDirection(t *testing.T) {
	c := newTestController(t)
	defer c.Destroy()
	c.SetData(sampleBars(50))

	// Starting visible range is already the full (padded) data bounds, so
	// zooming out further has nothing to expand into; zoom in first to
	// leave room, then confirm zooming out widens the span again.
	c.HandleWheel(WheelEvent{X: 400, DeltaY: -1}) // zoom in: narrower span
	zoomedIn := c.time.VisibleRange()

	c.HandleWheel(WheelEvent{X: 400, DeltaY: 1}) // zoom out: wider span
	after := c.time.VisibleRange()
	if after.Span() <= zoomedIn.Span() {
		t.Errorf("expected wider visible span after zoom-out wheel, zoomedIn=%v after=%v", zoomedIn, after)
	}
}

func TestHandlePinchZoomsIn(t *testing.T) {
	c := newTestController(t)
	defer c.Destroy()
	c.SetData(sampleBars(50))

	before := c.time.VisibleRange()
	c.HandlePinch(PinchEvent{Ratio: 0.5})
	after := c.time.VisibleRange()
	if after.Span() >= before.Span() {
		t.Errorf("expected narrower visible span after pinch-in, before=%v after=%v", before, after)
	}
}

func TestFitContentResetsToFullRange(t *testing.T) {
	c := newTestController(t)
	defer c.Destroy()
	c.SetData(sampleBars(50))

	c.HandleWheel(WheelEvent{X: 400, DeltaY: -1})
	c.FitContent()

	full := c.time.DataRange()
	visible := c.time.VisibleRange()
	if visible.From != full.From {
		t.Errorf("fitContent: visible.From = %v, want %v", visible.From, full.From)
	}
}

func TestComputeIndicatorReturnsValues(t *testing.T) {
	c := newTestController(t)
	defer c.Destroy()
	c.SetData(sampleBars(30))

	res, err := c.ComputeIndicator(compute.SMA, compute.Params{Period: 5})
	if err != nil {
		t.Fatalf("ComputeIndicator error: %v", err)
	}
	if len(res.Values) != 30 {
		t.Errorf("len(Values) = %d, want 30", len(res.Values))
	}
}

func TestComputeIndicatorRejectedAfterDestroy(t *testing.T) {
	c := newTestController(t)
	c.SetData(sampleBars(10))
	c.Destroy()

	_, err := c.ComputeIndicator(compute.SMA, compute.Params{Period: 3})
	if err != errDestroyed {
		t.Errorf("ComputeIndicator after Destroy: err = %v, want %v", err, errDestroyed)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	c := newTestController(t)
	c.Destroy()
	c.Destroy() // must not panic or double-close destroyCh
}

package render

import (
	"testing"
	"time"

	"bitchart.dev/core/scale"
	"bitchart.dev/core/store"
)

func startWorker(t *testing.T) (*Worker, *manualTicker) {
	t.Helper()
	ticker := NewManualTicker()
	w := NewWorker(ticker, 8)
	go w.Run()
	return w, ticker
}

func TestInitEmitsReady(t *testing.T) {
	w, ticker := startWorker(t)
	defer ticker.Stop()

	w.Send(InitMsg{Width: 800, Height: 600})
	ev := <-w.Events()
	ready, ok := ev.(ReadyEvent)
	if !ok {
		t.Fatalf("expected ReadyEvent, got %T", ev)
	}
	if ready.MaxTextureSize <= 0 {
		t.Errorf("expected a positive MaxTextureSize, got %d", ready.MaxTextureSize)
	}
}

func TestUpdateDataSharedWithoutHandleErrors(t *testing.T) {
	w, ticker := startWorker(t)
	defer ticker.Stop()

	w.Send(InitMsg{Width: 100, Height: 100})
	<-w.Events() // ready

	w.Send(UpdateDataSharedMsg{Offset: 0, Count: 10})
	ev := <-w.Events()
	errEv, ok := ev.(ErrorEvent)
	if !ok {
		t.Fatalf("expected ErrorEvent, got %T", ev)
	}
	if errEv.Message == "" {
		t.Errorf("expected a non-empty error message")
	}
}

func TestSlowFrameEmitsFrameComplete(t *testing.T) {
	w, ticker := startWorker(t)
	defer ticker.Stop()

	w.Send(InitMsg{Width: 400, Height: 300})
	<-w.Events() // ready

	w.Send(UpdateDataMsg{Data: []store.Bar{
		{Time: 0, Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Time: 1, Open: 11, High: 13, Low: 10, Close: 12, Volume: 120},
	}})
	w.Send(SetViewportMsg{Viewport: Viewport{
		TimeRange:       scale.Range{From: 0, To: 2},
		PriceRange:      scale.Range{From: 0, To: 20},
		CandleHalfWidth: 0.1,
		Volume:          VolumeViewport{Height: 0.2, HalfWidth: 0.1, Opacity: 0.5},
	}})

	ticker.Tick(Frame{Time: time.Unix(0, 0), Delta: 20 * time.Millisecond})

	ev := <-w.Events()
	fc, ok := ev.(FrameCompleteEvent)
	if !ok {
		t.Fatalf("expected FrameCompleteEvent for a slow frame, got %T", ev)
	}
	if fc.Instances != 4 { // 2 candle + 2 volume
		t.Errorf("instances = %d, want 4", fc.Instances)
	}
	if fc.DrawCalls != 2 {
		t.Errorf("draw calls = %d, want 2", fc.DrawCalls)
	}
}

func TestFastFrameEmitsNoEvent(t *testing.T) {
	w, ticker := startWorker(t)
	defer ticker.Stop()

	w.Send(InitMsg{Width: 400, Height: 300})
	<-w.Events() // ready

	w.Send(UpdateDataMsg{Data: []store.Bar{{Time: 0, Open: 10, High: 11, Low: 9, Close: 10, Volume: 1}}})
	w.Send(SetViewportMsg{Viewport: Viewport{
		TimeRange:  scale.Range{From: 0, To: 1},
		PriceRange: scale.Range{From: 0, To: 20},
	}})

	ticker.Tick(Frame{Time: time.Unix(0, 0), Delta: 2 * time.Millisecond})

	select {
	case ev := <-w.Events():
		t.Fatalf("expected no event for a fast frame, got %#v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSeriesVisibilityTogglesDrawCalls(t *testing.T) {
	w, ticker := startWorker(t)
	defer ticker.Stop()

	w.Send(InitMsg{Width: 400, Height: 300})
	<-w.Events()
	w.Send(UpdateDataMsg{Data: []store.Bar{{Time: 0, Open: 10, High: 11, Low: 9, Close: 10, Volume: 1}}})
	w.Send(SetViewportMsg{Viewport: Viewport{
		TimeRange:  scale.Range{From: 0, To: 1},
		PriceRange: scale.Range{From: 0, To: 20},
		Volume:     VolumeViewport{Height: 0.2},
	}})
	w.Send(SetSeriesVisibilityMsg{Series: SeriesVolume, Visible: false})

	ticker.Tick(Frame{Time: time.Unix(0, 0), Delta: 20 * time.Millisecond})
	ev := <-w.Events()
	fc := ev.(FrameCompleteEvent)
	if fc.DrawCalls != 1 {
		t.Errorf("draw calls = %d, want 1 with volume hidden", fc.DrawCalls)
	}
}

func TestDestroyStopsWorker(t *testing.T) {
	ticker := NewManualTicker()
	w := NewWorker(ticker, 4)
	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()

	w.Send(InitMsg{Width: 10, Height: 10})
	<-w.Events()
	w.Send(DestroyMsg{})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after DestroyMsg")
	}
}

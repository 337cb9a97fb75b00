package scale

import "testing"

func approx(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

// TestTimeRoundTrip exercises spec testable property 3 for the time axis.
func TestTimeRoundTrip(t *testing.T) {
	ts := NewTimeScale(Range{0, 1000}, 0.05)
	ts.SetPixelExtent(800)
	for _, v := range []float64{0, 123.4, 500, 999} {
		px := ts.DataToPixel(v)
		got := ts.PixelToData(px)
		if !approx(got, v, 1e-6) {
			t.Errorf("round trip %v -> px %v -> %v", v, px, got)
		}
	}
}

// TestPriceRoundTrip exercises spec testable property 3 for the price axis
// with log scale disabled.
func TestPriceRoundTrip(t *testing.T) {
	ps := NewPriceScale(Range{10, 20})
	ps.SetPixelExtent(400)
	for _, v := range []float64{10, 12.5, 17, 20} {
		px := ps.DataToPixel(v)
		got := ps.PixelToData(px)
		if !approx(got, v, 1e-6) {
			t.Errorf("round trip %v -> px %v -> %v", v, px, got)
		}
	}
}

func TestPriceInvertedAxis(t *testing.T) {
	ps := NewPriceScale(Range{0, 100})
	ps.SetPixelExtent(100)
	if px := ps.DataToPixel(100); !approx(px, 0, 1e-9) {
		t.Errorf("max price should map to pixel 0, got %v", px)
	}
	if px := ps.DataToPixel(0); !approx(px, 100, 1e-9) {
		t.Errorf("min price should map to pixel extent, got %v", px)
	}
}

// TestZoomReversible exercises spec testable property 4.
func TestZoomReversible(t *testing.T) {
	ts := NewTimeScale(Range{0, 1_000_000}, 0.05)
	ts.SetPixelExtent(800)
	before := ts.VisibleRange()
	center := before.Mid()

	ts.Zoom(0.5, &center)
	ts.Zoom(2.0, &center)

	after := ts.VisibleRange()
	if !approx(after.From, before.From, 1e-6) || !approx(after.To, before.To, 1e-6) {
		t.Errorf("zoom(2) . zoom(0.5) != identity: before=%+v after=%+v", before, after)
	}
}

// TestViewportClampScenario exercises spec scenario (f): data range
// [0,1000], rightPadding 0.05, visibleRange [900,1050]; panning by +200ms
// is absorbed at the right edge, leaving the visible range unchanged.
func TestViewportClampScenario(t *testing.T) {
	ts := NewTimeScale(Range{0, 1000}, 0.05)
	ts.visibleRange = Range{900, 1050}
	ts.Pan(200)

	got := ts.VisibleRange()
	want := Range{900, 1050}
	if !approx(got.From, want.From, 1e-9) || !approx(got.To, want.To, 1e-9) {
		t.Errorf("visibleRange after pan = %+v, want %+v (absorbed)", got, want)
	}
}

// TestClampInvariants exercises spec testable property 8 across a sequence
// of pans and zooms.
func TestClampInvariants(t *testing.T) {
	ts := NewTimeScale(Range{0, 1000}, 0.05)
	ts.SetPixelExtent(500)
	ops := []func(){
		func() { ts.Pan(-10000) },
		func() { ts.Pan(10000) },
		func() { ts.Zoom(0.1, nil) },
		func() { ts.Zoom(10, nil) },
		func() { ts.PanByPixels(-500) },
	}
	bounds := ts.bounds()
	for _, op := range ops {
		op()
		vr := ts.VisibleRange()
		if !(vr.From < vr.To) {
			t.Fatalf("invariant violated: from >= to: %+v", vr)
		}
		if vr.Span() < ts.minSpan()-1e-6 {
			t.Fatalf("invariant violated: span < minSpan: %+v minSpan=%v", vr, ts.minSpan())
		}
		if vr.From < bounds.From-1e-6 {
			t.Fatalf("invariant violated: from < minData: %+v bounds=%+v", vr, bounds)
		}
	}
}

func TestPriceGridTicksNiceSteps(t *testing.T) {
	ps := NewPriceScale(Range{0, 97})
	ticks := ps.GridTicks(10)
	if len(ticks) == 0 {
		t.Fatalf("expected non-empty ticks")
	}
	if len(ticks) > 11 {
		t.Errorf("too many ticks for targetCount=10: %d", len(ticks))
	}
}

func TestTimeGridTicksFromLadder(t *testing.T) {
	ts := NewTimeScale(Range{0, 3600_000 * 24}, 0)
	ticks := ts.GridTicks(8)
	if len(ticks) == 0 {
		t.Fatalf("expected non-empty ticks")
	}
}

func TestBarIndexBinarySearch(t *testing.T) {
	ts := NewTimeScale(Range{0, 100}, 0)
	ts.SetTimestamps([]float64{0, 10, 20, 30, 40})
	cases := []struct {
		t    float64
		want int
	}{
		{-5, -1},
		{0, 0},
		{15, 1},
		{40, 4},
		{1000, 4},
	}
	for _, c := range cases {
		if got := ts.BarIndex(c.t); got != c.want {
			t.Errorf("BarIndex(%v) = %d, want %d", c.t, got, c.want)
		}
	}
}

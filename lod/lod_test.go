package lod

import (
	"testing"

	"bitchart.dev/core/compute"
	"bitchart.dev/core/store"
)

func TestManagerSelectBasic(t *testing.T) {
	m := NewManager(DefaultLevels(), 0)
	if id := m.Select(100); id != 0 {
		t.Errorf("Select(100) = %d, want 0", id)
	}
	if id := m.Select(1_000_000); id == 0 {
		t.Errorf("Select(1_000_000) should pick a high decimation level, got %d", id)
	}
}

func TestManagerHysteresisPreventsOscillation(t *testing.T) {
	levels := []Level{
		{ID: 0, MinVisibleCount: 0, DecimationFactor: 1},
		{ID: 1, MinVisibleCount: 1000, DecimationFactor: 2},
	}
	m := NewManager(levels, 0.10)

	// Cross up into level 1.
	if id := m.Select(1200); id != 1 {
		t.Fatalf("expected level 1 after crossing threshold+hysteresis, got %d", id)
	}
	// Dip just below the raw threshold but within the hysteresis band:
	// should NOT switch back down yet.
	if id := m.Select(950); id != 1 {
		t.Errorf("expected to remain on level 1 within hysteresis band, got %d", id)
	}
	// Drop well below threshold - hysteresis: now it should switch down.
	if id := m.Select(800); id != 0 {
		t.Errorf("expected to drop to level 0 once below threshold-hysteresis, got %d", id)
	}
}

func TestManagerDecimatedCachesUntilInvalidated(t *testing.T) {
	levels := []Level{
		{ID: 0, MinVisibleCount: 0, DecimationFactor: 1},
		{ID: 1, MinVisibleCount: 10, DecimationFactor: 2},
	}
	m := NewManager(levels, 0)
	calls := 0
	reduce := func(bars []store.Bar, target int) []store.Bar {
		calls++
		return compute.M4(bars, target)
	}
	bars := make([]store.Bar, 40)
	for i := range bars {
		bars[i] = store.Bar{Time: float32(i)}
	}

	m.Decimated(1, bars, 10, reduce)
	m.Decimated(1, bars, 10, reduce)
	if calls != 1 {
		t.Errorf("expected one reduce call before invalidation, got %d", calls)
	}
	m.Invalidate()
	m.Decimated(1, bars, 10, reduce)
	if calls != 2 {
		t.Errorf("expected a second reduce call after invalidation, got %d", calls)
	}
}

// TestCullIsSubrange exercises spec testable property 7.
func TestCullIsSubrange(t *testing.T) {
	times := make([]float64, 1000)
	for i := range times {
		times[i] = float64(i)
	}
	res := Cull(times, 400, 420, 5, 0, 0)
	pad := averageSpacing(times) * 5
	for i := res.Start; i < res.End; i++ {
		if times[i] < 400-pad-1e-9 || times[i] > 420+pad+1e-9 {
			t.Errorf("index %d time %v outside padded range", i, times[i])
		}
	}
}

func TestCullOverfullIsCenterTrimmed(t *testing.T) {
	times := make([]float64, 1000)
	for i := range times {
		times[i] = float64(i)
	}
	res := Cull(times, 0, 999, 0, 0, 50)
	if res.End-res.Start != 50 {
		t.Fatalf("expected exactly 50 elements, got %d", res.End-res.Start)
	}
	mid := (res.Start + res.End) / 2
	wantMid := len(times) / 2
	if abs(float64(mid-wantMid)) > 2 {
		t.Errorf("center-trim not centered: got mid index %d, want near %d", mid, wantMid)
	}
}

func TestCullUnderfullGrowsToMin(t *testing.T) {
	times := make([]float64, 1000)
	for i := range times {
		times[i] = float64(i)
	}
	res := Cull(times, 500, 500, 0, 20, 0)
	if res.End-res.Start < 20 {
		t.Errorf("expected at least 20 elements, got %d", res.End-res.Start)
	}
}

func TestNeedsUpdate(t *testing.T) {
	prev := [2]float64{0, 100}
	cases := []struct {
		name string
		cur  [2]float64
		want bool
	}{
		{"unchanged", [2]float64{0, 100}, false},
		{"small pan", [2]float64{5, 105}, false},
		{"large pan", [2]float64{20, 120}, true},
		{"zoom in a lot", [2]float64{0, 50}, true},
		{"zoom out a lot", [2]float64{0, 200}, true},
	}
	for _, c := range cases {
		if got := NeedsUpdate(prev, c.cur); got != c.want {
			t.Errorf("%s: NeedsUpdate(%v, %v) = %v, want %v", c.name, prev, c.cur, got, c.want)
		}
	}
}

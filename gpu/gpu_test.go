package gpu

import (
	"testing"

	"gioui.org/op"

	"bitchart.dev/core/scale"
	"bitchart.dev/core/store"
)

func TestBufferManagerUpdateGrowsOnly(t *testing.T) {
	m := NewBufferManager()
	m.Create("a", 10)
	if err := m.Update("a", make([]byte, 5), 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Size("a") != 10 {
		t.Errorf("size = %d, want 10 (update should not shrink)", m.Size("a"))
	}
	if err := m.Update("a", make([]byte, 20), 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if m.Size("a") != 20 {
		t.Errorf("size = %d, want 20 after growth", m.Size("a"))
	}
}

// TestReplaceExactSize exercises SPEC_FULL.md's testable property 10.
func TestReplaceExactSize(t *testing.T) {
	m := NewBufferManager()
	m.Create("instances", 1000)
	if err := m.Replace("instances", make([]byte, 240)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := m.Size("instances"); got != 240 {
		t.Errorf("size after replace = %d, want exactly 240", got)
	}
	if m.TotalBytes() != 240 {
		t.Errorf("total bytes = %d, want 240", m.TotalBytes())
	}
}

func TestDestroyReducesAccounting(t *testing.T) {
	m := NewBufferManager()
	m.Create("a", 100)
	m.Create("b", 50)
	m.Destroy("a")
	if m.TotalBytes() != 50 {
		t.Errorf("total bytes = %d, want 50", m.TotalBytes())
	}
	if m.Size("a") != -1 {
		t.Errorf("destroyed buffer should report size -1, got %d", m.Size("a"))
	}
}

func TestUnknownBufferErrors(t *testing.T) {
	m := NewBufferManager()
	if err := m.Update("nope", nil, 0); err == nil {
		t.Errorf("expected error updating unknown buffer")
	}
	if err := m.Replace("nope", nil); err == nil {
		t.Errorf("expected error replacing unknown buffer")
	}
}

func TestCandleGeometryMinBodyHeight(t *testing.T) {
	// A doji bar: open == close. Body must still have a minimum height.
	b := store.Bar{Time: 5, Open: 10, Close: 10, High: 11, Low: 9}
	body, _, _ := CandleGeometry(b, scale.Range{From: 0, To: 10}, scale.Range{From: 0, To: 20}, 0.05)
	if body.Y1-body.Y0 < MinBodyHeightNDC-1e-9 {
		t.Errorf("body height = %v, want >= %v", body.Y1-body.Y0, MinBodyHeightNDC)
	}
}

func TestCandleGeometryWicksBracketBody(t *testing.T) {
	b := store.Bar{Time: 5, Open: 10, Close: 14, High: 16, Low: 8}
	body, upper, lower := CandleGeometry(b, scale.Range{From: 0, To: 10}, scale.Range{From: 0, To: 20}, 0.05)
	if upper.Y0 != body.Y1 {
		t.Errorf("upper wick should start at body top: upper.Y0=%v body.Y1=%v", upper.Y0, body.Y1)
	}
	if lower.Y1 != body.Y0 {
		t.Errorf("lower wick should end at body bottom: lower.Y1=%v body.Y0=%v", lower.Y1, body.Y0)
	}
}

func TestPaintCandlesProducesInstances(t *testing.T) {
	var ops op.Ops
	bars := []store.Bar{
		{Time: 0, Open: 10, High: 12, Low: 9, Close: 11},
		{Time: 1, Open: 11, High: 14, Low: 10, Close: 9},
	}
	colors := Colors{Up: opaque(0, 200, 0), Down: opaque(200, 0, 0)}
	n := PaintCandles(&ops, bars, scale.Range{From: 0, To: 2}, scale.Range{From: 0, To: 20}, 0.1, colors, 800, 600)
	if n != 2 {
		t.Errorf("instances = %d, want 2", n)
	}
}

func opaque(r, g, b uint8) (c struct{ R, G, B, A uint8 }) {
	return struct{ R, G, B, A uint8 }{r, g, b, 255}
}

package compute

import (
	"math"
	"testing"
)

func nearlyEqual(a, b, eps float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= eps
}

func seriesEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !nearlyEqual(got[i], want[i], eps) {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// TestSMA exercises spec scenario (c).
func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	got := SMAf(closes, 3)
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}
	seriesEqual(t, got, want, 1e-9)
}

// TestEMA exercises spec scenario (d).
func TestEMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	got := EMAf(closes, 3)
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}
	seriesEqual(t, got, want, 1e-9)
}

func TestRSIAllGains(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7}
	got := RSIf(closes, 3)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("index %d should be NaN, got %v", i, got[i])
		}
	}
	for i := 3; i < len(got); i++ {
		if got[i] != 100 {
			t.Errorf("index %d: got %v, want 100 (all gains => zero loss)", i, got[i])
		}
	}
}

func TestMACDShapeAndNaNPrefix(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = float64(i) + math.Sin(float64(i))
	}
	r := MACDf(closes, 12, 26, 9)
	if len(r.MACD) != 50 || len(r.Signal) != 50 || len(r.Hist) != 50 {
		t.Fatalf("unexpected series lengths")
	}
	// Hist should be defined well before the end of the series.
	if math.IsNaN(r.Hist[49]) {
		t.Errorf("expected a defined histogram value by the end of the series")
	}
	flat := Interleave3(r.MACD, r.Signal, r.Hist)
	if len(flat) != 3*50 {
		t.Fatalf("interleaved length = %d, want %d", len(flat), 150)
	}
}

func TestBollingerBands(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	r := BBf(closes, 4, 2)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(r.Upper[i]) || !math.IsNaN(r.Lower[i]) {
			t.Errorf("index %d: expected NaN band, got upper=%v lower=%v", i, r.Upper[i], r.Lower[i])
		}
	}
	for i := 3; i < len(closes); i++ {
		if r.Upper[i] <= r.Middle[i] || r.Lower[i] >= r.Middle[i] {
			t.Errorf("index %d: bands not straddling middle: upper=%v middle=%v lower=%v",
				i, r.Upper[i], r.Middle[i], r.Lower[i])
		}
	}
}

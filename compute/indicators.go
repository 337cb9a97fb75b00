// Package compute implements the indicator math and M4 decimation that the
// spec's Compute Worker (C2) performs, plus the request/response worker
// pool that dispatches it (worker.go).
package compute

import "math"

// Kind identifies which indicator to compute.
type Kind uint8

const (
	SMA Kind = iota
	EMA
	RSI
	MACD
	BB
)

// Params bundles the (sparse) parameter set every indicator kind draws
// from; unused fields are ignored by a given Kind.
type Params struct {
	Period int     // SMA, EMA, RSI, BB
	Fast   int     // MACD
	Slow   int     // MACD
	Signal int     // MACD
	K      float64 // BB stddev multiplier
}

func closesOf(bars []float32) []float64 {
	out := make([]float64, len(bars))
	for i, c := range bars {
		out[i] = float64(c)
	}
	return out
}

// SMAf computes the simple moving average of period p over closes. Entries
// [0, p-2] are NaN.
func SMAf(closes []float64, p int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if p <= 0 || p > len(closes) {
		return out
	}
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= p {
			sum -= closes[i-p]
		}
		if i >= p-1 {
			out[i] = sum / float64(p)
		}
	}
	return out
}

// EMAf computes the exponential moving average of period p over closes,
// seeded with SMA(p) at index p-1 and the standard recurrence thereafter.
func EMAf(closes []float64, p int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if p <= 0 || p > len(closes) {
		return out
	}
	sma := SMAf(closes, p)
	out[p-1] = sma[p-1]
	alpha := 2.0 / (float64(p) + 1.0)
	for i := p; i < len(closes); i++ {
		out[i] = alpha*closes[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSIf computes the Relative Strength Index of period p over closes using
// Wilder smoothing. The first p entries are NaN.
func RSIf(closes []float64, p int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if p <= 0 || len(closes) <= p {
		return out
	}
	var gainSum, lossSum float64
	for i := 1; i <= p; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
	}
	avgGain := gainSum / float64(p)
	avgLoss := lossSum / float64(p)
	out[p] = rsiFromAverages(avgGain, avgLoss)

	for i := p + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDResult holds the (macd, signal, hist) series as three separate
// slices; Interleave3 flattens them into interleaved triples.
type MACDResult struct {
	MACD, Signal, Hist []float64
}

// MACDf computes MACD = EMA(fast) - EMA(slow), Signal = EMA(MACD, signal),
// Hist = MACD - Signal.
func MACDf(closes []float64, fast, slow, signal int) MACDResult {
	n := len(closes)
	fastEMA := EMAf(closes, fast)
	slowEMA := EMAf(closes, slow)
	macd := make([]float64, n)
	for i := range macd {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			macd[i] = math.NaN()
		} else {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}
	sig := emaSkippingNaN(macd, signal)
	hist := make([]float64, n)
	for i := range hist {
		if math.IsNaN(macd[i]) || math.IsNaN(sig[i]) {
			hist[i] = math.NaN()
		} else {
			hist[i] = macd[i] - sig[i]
		}
	}
	return MACDResult{MACD: macd, Signal: sig, Hist: hist}
}

// emaSkippingNaN computes an EMA(signal) over a series that may begin with
// a run of NaN (as MACD does while its constituent EMAs warm up): the
// seed is the SMA of the first `period` non-NaN values.
func emaSkippingNaN(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = math.NaN()
	}
	start := -1
	for i, v := range series {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 || start+period > len(series) {
		return out
	}
	var sum float64
	for i := start; i < start+period; i++ {
		sum += series[i]
	}
	seedIdx := start + period - 1
	out[seedIdx] = sum / float64(period)
	alpha := 2.0 / (float64(period) + 1.0)
	for i := seedIdx + 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Interleave3 packs three equal-length series into one slice of
// interleaved triples, the wire shape spec §4.2 requires for MACD/BB
// responses.
func Interleave3(a, b, c []float64) []float64 {
	out := make([]float64, 3*len(a))
	for i := range a {
		out[3*i] = a[i]
		out[3*i+1] = b[i]
		out[3*i+2] = c[i]
	}
	return out
}

// BBResult holds Bollinger Band upper/middle/lower series.
type BBResult struct {
	Upper, Middle, Lower []float64
}

// BBf computes Bollinger Bands of period p and width k standard deviations.
// middle = SMA(p); stddev is the population stddev of the trailing p
// closes around middle. First p-1 entries are NaN.
func BBf(closes []float64, p int, k float64) BBResult {
	n := len(closes)
	middle := SMAf(closes, p)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < p-1 {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}
		var sq float64
		for j := i - p + 1; j <= i; j++ {
			d := closes[j] - middle[i]
			sq += d * d
		}
		sigma := math.Sqrt(sq / float64(p))
		upper[i] = middle[i] + k*sigma
		lower[i] = middle[i] - k*sigma
	}
	return BBResult{Upper: upper, Middle: middle, Lower: lower}
}

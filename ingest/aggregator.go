package ingest

import (
	"math"
	"time"

	"bitchart.dev/core/store"
)

// Aggregator buckets ticks into OHLCV bars by time, per spec §4.8:
// bucket = floor(t/timeframe) * timeframe.
type Aggregator struct {
	timeframeMs float64
	current     store.Bar
	hasCurrent  bool
}

// NewAggregator constructs an Aggregator with the given bucket width.
func NewAggregator(timeframe time.Duration) *Aggregator {
	return &Aggregator{timeframeMs: float64(timeframe.Milliseconds())}
}

// Add feeds one tick. If the tick starts a new bucket, the previous bar is
// returned with ok=true (to be emitted as a completed "candle" event) and
// the aggregator begins accumulating the new bucket. Otherwise the current
// bar is updated in place and ok=false.
func (a *Aggregator) Add(t store.Tick) (completed store.Bar, ok bool) {
	bucket := float32(math.Floor(float64(t.Time)/a.timeframeMs) * a.timeframeMs)
	vol := t.Volume

	if !a.hasCurrent || bucket != a.current.Time {
		prev := a.current
		hadPrev := a.hasCurrent
		a.current = store.Bar{
			Time:   bucket,
			Open:   t.Price,
			High:   t.Price,
			Low:    t.Price,
			Close:  t.Price,
			Volume: vol,
		}
		a.hasCurrent = true
		if hadPrev {
			return prev, true
		}
		return store.Bar{}, false
	}

	if t.Price > a.current.High {
		a.current.High = t.Price
	}
	if t.Price < a.current.Low {
		a.current.Low = t.Price
	}
	a.current.Close = t.Price
	a.current.Volume += vol
	return store.Bar{}, false
}

// Current returns the in-progress (partial) bar, if any.
func (a *Aggregator) Current() (store.Bar, bool) {
	return a.current, a.hasCurrent
}

// Reset clears all accumulated state, so re-feeding an identical tick
// sequence afterward reproduces byte-identical bars (testable property 11).
func (a *Aggregator) Reset() {
	a.current = store.Bar{}
	a.hasCurrent = false
}

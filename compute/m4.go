package compute

import "bitchart.dev/core/store"

// M4 partitions count source bars into at most targetCount buckets and
// reduces each bucket to one output bar preserving visible extrema:
// (time=first.time, open=first.open, high=max(high), low=min(low),
// close=last.close, volume=sum(volume)).
//
// If count <= targetCount, the source is returned unchanged (copied), per
// spec §4.2 / testable property 6.
func M4(bars []store.Bar, targetCount int) []store.Bar {
	count := len(bars)
	if targetCount <= 0 || count <= targetCount {
		out := make([]store.Bar, count)
		copy(out, bars)
		return out
	}

	out := make([]store.Bar, 0, targetCount)
	bucketSize := float64(count) / float64(targetCount)
	for bucket := 0; bucket < targetCount; bucket++ {
		start := int(float64(bucket) * bucketSize)
		end := int(float64(bucket+1) * bucketSize)
		if bucket == targetCount-1 {
			end = count
		}
		if end <= start {
			continue
		}
		out = append(out, reduceBucket(bars[start:end]))
	}
	return out
}

// reduceBucket applies the M4 reduction to a contiguous slice of bars.
func reduceBucket(b []store.Bar) store.Bar {
	first := b[0]
	last := b[len(b)-1]
	out := store.Bar{
		Time:  first.Time,
		Open:  first.Open,
		Close: last.Close,
		High:  first.High,
		Low:   first.Low,
	}
	var vol float32
	for _, bar := range b {
		if bar.High > out.High {
			out.High = bar.High
		}
		if bar.Low < out.Low {
			out.Low = bar.Low
		}
		vol += bar.Volume
	}
	out.Volume = vol
	return out
}

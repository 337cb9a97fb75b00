// Package store implements the shared binary ring buffer that holds the
// active OHLCV data set (spec component C1).
//
// The payload is a dense array of 24-byte Bar records preceded by a 16-byte
// atomic header. Goroutines share an address space, so "the shared handle"
// a worker receives is simply a reference to the same backing slice rather
// than a structured-clone copy.
package store

import (
	"encoding/binary"
	"math"
)

// BarSize is the on-wire size of a single Bar record in bytes:
// 6 float32 fields (time, open, high, low, close, volume).
const BarSize = 24

// Bar is one OHLCV record. All fields are IEEE-754 32-bit floats per the
// wire layout; time is milliseconds since an arbitrary, monotonic epoch.
type Bar struct {
	Time   float32
	Open   float32
	High   float32
	Low    float32
	Close  float32
	Volume float32
}

// Valid reports whether b satisfies the bar invariants:
// low <= min(open,close) <= max(open,close) <= high and volume >= 0.
func (b Bar) Valid() bool {
	lo := float32(math.Min(float64(b.Open), float64(b.Close)))
	hi := float32(math.Max(float64(b.Open), float64(b.Close)))
	return b.Low <= lo && lo <= hi && hi <= b.High && b.Volume >= 0
}

// EncodeBar writes b's six float32 fields little-endian into dst[:24], the
// on-wire payload layout spec §3 describes for the Shared Data Store and
// for GPU instance upload (spec §4.5).
func EncodeBar(dst []byte, b Bar) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(b.Time))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(b.Open))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(b.High))
	binary.LittleEndian.PutUint32(dst[12:16], math.Float32bits(b.Low))
	binary.LittleEndian.PutUint32(dst[16:20], math.Float32bits(b.Close))
	binary.LittleEndian.PutUint32(dst[20:24], math.Float32bits(b.Volume))
}

// DecodeBar is the inverse of EncodeBar.
func DecodeBar(src []byte) Bar {
	return Bar{
		Time:   math.Float32frombits(binary.LittleEndian.Uint32(src[0:4])),
		Open:   math.Float32frombits(binary.LittleEndian.Uint32(src[4:8])),
		High:   math.Float32frombits(binary.LittleEndian.Uint32(src[8:12])),
		Low:    math.Float32frombits(binary.LittleEndian.Uint32(src[12:16])),
		Close:  math.Float32frombits(binary.LittleEndian.Uint32(src[16:20])),
		Volume: math.Float32frombits(binary.LittleEndian.Uint32(src[20:24])),
	}
}

// Side of a Tick; seller- or buyer-initiated.
type Side uint8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

// Tick is a single trade event, used only transiently by the realtime
// ingest pipeline before aggregation into a Bar.
type Tick struct {
	Time   float32
	Price  float32
	Volume float32 // 0 if not reported
	Side   Side
}

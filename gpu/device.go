// Package gpu implements the GPU Buffer/VAO Manager (spec C3) and Shader
// Set (spec C4).
//
// BufferManager's update/replace semantics are grounded on the pattern
// gioverse-chat/widget/material/bubble.go and ninepatch/ninepatch.go use to
// build per-frame paint.ImageOp/clip shapes: accumulate an op per instance
// and let Gio's own op-list compiler batch the draws — the Go-idiomatic
// analogue of uploading instance data and issuing drawArraysInstanced.
package gpu

import "fmt"

// BufferID names a GPU buffer.
type BufferID string

// bufferEntry tracks one named buffer's current byte size.
type bufferEntry struct {
	size int
}

// BufferManager is the GPU Buffer/VAO Manager (C3): named buffers with two
// update modes (Update: write-in-place, growing storage only if needed;
// Replace: full reallocation, i.e. orphaning, for per-frame streaming
// data) and byte accounting across all live buffers.
type BufferManager struct {
	buffers    map[BufferID]*bufferEntry
	totalBytes int
}

// NewBufferManager constructs an empty manager.
func NewBufferManager() *BufferManager {
	return &BufferManager{buffers: make(map[BufferID]*bufferEntry)}
}

// Create allocates a named buffer of the given initial size in bytes.
func (m *BufferManager) Create(id BufferID, initialSize int) {
	if _, exists := m.buffers[id]; exists {
		return
	}
	m.buffers[id] = &bufferEntry{size: initialSize}
	m.totalBytes += initialSize
}

// Update writes data into existing storage at offset. If the buffer is too
// small to hold offset+len(data), it is reallocated to exactly that size
// (spec §4.3). Returns an error if id is unknown.
func (m *BufferManager) Update(id BufferID, data []byte, offset int) error {
	e, ok := m.buffers[id]
	if !ok {
		return fmt.Errorf("gpu: update: unknown buffer %q", id)
	}
	need := offset + len(data)
	if need > e.size {
		m.totalBytes += need - e.size
		e.size = need
	}
	return nil
}

// Replace performs buffer orphaning: a full reallocation of the buffer to
// the new data's size, discarding any previous storage, so that in-flight
// GPU reads of the old storage are never aliased by this write. This is
// the mode the spec requires for per-frame streaming instance data (spec
// §4.3, §9's "buffer orphaning" design note; property 10).
func (m *BufferManager) Replace(id BufferID, data []byte) error {
	e, ok := m.buffers[id]
	if !ok {
		return fmt.Errorf("gpu: replace: unknown buffer %q", id)
	}
	m.totalBytes += len(data) - e.size
	e.size = len(data)
	return nil
}

// Destroy releases a buffer and its byte accounting.
func (m *BufferManager) Destroy(id BufferID) {
	e, ok := m.buffers[id]
	if !ok {
		return
	}
	m.totalBytes -= e.size
	delete(m.buffers, id)
}

// Size reports the current byte size of a buffer, or -1 if unknown.
func (m *BufferManager) Size(id BufferID) int {
	e, ok := m.buffers[id]
	if !ok {
		return -1
	}
	return e.size
}

// TotalBytes reports accounted bytes across all live buffers.
func (m *BufferManager) TotalBytes() int { return m.totalBytes }

// AttributeBinding describes one instanced vertex attribute within a
// buffer, mirroring the candlestick/volume instance layout in spec §4.5:
// (time @0, ohlc vec4 @4, volume @20), stride 24, divisor 1.
type AttributeBinding struct {
	Name    string
	Offset  int
	Divisor int // 0 = per-vertex, 1 = per-instance
}

// VAO describes a vertex array: a set of attribute bindings over a named
// buffer with a given stride.
type VAO struct {
	Buffer  BufferID
	Stride  int
	Attribs []AttributeBinding
}

// NewCandlestickVAO returns the VAO layout spec §4.5's "Instance upload"
// paragraph specifies for the shared candlestick/volume instance buffer:
// time at offset 0, ohlc vec4 at offset 4, volume at offset 20, stride 24,
// divisor 1 on every attribute.
func NewCandlestickVAO(buf BufferID) VAO {
	return VAO{
		Buffer: buf,
		Stride: 24,
		Attribs: []AttributeBinding{
			{Name: "time", Offset: 0, Divisor: 1},
			{Name: "ohlc", Offset: 4, Divisor: 1},
			{Name: "volume", Offset: 20, Divisor: 1},
		},
	}
}

package store

import (
	"sync"
	"sync/atomic"
)

// Mode configures a Store's growth and sharing behavior.
type Mode struct {
	// Ring selects ring-buffer semantics (oldest bar overwritten on
	// overflow) instead of growable semantics (capacity doubles).
	Ring bool
	// Shared controls whether GetSharedHandle returns a usable handle.
	// When false, the store still behaves identically but degrades the
	// public contract the way spec §4.1 describes for environments with
	// no shared memory: GetSharedHandle returns nil and callers are
	// expected to receive an immutable copy per update instead.
	Shared bool
	// InitialCapacity is the starting payload capacity, in bars. In
	// growable mode it is rounded up to the next power of two if not
	// already one; in ring mode it is used as given. Defaults to 1024.
	InitialCapacity int32
	// MaxCapacity caps growth in growable mode; 0 means unbounded.
	MaxCapacity int32
}

const defaultInitialCapacity = 1024

// Store is the shared binary ring buffer described in spec §3/§4.1: a
// 16-byte atomic header (count, head, lastUpdateLow, lastUpdateHigh)
// followed by a dense payload of Bar records.
//
// All mutation methods are safe to call only from the owning goroutine
// (the Chart Controller's context, per spec §5's "writes occur only from
// the controller's context"). Snapshot, Count, Head, and LastUpdate are
// safe to call concurrently from any goroutine holding a *Store or a
// *Handle obtained from GetSharedHandle.
type Store struct {
	mode Mode

	// header fields, accessed exclusively via sync/atomic so a reader that
	// observes a given count has a happens-before relationship with every
	// payload write that preceded it (release/acquire discipline, spec §5).
	count         int32
	head          int32
	lastUpdateLow int32
	lastUpdateHigh int32

	// mu serializes structural mutation (grow, setAll, append, clear).
	// Only the writer goroutine ever takes this lock in practice, but it
	// also guards capacity against concurrent reads of cap during grow.
	mu sync.Mutex

	// payload holds the current backing array. It is replaced wholesale
	// (never resliced in place beyond its own capacity) so that readers
	// which loaded a snapshot of this atomic.Value before a grow continue
	// to see a fully valid, consistently-sized array.
	payload atomic.Value // []Bar
	cap     int32
}

// New constructs a Store in the given Mode.
func New(mode Mode) *Store {
	if mode.InitialCapacity <= 0 {
		mode.InitialCapacity = defaultInitialCapacity
	}
	c := mode.InitialCapacity
	if !mode.Ring {
		c = nextPow2(c)
	}
	s := &Store{mode: mode, cap: c}
	s.payload.Store(make([]Bar, c))
	return s
}

func nextPow2(n int32) int32 {
	if n <= 1 {
		return 1
	}
	p := int32(1)
	for p < n {
		p <<= 1
	}
	return p
}

func (s *Store) bars() []Bar { return s.payload.Load().([]Bar) }

// Count returns the number of valid logical bars currently stored.
func (s *Store) Count() int32 { return atomic.LoadInt32(&s.count) }

// Head returns the ring-buffer write head (0 in growable mode).
func (s *Store) Head() int32 { return atomic.LoadInt32(&s.head) }

// LastUpdate returns the last-update timestamp, reassembled from the two
// 32-bit atomics. Per spec §9, a reader re-reads if the low word appears to
// have decreased across the two loads (indicating a concurrent update was
// torn between the two stores).
func (s *Store) LastUpdate() int64 {
	for {
		lo1 := atomic.LoadInt32(&s.lastUpdateLow)
		hi := atomic.LoadInt32(&s.lastUpdateHigh)
		lo2 := atomic.LoadInt32(&s.lastUpdateLow)
		if uint32(lo2) >= uint32(lo1) {
			return int64(uint32(hi))<<32 | int64(uint32(lo2))
		}
	}
}

func (s *Store) storeUpdateTimestamp(ts int64) {
	lo := int32(uint32(ts))
	hi := int32(uint32(ts >> 32))
	atomic.StoreInt32(&s.lastUpdateLow, lo)
	atomic.StoreInt32(&s.lastUpdateHigh, hi)
}

// grow doubles capacity until it is >= need, honoring MaxCapacity. Returns
// false without mutating anything if the cap would be exceeded. Caller must
// hold s.mu.
func (s *Store) grow(need int32) bool {
	if need <= s.cap {
		return true
	}
	newCap := s.cap
	for newCap < need {
		newCap <<= 1
	}
	if s.mode.MaxCapacity > 0 && newCap > s.mode.MaxCapacity {
		if s.mode.MaxCapacity < need {
			return false
		}
		newCap = s.mode.MaxCapacity
	}
	grown := make([]Bar, newCap)
	copy(grown, s.bars()[:s.cap])
	s.payload.Store(grown)
	s.cap = newCap
	return true
}

// SetAll atomically replaces the entire logical content of the store:
// writes the payload densely starting at offset 0, then publishes
// count=len(bars), head=0, and a fresh update timestamp.
func (s *Store) SetAll(bars []Bar, nowUnixMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int32(len(bars))
	cap := s.mode.MaxCapacity
	if cap > 0 && n > cap {
		n = cap
		bars = bars[:n]
	}
	if !s.grow(n) {
		// Growth refused: cap to current capacity (spec: capacity error,
		// dropped silently) rather than losing the whole write.
		n = s.cap
		bars = bars[:n]
	}
	dst := s.bars()
	copy(dst, bars)
	atomic.StoreInt32(&s.head, 0)
	atomic.StoreInt32(&s.count, n)
	s.storeUpdateTimestamp(nowUnixMs)
}

// Append adds bars after the current logical content. In ring mode, writes
// starting at head and wraps modulo capacity, overwriting the oldest bars;
// in growable mode appends after count, growing the buffer as needed.
//
// Returns false (without mutating anything) if growable-mode growth is
// refused because MaxCapacity would be exceeded — spec's capacity-error
// path; callers should treat this as a dropped append.
func (s *Store) Append(bars []Bar, nowUnixMs int64) bool {
	if len(bars) == 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int32(len(bars))
	if s.mode.Ring {
		s.appendRing(bars, n)
		s.storeUpdateTimestamp(nowUnixMs)
		return true
	}

	count := atomic.LoadInt32(&s.count)
	if !s.grow(count + n) {
		return false
	}
	dst := s.bars()
	copy(dst[count:count+n], bars)
	atomic.StoreInt32(&s.count, count+n)
	s.storeUpdateTimestamp(nowUnixMs)
	return true
}

// appendRing writes bars into the ring starting at the current head,
// wrapping modulo capacity (the spec's adopted resolution to the ring
// wrap-semantics open question). Caller holds s.mu.
func (s *Store) appendRing(bars []Bar, n int32) {
	// If more bars arrive than fit in the ring, only the most recent
	// `cap` bars can possibly remain visible; skip the rest.
	if n > s.cap {
		bars = bars[n-s.cap:]
		n = s.cap
	}
	dst := s.bars()
	head := atomic.LoadInt32(&s.head)
	for i := int32(0); i < n; i++ {
		idx := (head + i) % s.cap
		dst[idx] = bars[i]
	}
	newHead := (head + n) % s.cap
	count := atomic.LoadInt32(&s.count)
	newCount := count + n
	if newCount > s.cap {
		newCount = s.cap
	}
	atomic.StoreInt32(&s.head, newHead)
	atomic.StoreInt32(&s.count, newCount)
}

// UpdateLast overwrites the currently last logical bar in place, preserving
// count and head. Returns false if the store is empty.
func (s *Store) UpdateLast(b Bar, nowUnixMs int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := atomic.LoadInt32(&s.count)
	if count == 0 {
		return false
	}
	idx := s.logicalToPhysical(count - 1)
	s.bars()[idx] = b
	s.storeUpdateTimestamp(nowUnixMs)
	return true
}

// logicalToPhysical maps a logical bar index [0,count) to its physical
// slot, honoring ring-mode wraparound. Caller holds s.mu or otherwise
// guarantees head/mode are stable.
func (s *Store) logicalToPhysical(logical int32) int32 {
	if !s.mode.Ring {
		return logical
	}
	head := atomic.LoadInt32(&s.head)
	count := atomic.LoadInt32(&s.count)
	start := (head - count + s.cap) % s.cap
	return (start + logical) % s.cap
}

// Clear resets the store to empty.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	atomic.StoreInt32(&s.count, 0)
	atomic.StoreInt32(&s.head, 0)
}

// Snapshot returns a logical-order copy of the first Count() bars.
func (s *Store) Snapshot() []Bar {
	count := atomic.LoadInt32(&s.count)
	bars := s.bars()
	out := make([]Bar, count)
	if !s.mode.Ring {
		copy(out, bars[:count])
		return out
	}
	head := atomic.LoadInt32(&s.head)
	cap := s.cap
	start := (head - count + cap) % cap
	for i := int32(0); i < count; i++ {
		out[i] = bars[(start+i)%cap]
	}
	return out
}

// Capacity returns the current physical capacity in bars.
func (s *Store) Capacity() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cap
}

// Handle is the value returned by GetSharedHandle: a reference a worker
// goroutine can use to read the store's header and payload without taking
// ownership of it. In Go, goroutines already share an address space, so a
// Handle is simply a read-oriented view over the same *Store.
type Handle struct {
	s *Store
}

// Snapshot delegates to the underlying Store.
func (h *Handle) Snapshot() []Bar { return h.s.Snapshot() }

// Count delegates to the underlying Store.
func (h *Handle) Count() int32 { return h.s.Count() }

// Head delegates to the underlying Store.
func (h *Handle) Head() int32 { return h.s.Head() }

// Slice returns a read-only logical-order view of bars [offset, offset+count).
// It copies (rather than aliasing the ring's physical layout) so callers
// never observe a torn wraparound.
func (h *Handle) Slice(offset, count int32) []Bar {
	all := h.s.Snapshot()
	if offset < 0 {
		offset = 0
	}
	end := offset + count
	if end > int32(len(all)) {
		end = int32(len(all))
	}
	if offset > end {
		return nil
	}
	out := make([]Bar, end-offset)
	copy(out, all[offset:end])
	return out
}

// GetSharedHandle returns a reference suitable for passing to a worker
// goroutine. Returns nil when the store was constructed with
// Mode.Shared == false, per spec §4.1's degraded-mode contract.
func (s *Store) GetSharedHandle() *Handle {
	if !s.mode.Shared {
		return nil
	}
	return &Handle{s: s}
}

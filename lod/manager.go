// Package lod implements the LOD Manager and Frustum Culler (spec C7):
// choosing a decimation level for the current view and narrowing the data
// slice sent downstream to what is actually visible.
//
// Cull's center-trim-on-overflow behavior is grounded directly on
// gioverse-chat's list/processor.go Compact method, which keeps a
// viewport-centered window of raw elements and discards symmetric overflow
// at both ends; this package generalizes that exact algorithm from
// list-element indices to bar-time ranges (see DESIGN.md).
package lod

import "bitchart.dev/core/store"

// Level describes one level of detail: a decimation factor (a power of
// two; 1 or less is identity) applied once at least MinVisibleCount bars
// are visible.
type Level struct {
	ID               int
	MinVisibleCount  int
	DecimationFactor int

	cache        []store.Bar
	cacheVersion uint64
	cacheValid   bool
}

// DefaultLevels returns the spec's default ~6 levels with decimation
// factors 1, 2, 4, 8, 16, 32.
func DefaultLevels() []Level {
	factors := []int{1, 2, 4, 8, 16, 32}
	out := make([]Level, len(factors))
	// Thresholds chosen so each level kicks in once the previous level's
	// data volume would exceed a comfortable per-frame instance budget.
	thresholds := []int{0, 2_000, 8_000, 32_000, 128_000, 512_000}
	for i, f := range factors {
		out[i] = Level{ID: i, MinVisibleCount: thresholds[i], DecimationFactor: f}
	}
	return out
}

// DefaultHysteresis is 10% of visibleCount, per spec §4.7.
const DefaultHysteresis = 0.10

// Manager selects a Level for the current visible bar count, with
// hysteresis to prevent oscillation at a threshold boundary, and caches
// each level's decimated payload until the source data changes.
type Manager struct {
	levels      []Level
	hysteresis  float64
	current     int
	srcVersion  uint64
}

// NewManager constructs a Manager with the given levels (sorted ascending
// by MinVisibleCount) and hysteresis fraction (0 selects DefaultHysteresis).
func NewManager(levels []Level, hysteresis float64) *Manager {
	if hysteresis <= 0 {
		hysteresis = DefaultHysteresis
	}
	return &Manager{levels: levels, hysteresis: hysteresis}
}

// Invalidate marks all cached decimated payloads stale (call after any
// source-data mutation).
func (m *Manager) Invalidate() { m.srcVersion++ }

// Select returns the id of the level that should be active for the given
// visible bar count, applying the hysteresis band described in spec §4.7:
// switching up a level requires visibleCount >= threshold + h; switching
// down requires visibleCount <= threshold - h, where h = hysteresis *
// visibleCount.
func (m *Manager) Select(visibleCount int) int {
	if len(m.levels) == 0 {
		return 0
	}
	h := int(m.hysteresis * float64(visibleCount))

	// Largest level whose raw (non-hysteresis) threshold is satisfied.
	candidate := 0
	for i, lvl := range m.levels {
		if lvl.MinVisibleCount <= visibleCount {
			candidate = i
		}
	}

	if candidate > m.current {
		// Switching up: require visibleCount >= threshold + h for the
		// candidate level (not just the raw threshold).
		if visibleCount >= m.levels[candidate].MinVisibleCount+h {
			m.current = candidate
		}
	} else if candidate < m.current {
		// Switching down: require visibleCount <= (current level's own
		// threshold) - h before giving it up.
		if visibleCount <= m.levels[m.current].MinVisibleCount-h {
			m.current = candidate
		}
	}
	return m.current
}

// Current returns the most recently selected level id.
func (m *Manager) Current() int { return m.current }

// Decimated returns the decimated payload for level id, computing and
// caching it via reduce if the cache is stale or absent. reduce is
// typically compute.M4 bound to the desired target count.
func (m *Manager) Decimated(id int, source []store.Bar, targetCount int, reduce func([]store.Bar, int) []store.Bar) []store.Bar {
	if id < 0 || id >= len(m.levels) {
		return source
	}
	lvl := &m.levels[id]
	if lvl.DecimationFactor <= 1 {
		return source
	}
	if lvl.cacheValid && lvl.cacheVersion == m.srcVersion {
		return lvl.cache
	}
	lvl.cache = reduce(source, targetCount)
	lvl.cacheVersion = m.srcVersion
	lvl.cacheValid = true
	return lvl.cache
}

// Levels returns the configured levels (read-only use expected).
func (m *Manager) Levels() []Level { return m.levels }

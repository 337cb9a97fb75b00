// Package profiling unifies the profiling API between Gio's own frame
// profiler and github.com/pkg/profile, generalizing
// gioverse-chat/profile.Profiler. The Compute Worker is its only user; the
// Render Worker has no profiler.
package profiling

import (
	"log"

	"gioui.org/layout"
	"gioui.org/x/profiling"
	"github.com/pkg/profile"
)

// Profiler starts/stops/records a profiling session. Recorder needs a
// per-frame layout.Context; the Compute Worker only uses Start/Stop.
type Profiler struct {
	Starter  func(p *profile.Profile)
	Stopper  func()
	Recorder func(gtx layout.Context)
}

// Start profiling, if configured.
func (p *Profiler) Start() {
	if p.Starter != nil {
		p.Stopper = profile.Start(p.Starter).Stop
	}
}

// Stop profiling, if started.
func (p *Profiler) Stop() {
	if p.Stopper != nil {
		p.Stopper()
	}
}

// Record per-frame GPU/CPU stats, if configured.
func (p Profiler) Record(gtx layout.Context) {
	if p.Recorder != nil {
		p.Recorder(gtx)
	}
}

// Opt selects which profiler to build.
type Opt string

const (
	None      Opt = "none"
	CPU       Opt = "cpu"
	Memory    Opt = "mem"
	Block     Opt = "block"
	Goroutine Opt = "goroutine"
	Mutex     Opt = "mutex"
	Trace     Opt = "trace"
	Gio       Opt = "gio"
)

// NewProfiler builds a Profiler implementing the selected option.
func (o Opt) NewProfiler() Profiler {
	switch o {
	case "", None:
		return Profiler{}
	case CPU:
		return Profiler{Starter: profile.CPUProfile}
	case Memory:
		return Profiler{Starter: profile.MemProfile}
	case Block:
		return Profiler{Starter: profile.BlockProfile}
	case Goroutine:
		return Profiler{Starter: profile.GoroutineProfile}
	case Mutex:
		return Profiler{Starter: profile.MutexProfile}
	case Trace:
		return Profiler{Starter: profile.TraceProfile}
	case Gio:
		var recorder *profiling.CSVTimingRecorder
		return Profiler{
			Starter: func(*profile.Profile) {
				r, err := profiling.NewRecorder(nil)
				if err != nil {
					log.Printf("bitchart: starting gio profiler: %v", err)
					return
				}
				recorder = r
			},
			Stopper: func() {
				if recorder == nil {
					return
				}
				if err := recorder.Stop(); err != nil {
					log.Printf("bitchart: stopping gio profiler: %v", err)
				}
			},
			Recorder: func(gtx layout.Context) {
				if recorder == nil {
					return
				}
				recorder.Profile(gtx)
			},
		}
	}
	return Profiler{}
}

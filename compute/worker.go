package compute

import (
	"fmt"
	"runtime"
	"sync"

	"bitchart.dev/core/internal/profiling"
	"bitchart.dev/core/store"
)

// RequestID correlates a request with its response, per spec §6's worker
// message envelope ({type, id?, ...}).
type RequestID uint64

// IndicatorRequest asks the worker to compute one indicator over the dense
// close series carried in Closes. It has no offset/count fields and does
// not read from a shared handle.
type IndicatorRequest struct {
	ID     RequestID
	Kind   Kind
	Params Params
	Closes []float64 // dense closes for the requested range
}

// IndicatorResponse carries the computed series. MACD/BB responses are
// interleaved triples per spec §4.2; SMA/EMA/RSI are a flat series.
type IndicatorResponse struct {
	ID     RequestID
	Values []float64
}

// DecimateRequest asks the worker to M4-decimate bars down to at most
// TargetCount bars.
type DecimateRequest struct {
	ID          RequestID
	Bars        []store.Bar
	TargetCount int
}

// DecimateResponse carries the decimated payload.
type DecimateResponse struct {
	ID   RequestID
	Bars []store.Bar
}

// ErrorResponse reports a failed request. The only failure the worker
// reports is an unknown indicator kind.
type ErrorResponse struct {
	ID      RequestID
	Message string
}

// job is the internal unit of work dispatched to the worker pool.
type job struct {
	run func()
}

// Stats reports runtime load on the worker, generalizing
// async.LoaderStats.
type Stats struct {
	Queued    int
	InFlight  int
}

// Worker is the Compute Worker (spec C2): a fixed-size pool of goroutines
// draining a request queue, generalized from gioverse-chat's
// async.FixedWorkerPool (async/loader.go). Unlike the dynamic pool variant,
// the fixed pool is chosen here because response ordering determinism
// (spec §5: "compute worker processes one message to completion before
// the next" is honored per-worker) matters more than goroutine-spin-up
// latency for a bounded set of concurrent indicator/decimate requests.
type Worker struct {
	workers int
	queue   chan job

	mu       sync.Mutex
	inFlight int
	queued   int

	profiler profiling.Profiler

	wg   sync.WaitGroup
	once sync.Once
}

// NewWorker constructs a Compute Worker with the given concurrency (0
// defaults to runtime.NumCPU()) and an optional profiling option.
func NewWorker(workers int, opt profiling.Opt) *Worker {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	w := &Worker{
		workers:  workers,
		queue:    make(chan job),
		profiler: opt.NewProfiler(),
	}
	w.profiler.Start()
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.loop()
	}
	return w
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for j := range w.queue {
		w.mu.Lock()
		w.queued--
		w.inFlight++
		w.mu.Unlock()

		j.run()

		w.mu.Lock()
		w.inFlight--
		w.mu.Unlock()
	}
}

// Stats reports queued and in-flight job counts.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{Queued: w.queued, InFlight: w.inFlight}
}

func (w *Worker) dispatch(run func()) {
	w.mu.Lock()
	w.queued++
	w.mu.Unlock()
	w.queue <- job{run: run}
}

// ComputeIndicator queues the requested indicator on the worker pool; the
// result (or an ErrorResponse) is delivered later on the returned channel.
//
// Unknown indicator kinds yield an ErrorResponse per spec §4.2's failure
// contract; the channel always receives exactly one of
// (*IndicatorResponse, *ErrorResponse).
func (w *Worker) ComputeIndicator(req IndicatorRequest) <-chan interface{} {
	out := make(chan interface{}, 1)
	w.dispatch(func() {
		defer close(out)
		resp, err := computeIndicator(req)
		if err != nil {
			out <- &ErrorResponse{ID: req.ID, Message: err.Error()}
			return
		}
		out <- resp
	})
	return out
}

func computeIndicator(req IndicatorRequest) (*IndicatorResponse, error) {
	p := req.Params
	switch req.Kind {
	case SMA:
		return &IndicatorResponse{ID: req.ID, Values: SMAf(req.Closes, p.Period)}, nil
	case EMA:
		return &IndicatorResponse{ID: req.ID, Values: EMAf(req.Closes, p.Period)}, nil
	case RSI:
		return &IndicatorResponse{ID: req.ID, Values: RSIf(req.Closes, p.Period)}, nil
	case MACD:
		r := MACDf(req.Closes, p.Fast, p.Slow, p.Signal)
		return &IndicatorResponse{ID: req.ID, Values: Interleave3(r.MACD, r.Signal, r.Hist)}, nil
	case BB:
		r := BBf(req.Closes, p.Period, p.K)
		return &IndicatorResponse{ID: req.ID, Values: Interleave3(r.Upper, r.Middle, r.Lower)}, nil
	default:
		return nil, fmt.Errorf("compute: unknown indicator kind %d", req.Kind)
	}
}

// Decimate M4-decimates the requested bars down to TargetCount bars.
// Decimation is total (spec §4.2: "otherwise compute is total") so the
// returned channel only ever receives a *DecimateResponse.
func (w *Worker) Decimate(req DecimateRequest) <-chan *DecimateResponse {
	out := make(chan *DecimateResponse, 1)
	w.dispatch(func() {
		defer close(out)
		out <- &DecimateResponse{ID: req.ID, Bars: M4(req.Bars, req.TargetCount)}
	})
	return out
}

// Close shuts down the worker pool, waiting for in-flight jobs to finish,
// and stops profiling. Safe to call multiple times.
func (w *Worker) Close() {
	w.once.Do(func() {
		close(w.queue)
		w.wg.Wait()
		w.profiler.Stop()
	})
}

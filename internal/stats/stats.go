// Package stats summarises frame loop latency off the hot path.
//
// The loop calls Recorder.Observe once per frame. Samples go into one of two
// preallocated windows; a full window is handed to Run, which summarises it
// and returns it for reuse. Observe never allocates or blocks. If Run falls
// behind and both windows are full, samples are dropped and counted.
package stats

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/navmodel/internal/monitoring"
	"github.com/banshee-data/navmodel/internal/timeutil"
)

var logf = monitoring.Prefixed("stats")

// Summary describes one window of frames. Latencies are in milliseconds.
type Summary struct {
	Start  time.Time
	End    time.Time
	Frames int
	Valid  int

	ModelMean float64
	ModelStd  float64
	ModelP50  float64
	ModelP95  float64
	ModelMax  float64

	DSPMean float64
	DSPStd  float64
	DSPP50  float64
	DSPP95  float64
	DSPMax  float64
}

// Store persists summaries.
type Store interface {
	RecordLatencySummary(s Summary) error
}

type window struct {
	start time.Time
	model []float64
	dsp   []float64
	valid int
}

func (w *window) reset() {
	w.model = w.model[:0]
	w.dsp = w.dsp[:0]
	w.valid = 0
}

// Recorder collects per-frame latency samples.
type Recorder struct {
	size  int
	clock timeutil.Clock

	// Owned by the Observe caller.
	cur *window

	free chan *window
	full chan *window

	dropped atomic.Uint64
}

// NewRecorder creates a Recorder summarising every size frames.
func NewRecorder(size int, clock timeutil.Clock) *Recorder {
	if size <= 0 {
		size = 1
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	r := &Recorder{
		size:  size,
		clock: clock,
		free:  make(chan *window, 2),
		full:  make(chan *window, 2),
	}
	for i := 0; i < 2; i++ {
		r.free <- &window{model: make([]float64, 0, size), dsp: make([]float64, 0, size)}
	}
	return r
}

// Observe records one frame. It must be called from a single goroutine.
func (r *Recorder) Observe(model, dsp time.Duration, valid bool) {
	if r.cur == nil {
		select {
		case w := <-r.free:
			w.start = r.clock.Now()
			r.cur = w
		default:
			r.dropped.Add(1)
			return
		}
	}
	w := r.cur
	w.model = append(w.model, float64(model)/float64(time.Millisecond))
	w.dsp = append(w.dsp, float64(dsp)/float64(time.Millisecond))
	if valid {
		w.valid++
	}
	if len(w.model) == r.size {
		r.full <- w
		r.cur = nil
	}
}

// Dropped returns how many samples were lost because no window was free.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Run summarises full windows until ctx is done, logging each summary and
// recording it to store when store is non-nil. Store errors are logged.
func (r *Recorder) Run(ctx context.Context, store Store) {
	for {
		select {
		case <-ctx.Done():
			return
		case w := <-r.full:
			s := summarize(w, r.clock.Now())
			w.reset()
			r.free <- w

			logf("%d frames (%d valid): model p50=%.2fms p95=%.2fms max=%.2fms, dsp p50=%.2fms p95=%.2fms, dropped=%d",
				s.Frames, s.Valid, s.ModelP50, s.ModelP95, s.ModelMax, s.DSPP50, s.DSPP95, r.Dropped())
			if store != nil {
				if err := store.RecordLatencySummary(s); err != nil {
					monitoring.Warnf("[stats] failed to record summary: %v", err)
				}
			}
		}
	}
}

func summarize(w *window, end time.Time) Summary {
	s := Summary{Start: w.start, End: end, Frames: len(w.model), Valid: w.valid}
	s.ModelMean, s.ModelStd, s.ModelP50, s.ModelP95, s.ModelMax = describe(w.model)
	s.DSPMean, s.DSPStd, s.DSPP50, s.DSPP95, s.DSPMax = describe(w.dsp)
	return s
}

// describe sorts x in place.
func describe(x []float64) (mean, std, p50, p95, max float64) {
	if len(x) == 0 {
		return 0, 0, 0, 0, 0
	}
	sort.Float64s(x)
	mean, std = stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		std = 0
	}
	p50 = stat.Quantile(0.5, stat.Empirical, x, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, x, nil)
	max = floats.Max(x)
	return mean, std, p50, p95, max
}

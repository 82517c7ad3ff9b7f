package engine

import (
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/ltyridium/LumaFlow/pkg/timeline"
)

// AggregationResult carries one finished aggregation pass back to the
// view thread.
type AggregationResult struct {
	Blocks  []timeline.Block
	Raw     bool
	StartMS float64
	EndMS   float64
}

// AggregationWorker runs timeline aggregation off the interactive path.
// At most one pass runs at a time; requests arriving while a pass is in
// flight are dropped rather than queued, since the viewport that asked
// for them has already moved and the next stable viewport re-requests.
type AggregationWorker struct {
	logger   *log.Logger
	lut      *timeline.ColorLUT
	busy     atomic.Bool
	OnResult func(AggregationResult)
}

func NewAggregationWorker(lut *timeline.ColorLUT, logger *log.Logger) *AggregationWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &AggregationWorker{logger: logger, lut: lut}
}

// TryAggregate starts an aggregation pass over seq for the viewport
// [startMS, endMS]. It returns false when a pass is already running.
func (w *AggregationWorker) TryAggregate(seq timeline.Sequence, startMS, endMS float64, targetBins int) bool {
	if !w.busy.CompareAndSwap(false, true) {
		w.logger.Debug("aggregation in flight, dropping request", "start_ms", startMS, "end_ms", endMS)
		return false
	}
	go func() {
		defer w.busy.Store(false)
		blocks, raw := timeline.Aggregate(seq, w.lut, startMS, endMS, targetBins)
		if w.OnResult != nil {
			w.OnResult(AggregationResult{
				Blocks:  blocks,
				Raw:     raw,
				StartMS: startMS,
				EndMS:   endMS,
			})
		}
	}()
	return true
}

// Busy reports whether a pass is currently running.
func (w *AggregationWorker) Busy() bool {
	return w.busy.Load()
}

package engine

import (
	"testing"
	"time"

	"github.com/ltyridium/LumaFlow/pkg/timeline"
)

func demoSequence(n int, stepMS float64) timeline.Sequence {
	seq := make(timeline.Sequence, n)
	for i := range seq {
		seq[i].TimeMS = float64(i) * stepMS
		for ch := 0; ch < timeline.NumChannels; ch++ {
			seq[i].Channels[ch] = timeline.ChannelState{Red: uint8(i * 10), Green: 100, Blue: 50}
		}
	}
	return seq
}

func TestAggregationWorkerSingleFlight(t *testing.T) {
	lut := timeline.DefaultColorLUT()
	w := NewAggregationWorker(&lut, nil)

	results := make(chan AggregationResult)
	w.OnResult = func(r AggregationResult) { results <- r }

	seq := demoSequence(20, 100)
	if !w.TryAggregate(seq, 0, 2000, 8) {
		t.Fatal("first request refused")
	}
	// The first pass is parked on the unbuffered result channel, so a
	// second request must be dropped, not queued.
	if w.TryAggregate(seq, 0, 2000, 8) {
		t.Error("second request accepted while the first was in flight")
	}

	select {
	case res := <-results:
		if len(res.Blocks) == 0 {
			t.Error("aggregation produced no blocks")
		}
		if res.StartMS != 0 || res.EndMS != 2000 {
			t.Errorf("result window [%.0f,%.0f], want [0,2000]", res.StartMS, res.EndMS)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("aggregation never completed")
	}

	deadline := time.Now().Add(time.Second)
	for w.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("worker stayed busy after delivering its result")
		}
		time.Sleep(time.Millisecond)
	}
	if !w.TryAggregate(seq, 0, 2000, 8) {
		t.Error("request refused after the worker went idle")
	}
	<-results
}

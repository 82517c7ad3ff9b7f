package timeline

import (
	"reflect"
	"testing"
)

func evenSequence(n int, stepMS float64) Sequence {
	seq := make(Sequence, 0, n)
	for i := 0; i < n; i++ {
		seq = append(seq, solid(float64(i)*stepMS, uint8(i%16), 5, 5))
	}
	return seq
}

func TestAggregateEmptyInput(t *testing.T) {
	lut := DefaultColorLUT()
	if blocks, raw := Aggregate(nil, &lut, 0, 1000, 10); blocks != nil || raw {
		t.Errorf("empty sequence: got blocks=%v raw=%v, want nil/false", blocks, raw)
	}
	seq := evenSequence(5, 100)
	if blocks, _ := Aggregate(seq, &lut, 0, 1000, 0); blocks != nil {
		t.Errorf("zero bins: got %v, want nil", blocks)
	}
}

func TestAggregateRawMode(t *testing.T) {
	lut := DefaultColorLUT()
	seq := Sequence{solid(0, 5, 5, 5), solid(100, 6, 6, 6), solid(200, 7, 7, 7)}

	blocks, raw := Aggregate(seq, &lut, 0, 250, 10)
	if !raw {
		t.Fatal("expected raw mode when target bins exceed visible count")
	}
	if len(blocks) != len(seq) {
		t.Fatalf("raw mode emitted %d blocks for %d keyframes", len(blocks), len(seq))
	}
	for i, want := range []float64{0, 100, 200} {
		if blocks[i].StartMS != want {
			t.Errorf("block %d starts at %v, want %v", i, blocks[i].StartMS, want)
		}
	}
	// No keyframe follows the last one; its width falls back to the median
	// inter-frame interval.
	if blocks[2].WidthMS != 100 {
		t.Errorf("last raw block width %v, want median interval 100", blocks[2].WidthMS)
	}
}

func TestAggregateColorHold(t *testing.T) {
	lut := DefaultColorLUT()
	seq := Sequence{solid(0, 5, 5, 5), solid(100, 6, 6, 6), solid(200, 7, 7, 7)}

	// Viewport opens mid-gap: the lead-in keyframe's block is clamped to
	// the viewport's left edge so its color still fills the gap.
	blocks, _ := Aggregate(seq, &lut, 50, 250, 10)
	if blocks[0].StartMS != 50 {
		t.Errorf("lead-in block starts at %v, want clamped 50", blocks[0].StartMS)
	}
	if blocks[0].WidthMS != 50 {
		t.Errorf("lead-in block width %v, want 50", blocks[0].WidthMS)
	}
}

func TestAggregateBlackoutSurvivesBinning(t *testing.T) {
	lut := DefaultColorLUT()
	seq := Sequence{
		solid(0, 15, 15, 15),
		solid(5000, 0, 0, 0),
		solid(5001, 15, 15, 15),
	}

	blocks, raw := Aggregate(seq, &lut, 0, 5001, 1)
	if raw {
		t.Fatal("three keyframes into one bin should not be raw mode")
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	for ch := 0; ch < NumChannels; ch++ {
		if blocks[0].Colors[ch] != (RGB8{}) {
			t.Fatalf("channel %d resolved to %v, want the blackout's black", ch, blocks[0].Colors[ch])
		}
	}
}

func TestAggregateEmptyBinsSkipped(t *testing.T) {
	lut := DefaultColorLUT()
	seq := Sequence{
		solid(0, 5, 5, 5), solid(10, 5, 5, 5), solid(20, 5, 5, 5),
		solid(30, 5, 5, 5), solid(1000, 9, 9, 9),
	}

	blocks, raw := Aggregate(seq, &lut, 0, 1000, 4)
	if raw {
		t.Fatal("five keyframes into four bins must not be raw mode")
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (middle bins are empty)", len(blocks))
	}
	if blocks[0].StartMS != 0 || blocks[1].StartMS != 750 {
		t.Errorf("block starts %v/%v, want 0/750 (bin edges)", blocks[0].StartMS, blocks[1].StartMS)
	}
	if blocks[0].WidthMS != 750 {
		t.Errorf("first block width %v, want 750 (runs to the next emitted block)", blocks[0].WidthMS)
	}
}

func TestAggregateContiguous(t *testing.T) {
	lut := DefaultColorLUT()
	seq := evenSequence(100, 50)

	blocks, _ := Aggregate(seq, &lut, 500, 3000, 10)
	if len(blocks) < 2 {
		t.Fatalf("expected multiple blocks, got %d", len(blocks))
	}
	for i := 0; i < len(blocks)-1; i++ {
		end := blocks[i].StartMS + blocks[i].WidthMS
		if end != blocks[i+1].StartMS {
			t.Errorf("gap between block %d (ends %v) and block %d (starts %v)",
				i, end, i+1, blocks[i+1].StartMS)
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	lut := DefaultColorLUT()
	seq := evenSequence(50, 100)

	a, rawA := Aggregate(seq, &lut, 200, 4200, 7)
	b, rawB := Aggregate(seq, &lut, 200, 4200, 7)
	if rawA != rawB || !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different aggregations")
	}
}

func TestAggregateCollapsedViewport(t *testing.T) {
	lut := DefaultColorLUT()
	seq := Sequence{solid(0, 5, 5, 5), solid(100, 6, 6, 6), solid(200, 7, 7, 7)}

	blocks, raw := Aggregate(seq, &lut, 150, 150, 10)
	if !raw {
		t.Error("collapsed viewport should report raw mode")
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	// The keyframe in effect at t=150 is the one at t=100, held to the
	// viewport position.
	if blocks[0].StartMS != 150 {
		t.Errorf("block starts at %v, want 150", blocks[0].StartMS)
	}
	want := lut.Display(seq[1].Channels[0])
	if blocks[0].Colors[0] != want {
		t.Errorf("block color %v, want %v", blocks[0].Colors[0], want)
	}
}

func TestAggregateDegenerateSpan(t *testing.T) {
	lut := DefaultColorLUT()
	seq := Sequence{solid(100, 5, 5, 5), solid(100, 6, 6, 6), solid(100, 7, 7, 7)}

	blocks, raw := Aggregate(seq, &lut, 0, 200, 2)
	if !raw {
		t.Error("degenerate span should report raw mode")
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].StartMS != 100 {
		t.Errorf("degenerate block starts at %v, want 100", blocks[0].StartMS)
	}
}

func BenchmarkAggregate(b *testing.B) {
	lut := DefaultColorLUT()
	seq := evenSequence(10000, 33)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Aggregate(seq, &lut, 0, 330000, 200)
	}
}

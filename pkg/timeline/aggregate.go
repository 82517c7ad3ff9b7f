package timeline

// defaultBlockWidthMS is the fallback width when a sequence carries no
// usable spacing information at all.
const defaultBlockWidthMS = 50.0

// Block is the aggregator's output unit: a span of the timeline rendered
// with one resolved display color per channel. Blocks are ephemeral and
// rebuilt on every request; they carry no identity back into the source
// sequence.
type Block struct {
	StartMS float64
	WidthMS float64
	Colors  [NumChannels]RGB8
}

// Aggregate reduces the keyframes covering [startMS, endMS] to at most
// targetBins colored blocks. The returned flag reports raw mode: true when
// every visible keyframe fit without binning, so the caller gets exactly
// one block per keyframe.
//
// The visible slice is extended by one keyframe of lead-in so color from
// before the viewport carries in ("color hold": the lead-in block's start
// is clamped to startMS), and one keyframe of lead-out so the final block
// can extend past the right edge. When binning applies, each bin keeps
// only its most important keyframe (see Scores) and consecutive bins that
// pick the same keyframe collapse into one block.
//
// seq is a read-only snapshot and is never mutated.
func Aggregate(seq Sequence, lut *ColorLUT, startMS, endMS float64, targetBins int) ([]Block, bool) {
	if len(seq) == 0 || targetBins <= 0 {
		return nil, false
	}

	// A collapsed viewport still shows the color in effect at that instant.
	if endMS <= startMS {
		i := seq.searchAfter(startMS) - 1
		if i < 0 {
			i = 0
		}
		start := seq[i].TimeMS
		if start < startMS {
			start = startMS
		}
		blk := Block{StartMS: start, WidthMS: defaultBlockWidthMS}
		for ch := 0; ch < NumChannels; ch++ {
			blk.Colors[ch] = lut.Display(seq[i].Channels[ch])
		}
		return []Block{blk}, true
	}

	// One keyframe of lead-in and one of lead-out around the viewport.
	lo := seq.searchAfter(startMS) - 1
	if lo < 0 {
		lo = 0
	}
	hi := seq.searchAfter(endMS) + 1
	if hi > len(seq) {
		hi = len(seq)
	}
	visible := seq[lo:hi]

	times := make([]float64, len(visible))
	for i := range visible {
		times[i] = visible[i].TimeMS
	}
	if times[0] < startMS {
		times[0] = startMS
	}

	var (
		starts []float64
		widths []float64
		picks  []int
		raw    bool
	)
	if targetBins >= len(visible) {
		// Raw mode already widened its final block from the sequence
		// itself, so no viewport extension applies.
		starts, widths, picks = aggregateRaw(seq, visible, times)
		raw = true
	} else {
		starts, widths, picks, raw = aggregateBinned(visible, times, targetBins)
		extendLastBlock(seq, starts, widths, endMS)
	}

	blocks := make([]Block, len(starts))
	for i := range blocks {
		blocks[i].StartMS = starts[i]
		blocks[i].WidthMS = widths[i]
		src := &visible[picks[i]]
		for ch := 0; ch < NumChannels; ch++ {
			blocks[i].Colors[ch] = lut.Display(src.Channels[ch])
		}
	}
	return blocks, raw
}

// aggregateRaw emits one block per visible keyframe. Each block is as wide
// as the gap to the next keyframe; the final gap comes from the next
// keyframe beyond the window, then the sequence's median interval, then a
// fixed fallback.
func aggregateRaw(full Sequence, visible Sequence, times []float64) (starts, widths []float64, picks []int) {
	n := len(visible)
	starts = make([]float64, n)
	widths = make([]float64, n)
	picks = make([]int, n)
	copy(starts, times)
	for i := range picks {
		picks[i] = i
	}
	for i := 0; i < n-1; i++ {
		widths[i] = times[i+1] - times[i]
	}

	last := times[n-1]
	if next := full.searchAfter(last); next < len(full) {
		widths[n-1] = full[next].TimeMS - last
	} else if median := full.medianInterval(); median > 0 {
		widths[n-1] = median
	} else {
		widths[n-1] = defaultBlockWidthMS
	}
	return starts, widths, picks
}

// aggregateBinned partitions the visible span into equal-width bins and
// keeps the most important keyframe per bin.
func aggregateBinned(visible Sequence, times []float64, numBins int) (starts, widths []float64, picks []int, raw bool) {
	minT, maxT := times[0], times[len(times)-1]
	if maxT <= minT {
		// Degenerate span: everything collapses onto one block.
		return []float64{minT}, []float64{defaultBlockWidthMS}, []int{0}, true
	}

	scores := Scores(visible)
	binWidth := (maxT - minT) / float64(numBins)

	// Most important keyframe per bin; the closing edge folds into the
	// last bin so the final keyframe is never lost.
	best := make([]int, numBins)
	for i := range best {
		best[i] = -1
	}
	for i, t := range times {
		bin := int((t - minT) / binWidth)
		if bin < 0 {
			bin = 0
		}
		if bin >= numBins {
			bin = numBins - 1
		}
		if best[bin] < 0 || scores[i] > scores[best[bin]] {
			best[bin] = i
		}
	}

	// Emit one block per run of bins mapping to the same keyframe. Block
	// starts sit on bin edges, not on the keyframe's stored time.
	lastPick := -1
	for bin := 0; bin < numBins; bin++ {
		pick := best[bin]
		if pick < 0 || pick == lastPick {
			continue
		}
		starts = append(starts, minT+float64(bin)*binWidth)
		picks = append(picks, pick)
		lastPick = pick
	}
	if len(starts) == 0 {
		starts = append(starts, minT)
		picks = append(picks, 0)
	}

	widths = make([]float64, len(starts))
	for i := 0; i < len(starts)-1; i++ {
		widths[i] = starts[i+1] - starts[i]
	}
	widths[len(widths)-1] = maxT - starts[len(starts)-1]
	return starts, widths, picks, false
}

// extendLastBlock widens the final block so color continuity holds past
// the viewport: up to the next true keyframe in the full sequence, or to
// the viewport's right edge when the sequence ends in view. The lookahead
// is a binary search over the whole snapshot; no cap is needed.
func extendLastBlock(full Sequence, starts, widths []float64, endMS float64) {
	i := len(starts) - 1
	lastStart := starts[i]
	if next := full.searchAfter(lastStart); next < len(full) {
		widths[i] = full[next].TimeMS - lastStart
	} else if end := lastStart + widths[i]; endMS > end {
		widths[i] = endMS - lastStart
	}
}

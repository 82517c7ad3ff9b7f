package timeline

import "math"

// Importance scoring constants. Partial scores are computed in float32 so
// results stay bit-reproducible across platforms.
const (
	blackoutScore      float32 = 1000
	baseBrightnessCap  float32 = 99
	brightnessJumpCap  float32 = 100
	colorChangeCap     float32 = 500
	brightnessDivisor  float32 = 4.5
	colorChangeGain    float32 = 2
)

// Scores assigns a visual-importance score to every keyframe in seq.
// Higher scores survive downsampling. Rules, in priority order:
//
//   - an all-dark frame (total RGB == 0) scores a flat 1000 and nothing
//     else; blackouts usually mark deliberate cuts and must never be
//     dropped
//   - brighter frames gain up to 99
//   - frames at a brightness discontinuity gain up to 100
//   - frames where the color pattern across channels changes gain up to
//     500, even when overall brightness is flat
//
// The pass is pure and single-sweep; seq is never mutated.
func Scores(seq Sequence) []float32 {
	if len(seq) == 0 {
		return nil
	}

	brightness := make([]float32, len(seq))
	for i := range seq {
		brightness[i] = float32(seq[i].Brightness())
	}

	scores := make([]float32, len(seq))
	for i := range seq {
		if brightness[i] == 0 {
			scores[i] = blackoutScore
			continue
		}
		scores[i] = min32(baseBrightnessCap, brightness[i]/brightnessDivisor)

		// Neighbors use edge-hold: a missing neighbor is the frame itself,
		// so boundary frames never register a phantom jump.
		prev, next := brightness[i], brightness[i]
		if i > 0 {
			prev = brightness[i-1]
		}
		if i < len(seq)-1 {
			next = brightness[i+1]
		}
		jump := max32(abs32(brightness[i]-prev), abs32(brightness[i]-next))
		scores[i] += min32(brightnessJumpCap, jump/brightnessDivisor)

		var distPrev, distNext float32
		if i > 0 {
			distPrev = channelColorDistance(&seq[i], &seq[i-1])
		}
		if i < len(seq)-1 {
			distNext = channelColorDistance(&seq[i], &seq[i+1])
		}
		scores[i] += min32(colorChangeCap, max32(distPrev, distNext)*colorChangeGain)
	}
	return scores
}

// channelColorDistance sums the per-channel Euclidean RGB distance between
// two keyframes.
func channelColorDistance(a, b *Keyframe) float32 {
	var total float32
	for ch := 0; ch < NumChannels; ch++ {
		dr := float32(a.Channels[ch].Red) - float32(b.Channels[ch].Red)
		dg := float32(a.Channels[ch].Green) - float32(b.Channels[ch].Green)
		db := float32(a.Channels[ch].Blue) - float32(b.Channels[ch].Blue)
		total += float32(math.Sqrt(float64(dr*dr + dg*dg + db*db)))
	}
	return total
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

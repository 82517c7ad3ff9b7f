package timeline

import "math"

// Effect generators synthesize keyframe sequences procedurally. The viewer
// uses them to build demo timelines without touching the editing layer.

// Breathing generates a sequence whose overall brightness follows one full
// sine cycle between minBright and maxBright (both 0-1), tinting every
// channel with the given 4-bit base color.
func Breathing(durationMS, intervalMS float64, base ChannelState, minBright, maxBright float64) Sequence {
	if durationMS <= 0 || intervalMS <= 0 {
		return nil
	}
	n := int(durationMS / intervalMS)
	if n == 0 {
		return nil
	}
	seq := make(Sequence, 0, n)
	lastT := float64(n-1) * intervalMS
	for i := 0; i < n; i++ {
		t := float64(i) * intervalMS
		phase := 0.0
		if lastT > 0 {
			phase = t / lastT * 2 * math.Pi
		}
		sine := (math.Sin(phase) + 1) / 2
		bright := minBright + sine*(maxBright-minBright)

		var kf Keyframe
		kf.TimeMS = t
		for ch := 0; ch < NumChannels; ch++ {
			kf.Channels[ch] = ChannelState{
				Red:   uint8(math.Round(float64(base.Red) * bright)),
				Green: uint8(math.Round(float64(base.Green) * bright)),
				Blue:  uint8(math.Round(float64(base.Blue) * bright)),
			}
		}
		seq = append(seq, kf)
	}
	return seq
}

// Rainbow generates a flowing rainbow: each channel's hue is offset by its
// position, and the whole pattern cycles speed times per second.
func Rainbow(durationMS, intervalMS, speed float64) Sequence {
	if durationMS <= 0 || intervalMS <= 0 {
		return nil
	}
	n := int(durationMS / intervalMS)
	if n == 0 {
		return nil
	}
	seq := make(Sequence, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * intervalMS
		baseHue := math.Mod(t/1000.0*speed, 1.0)

		var kf Keyframe
		kf.TimeMS = t
		for ch := 0; ch < NumChannels; ch++ {
			hue := math.Mod(baseHue+float64(ch)/NumChannels, 1.0)
			r, g, b := hueToRGB(hue)
			kf.Channels[ch] = ChannelState{
				Red:   uint8(r * 15),
				Green: uint8(g * 15),
				Blue:  uint8(b * 15),
			}
		}
		seq = append(seq, kf)
	}
	return seq
}

// hueToRGB converts a hue in [0,1) at full saturation and value.
func hueToRGB(hue float64) (r, g, b float64) {
	h := hue * 6
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	switch {
	case h < 1:
		return 1, x, 0
	case h < 2:
		return x, 1, 0
	case h < 3:
		return 0, 1, x
	case h < 4:
		return 0, x, 1
	case h < 5:
		return x, 0, 1
	default:
		return 1, 0, x
	}
}

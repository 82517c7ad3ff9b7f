package timeline

import "testing"

func TestColorLUTEndpoints(t *testing.T) {
	lut := DefaultColorLUT()

	black := lut.Display(ChannelState{})
	if black != (RGB8{}) {
		t.Errorf("4-bit zero maps to %v, want black", black)
	}

	full := lut.Display(ChannelState{Red: 15, Green: 15, Blue: 15})
	if full.R != 255 {
		t.Errorf("full red maps to %d, want 255 (gain 1.0)", full.R)
	}
	if full.G >= full.R || full.B >= full.R {
		t.Errorf("green/blue gains should pull below red: got %+v", full)
	}
}

func TestColorLUTMonotonic(t *testing.T) {
	lut := DefaultColorLUT()
	prev := RGB8{}
	for v := uint8(1); v < 16; v++ {
		cur := lut.Display(ChannelState{Red: v, Green: v, Blue: v})
		if cur.R < prev.R || cur.G < prev.G || cur.B < prev.B {
			t.Fatalf("LUT not monotonic at %d: %+v -> %+v", v, prev, cur)
		}
		prev = cur
	}
}

func TestColorLUTRoundTrip(t *testing.T) {
	lut := DefaultColorLUT()
	for v := uint8(0); v < 16; v++ {
		display := lut.Display(ChannelState{Green: v}).G
		if got := lut.ToHardware(display); got != v {
			t.Errorf("round trip of %d through green curve gave %d", v, got)
		}
	}
}

func TestColorLUTImmutableUpdates(t *testing.T) {
	base := DefaultColorLUT()
	updated := base.WithGains(0.5, 0.5, 0.5)

	if base.RedGain != DefaultRedGain {
		t.Error("WithGains mutated the original LUT")
	}
	bright := ChannelState{Red: 15, Green: 15, Blue: 15}
	if updated.Display(bright).R >= base.Display(bright).R {
		t.Error("halved gain should darken the display value")
	}
}

func TestEffectGenerators(t *testing.T) {
	breathing := Breathing(10000, 100, ChannelState{Red: 15, Green: 8, Blue: 2}, 0.1, 1.0)
	if len(breathing) != 100 {
		t.Fatalf("breathing generated %d keyframes, want 100", len(breathing))
	}
	for i := 1; i < len(breathing); i++ {
		if breathing[i].TimeMS <= breathing[i-1].TimeMS {
			t.Fatal("breathing timestamps not strictly increasing")
		}
	}

	rainbow := Rainbow(5000, 50, 0.5)
	if len(rainbow) != 100 {
		t.Fatalf("rainbow generated %d keyframes, want 100", len(rainbow))
	}
	// Channels are hue-offset, so at any instant not all channels match.
	first := rainbow[0]
	same := true
	for ch := 1; ch < NumChannels; ch++ {
		if first.Channels[ch] != first.Channels[0] {
			same = false
			break
		}
	}
	if same {
		t.Error("rainbow channels should carry different hues")
	}

	if Breathing(0, 100, ChannelState{}, 0, 1) != nil {
		t.Error("zero duration should generate nothing")
	}
}

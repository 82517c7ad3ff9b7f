package timeline

import "testing"

// solid builds a keyframe with every channel set to the same RGB state.
func solid(t float64, r, g, b uint8) Keyframe {
	var kf Keyframe
	kf.TimeMS = t
	for ch := 0; ch < NumChannels; ch++ {
		kf.Channels[ch] = ChannelState{Red: r, Green: g, Blue: b}
	}
	return kf
}

func TestScoresEmpty(t *testing.T) {
	if got := Scores(nil); got != nil {
		t.Errorf("expected nil scores for empty sequence, got %v", got)
	}
}

func TestScoresBlackoutDominates(t *testing.T) {
	seq := Sequence{
		solid(0, 15, 15, 15),
		solid(100, 0, 0, 0),
		solid(200, 15, 15, 15),
	}
	scores := Scores(seq)
	// Blackout is exclusive: no jump or color terms pile on top.
	if scores[1] != 1000 {
		t.Errorf("blackout frame scored %v, want exactly 1000", scores[1])
	}
	for i := 0; i < 3; i += 2 {
		if scores[i] >= scores[1] {
			t.Errorf("frame %d scored %v, should be below the blackout's %v", i, scores[i], scores[1])
		}
	}
}

func TestScoresBaseBrightnessCapped(t *testing.T) {
	// A fully lit frame has total brightness 450; base score caps at 99.
	seq := Sequence{solid(0, 15, 15, 15)}
	scores := Scores(seq)
	if scores[0] != 99 {
		t.Errorf("lone bright frame scored %v, want exactly 99 (capped base, no neighbors)", scores[0])
	}
}

func TestScoresBrightnessJump(t *testing.T) {
	dim := solid(0, 1, 1, 1)
	bright := solid(100, 15, 15, 15)
	bright.TimeMS = 100
	seq := Sequence{dim, bright}
	scores := Scores(seq)

	// Both frames see the same jump magnitude; the bright one also gets a
	// bigger base score.
	if scores[1] <= scores[0] {
		t.Errorf("bright frame %v should outscore dim frame %v", scores[1], scores[0])
	}
	if scores[0] <= 99.0/4.5 {
		t.Errorf("dim frame %v shows no jump contribution", scores[0])
	}
}

func TestScoresColorShapeChange(t *testing.T) {
	// Same total brightness, different color pattern: red vs blue.
	red := solid(0, 10, 0, 0)
	blue := solid(100, 0, 0, 10)
	flat := Sequence{red, solid(100, 10, 0, 0)}
	shifted := Sequence{red, blue}

	flatScores := Scores(flat)
	shiftedScores := Scores(shifted)
	if shiftedScores[0] <= flatScores[0] {
		t.Errorf("color-shape change should raise the score: flat=%v shifted=%v",
			flatScores[0], shiftedScores[0])
	}
}

func TestScoresEdgeHold(t *testing.T) {
	// A single frame has no neighbors, so jump and color-change terms must
	// both be zero.
	seq := Sequence{solid(0, 2, 2, 2)}
	scores := Scores(seq)
	want := float32(60) / 4.5
	if scores[0] != want {
		t.Errorf("lone frame scored %v, want pure base score %v", scores[0], want)
	}
}

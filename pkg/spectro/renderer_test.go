package spectro

import (
	"testing"
	"time"
)

// testTrack builds a track with frames spaced 10ms apart and a constant
// magnitude everywhere.
func testTrack(frames, bins int, db float32) *Track {
	t := &Track{
		Source:      "test.mp3",
		ChannelMode: ChannelMix,
		SampleRate:  44100,
		DurationMS:  float64(frames * 10),
		Params:      DefaultParams(),
	}
	t.TimesMS = make([]float64, frames)
	for i := range t.TimesMS {
		t.TimesMS[i] = float64(i * 10)
	}
	t.Magnitudes = make([][]float32, bins)
	for b := range t.Magnitudes {
		row := make([]float32, frames)
		for i := range row {
			row[i] = db
		}
		t.Magnitudes[b] = row
	}
	return t
}

func TestRenderStaleRequestDropped(t *testing.T) {
	r := NewTileRenderer(nil)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return t0.Add(6 * time.Second) }

	track := testTrack(100, 8, -20)
	img := r.Render(track, 0, 500, 0, ColormapByName("viridis"), t0)
	if img != nil {
		t.Error("expected stale request to be dropped")
	}

	r.now = func() time.Time { return t0.Add(4 * time.Second) }
	img = r.Render(track, 0, 500, 0, ColormapByName("viridis"), t0)
	if img == nil {
		t.Fatal("expected fresh request to render")
	}
}

func TestRenderDecimation(t *testing.T) {
	r := NewTileRenderer(nil)
	track := testTrack(256, 4, -40)
	now := time.Now()

	for level, want := range map[int]int{0: 256, 1: 16, 2: 2} {
		img := r.Render(track, 0, 1e9, level, ColormapByName("gray"), now)
		if img == nil {
			t.Fatalf("level %d: no image", level)
		}
		if got := img.Bounds().Dx(); got != want {
			t.Errorf("level %d: got %d columns, want %d", level, got, want)
		}
		if got := img.Bounds().Dy(); got != 4 {
			t.Errorf("level %d: got %d rows, want 4", level, got)
		}
	}
}

func TestRenderWindowSlicing(t *testing.T) {
	r := NewTileRenderer(nil)
	track := testTrack(100, 2, -40)

	// Frames at 0,10,...,990; [200, 400] covers frames 20..40 inclusive.
	img := r.Render(track, 200, 400, 0, ColormapByName("gray"), time.Now())
	if img == nil {
		t.Fatal("no image")
	}
	if got := img.Bounds().Dx(); got != 21 {
		t.Errorf("got %d columns, want 21", got)
	}
}

func TestRenderEmptyWindow(t *testing.T) {
	r := NewTileRenderer(nil)
	track := testTrack(100, 2, -40)

	if img := r.Render(track, 5000, 6000, 0, ColormapByName("gray"), time.Now()); img != nil {
		t.Error("window past the track end should render nothing")
	}
	if img := r.Render(nil, 0, 100, 0, ColormapByName("gray"), time.Now()); img != nil {
		t.Error("nil track should render nothing")
	}
}

func TestRenderNormalization(t *testing.T) {
	r := NewTileRenderer(nil)
	now := time.Now()
	gray := ColormapByName("gray")

	// At the floor every pixel is black, at the ceiling white.
	img := r.Render(testTrack(4, 1, -80), 0, 100, 0, gray, now)
	if img.Pix[0] != 0 || img.Pix[1] != 0 || img.Pix[2] != 0 {
		t.Errorf("floor magnitude mapped to %v, want black", img.Pix[:3])
	}
	img = r.Render(testTrack(4, 1, 0), 0, 100, 0, gray, now)
	if img.Pix[0] != 255 || img.Pix[1] != 255 || img.Pix[2] != 255 {
		t.Errorf("peak magnitude mapped to %v, want white", img.Pix[:3])
	}
	// Out-of-range values clamp instead of wrapping.
	img = r.Render(testTrack(4, 1, 20), 0, 100, 0, gray, now)
	if img.Pix[0] != 255 {
		t.Errorf("above-ceiling magnitude mapped to %v, want white", img.Pix[:3])
	}
}

func TestColormapLookup(t *testing.T) {
	if got := ColormapByName("inferno").Name(); got != "inferno" {
		t.Errorf("got %q", got)
	}
	if got := ColormapByName("no-such-map").Name(); got != "viridis" {
		t.Errorf("unknown name resolved to %q, want viridis fallback", got)
	}

	m := ColormapByName("viridis")
	r, g, b := m.Map(0)
	if r != 68 || g != 1 || b != 84 {
		t.Errorf("Map(0) = %d,%d,%d", r, g, b)
	}
	r, g, b = m.Map(1)
	if r != 253 || g != 231 || b != 37 {
		t.Errorf("Map(1) = %d,%d,%d", r, g, b)
	}
	r2, _, _ := m.Map(2)
	if r2 != r {
		t.Error("values above 1 should clamp to the last anchor")
	}
}

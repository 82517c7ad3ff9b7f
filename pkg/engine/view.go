package engine

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ltyridium/LumaFlow/pkg/spectro"
	"github.com/ltyridium/LumaFlow/pkg/timeline"
)

// View is the interactive viewer: a pannable, zoomable viewport over one
// audio track's spectrogram with the lighting timeline drawn underneath.
// It implements ebiten.Game; Update and Draw never block, they only post
// work to the orchestrator and aggregation worker and draw whatever has
// landed in the cache so far.
type View struct {
	cfg    Config
	logger *log.Logger

	track *spectro.Track
	seq   timeline.Sequence
	orch  *Orchestrator
	agg   *AggregationWorker
	cmap  spectro.Colormap

	startMS, endMS float64
	aggDirty       bool

	blocksMu sync.Mutex
	blocks   []timeline.Block

	// GPU-side copies of cached tiles. Reset wholesale when it grows past
	// the cache capacity so stale uploads cannot pile up.
	uploads map[string]*ebiten.Image
	white   *ebiten.Image

	FrameCaptureDir string
	captureHeld     bool
	requestCapture  bool
}

// NewView assembles the viewer over an analyzed track and its timeline.
func NewView(cfg Config, track *spectro.Track, seq timeline.Sequence, orch *Orchestrator, agg *AggregationWorker, logger *log.Logger) *View {
	if logger == nil {
		logger = log.Default()
	}
	white := ebiten.NewImage(1, 1)
	white.Fill(color.White)

	v := &View{
		cfg:      cfg,
		logger:   logger,
		track:    track,
		seq:      seq,
		orch:     orch,
		agg:      agg,
		cmap:     spectro.ColormapByName(cfg.Display.Colormap),
		startMS:  0,
		endMS:    8000,
		aggDirty: true,
		uploads:  make(map[string]*ebiten.Image),
		white:    white,
	}
	if track != nil && track.DurationMS < v.endMS {
		v.endMS = track.DurationMS
	}
	agg.OnResult = func(res AggregationResult) {
		v.blocksMu.Lock()
		v.blocks = res.Blocks
		v.blocksMu.Unlock()
	}
	return v
}

func (v *View) Update() error {
	v.handleInput()

	if v.track != nil {
		v.orch.RequestViewport(v.track, v.cmap, v.startMS, v.endMS, float64(v.cfg.Display.Width))
	}
	if v.aggDirty && len(v.seq) > 0 {
		bins := int(float64(v.cfg.Display.Width) / v.cfg.Display.PixelsPerBin)
		if v.agg.TryAggregate(v.seq, v.startMS, v.endMS, bins) {
			v.aggDirty = false
		}
	}
	return nil
}

func (v *View) handleInput() {
	span := v.endMS - v.startMS
	pan := span * 0.02

	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowLeft):
		v.shiftViewport(-pan)
	case ebiten.IsKeyPressed(ebiten.KeyArrowRight):
		v.shiftViewport(pan)
	}

	_, wheelY := ebiten.Wheel()
	zoom := 1.0
	if wheelY > 0 || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		zoom = 0.97
	} else if wheelY < 0 || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		zoom = 1.03
	}
	if zoom != 1.0 {
		center := (v.startMS + v.endMS) / 2
		half := span * zoom / 2
		v.setViewport(center-half, center+half)
	}

	if ebiten.IsKeyPressed(ebiten.KeyS) {
		if !v.captureHeld {
			v.captureHeld = true
			v.requestCapture = true
		}
	} else {
		v.captureHeld = false
	}
}

func (v *View) shiftViewport(deltaMS float64) {
	v.setViewport(v.startMS+deltaMS, v.endMS+deltaMS)
}

func (v *View) setViewport(startMS, endMS float64) {
	const minSpanMS = 100
	if endMS-startMS < minSpanMS {
		return
	}
	if v.track != nil {
		if endMS > v.track.DurationMS {
			shift := endMS - v.track.DurationMS
			startMS -= shift
			endMS -= shift
		}
	}
	if startMS < 0 {
		endMS -= startMS
		startMS = 0
	}
	if startMS == v.startMS && endMS == v.endMS {
		return
	}
	v.startMS, v.endMS = startMS, endMS
	v.aggDirty = true
}

func (v *View) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{8, 10, 15, 255})
	v.drawSpectrogram(screen)
	v.drawBlocks(screen)

	if v.requestCapture {
		v.requestCapture = false
		v.captureFrame(screen, time.Now())
	}
}

// spectrogram takes the top share of the window, the channel lanes the rest.
const spectroHeightFrac = 0.55

func (v *View) drawSpectrogram(screen *ebiten.Image) {
	if v.track == nil {
		return
	}
	w := float64(v.cfg.Display.Width)
	h := float64(v.cfg.Display.Height) * spectroHeightFrac
	span := v.endMS - v.startMS
	level := LevelForZoom(span / w)
	first, last := TileRange(v.startMS, v.endMS, level)
	dur := TileDurationsMS[level]

	if len(v.uploads) > v.cfg.Render.CacheCapacity {
		v.uploads = make(map[string]*ebiten.Image)
	}

	for idx := first; idx <= last; idx++ {
		key := TileKey{
			Track:    v.track.Source,
			Mode:     v.track.ChannelMode,
			Colormap: v.cmap.Name(),
			Level:    level,
			Index:    idx,
		}
		t0 := float64(idx) * dur
		x0 := (t0 - v.startMS) / span * w
		x1 := (t0 + dur - v.startMS) / span * w

		tile := v.tileImage(key)
		if tile == nil {
			// Pending tiles get a flat placeholder so the viewport reads as
			// loading rather than broken.
			v.fillRect(screen, x0, 0, x1-x0, h, color.RGBA{20, 24, 31, 255})
			continue
		}
		op := &ebiten.DrawImageOptions{}
		b := tile.Bounds()
		op.GeoM.Scale((x1-x0)/float64(b.Dx()), h/float64(b.Dy()))
		op.GeoM.Translate(x0, 0)
		screen.DrawImage(tile, op)
	}
}

func (v *View) tileImage(key TileKey) *ebiten.Image {
	ks := key.String()
	if img, ok := v.uploads[ks]; ok {
		return img
	}
	src := v.orch.Tile(key)
	if src == nil {
		return nil
	}
	img := ebiten.NewImageFromImage(src)
	v.uploads[ks] = img
	return img
}

func (v *View) drawBlocks(screen *ebiten.Image) {
	v.blocksMu.Lock()
	blocks := v.blocks
	v.blocksMu.Unlock()
	if len(blocks) == 0 {
		return
	}

	w := float64(v.cfg.Display.Width)
	top := float64(v.cfg.Display.Height) * spectroHeightFrac
	laneH := (float64(v.cfg.Display.Height) - top) / timeline.NumChannels
	span := v.endMS - v.startMS

	for _, blk := range blocks {
		x0 := (blk.StartMS - v.startMS) / span * w
		x1 := (blk.StartMS + blk.WidthMS - v.startMS) / span * w
		if x1 <= 0 || x0 >= w {
			continue
		}
		for ch := 0; ch < timeline.NumChannels; ch++ {
			c := blk.Colors[ch]
			v.fillRect(screen, x0, top+float64(ch)*laneH, x1-x0, laneH-1, color.RGBA{c.R, c.G, c.B, 255})
		}
	}
}

func (v *View) fillRect(screen *ebiten.Image, x, y, w, h float64, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.Scale(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
	screen.DrawImage(v.white, op)
}

func (v *View) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.cfg.Display.Width, v.cfg.Display.Height
}

func (v *View) captureFrame(img *ebiten.Image, timestamp time.Time) {
	if v.FrameCaptureDir == "" {
		return
	}
	if err := os.MkdirAll(v.FrameCaptureDir, 0o755); err != nil {
		v.logger.Error("creating capture directory", "err", err)
		return
	}
	filename := fmt.Sprintf("luma-%s.png", timestamp.Format("20060102-150405"))
	path := filepath.Join(v.FrameCaptureDir, filename)

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	img.ReadPixels(rgba.Pix)

	go func() {
		f, err := os.Create(path)
		if err != nil {
			v.logger.Error("creating capture file", "err", err)
			return
		}
		defer f.Close()
		if err := png.Encode(f, rgba); err != nil {
			v.logger.Error("encoding capture", "err", err)
			return
		}
		v.logger.Info("captured frame", "path", path)
	}()
}

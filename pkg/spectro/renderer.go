package spectro

import (
	"image"
	"time"

	"github.com/charmbracelet/log"
)

// StaleAfter is how long a queued render request stays worth doing. The
// viewport has almost certainly moved on after this; the renderer drops
// the request instead of burning CPU on a tile nobody will look at.
const StaleAfter = 5 * time.Second

// LevelDecimation is the time-axis decimation factor per LOD level:
// level 0 keeps every column, level 1 every 16th, level 2 every 128th.
var LevelDecimation = [...]int{1, 16, 128}

// NumLevels is the number of resolution levels.
const NumLevels = len(LevelDecimation)

// dbFloor is the assumed noise floor of the dB-scaled magnitudes.
const dbFloor = -80.0

// TileRenderer turns a time window of a Track into an RGB pixel buffer.
// It is stateless apart from its logger and safe for concurrent use; the
// orchestrator runs several renders in parallel against one renderer.
type TileRenderer struct {
	logger *log.Logger

	// now is a hook for staleness tests.
	now func() time.Time
}

// NewTileRenderer creates a renderer logging through logger.
func NewTileRenderer(logger *log.Logger) *TileRenderer {
	if logger == nil {
		logger = log.Default()
	}
	return &TileRenderer{logger: logger, now: time.Now}
}

// Render rasterizes the track's [startMS, endMS] window at the given
// level. The image is one pixel wide per decimated spectrogram column and
// one pixel tall per mel bin. A nil return means the request was stale or
// the window held no columns; neither is an error.
func (r *TileRenderer) Render(track *Track, startMS, endMS float64, level int, cmap Colormap, issuedAt time.Time) *image.RGBA {
	if age := r.now().Sub(issuedAt); age > StaleAfter {
		r.logger.Debug("dropping stale tile request", "age", age, "start_ms", startMS)
		return nil
	}
	if track == nil || track.Bins() == 0 {
		return nil
	}

	factor := 1
	if level >= 0 && level < NumLevels {
		factor = LevelDecimation[level]
	}

	lo, hi := track.frameRange(startMS, endMS)
	if hi <= lo {
		return nil
	}
	cols := (hi - lo + factor - 1) / factor
	if cols == 0 {
		return nil
	}

	height := track.Bins()
	img := image.NewRGBA(image.Rect(0, 0, cols, height))
	for y := 0; y < height; y++ {
		row := track.Magnitudes[y]
		for x := 0; x < cols; x++ {
			db := float64(row[lo+x*factor])
			norm := (db - dbFloor) / -dbFloor
			if norm < 0 {
				norm = 0
			} else if norm > 1 {
				norm = 1
			}
			cr, cg, cb := cmap.Map(norm)
			off := y*img.Stride + x*4
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = cr, cg, cb, 255
		}
	}
	return img
}

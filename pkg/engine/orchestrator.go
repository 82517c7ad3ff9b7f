// Package engine coordinates the viewport with the render and aggregation
// workers: it decides which spectrogram tiles a viewport needs, schedules
// the missing ones, and owns all writes into the tile cache.
package engine

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ltyridium/LumaFlow/pkg/spectro"
	"github.com/ltyridium/LumaFlow/pkg/tilecache"
)

// TileDurationsMS is the wall-clock span one tile covers at each level.
// Coarser levels cover exponentially more time so a zoomed-out viewport
// still needs only a handful of tiles.
var TileDurationsMS = [spectro.NumLevels]float64{5000, 80000, 1280000}

// Zoom thresholds in milliseconds of audio per screen pixel. Below the
// first the viewport is tight enough for full-resolution tiles.
const (
	level1ThresholdMSPerPx = 50
	level2ThresholdMSPerPx = 800
)

// LevelForZoom picks the resolution level for a given zoom.
func LevelForZoom(msPerPixel float64) int {
	switch {
	case msPerPixel < level1ThresholdMSPerPx:
		return 0
	case msPerPixel < level2ThresholdMSPerPx:
		return 1
	default:
		return 2
	}
}

// TileRange returns the inclusive tile index range covering
// [startMS, endMS] at the given level.
func TileRange(startMS, endMS float64, level int) (first, last int) {
	dur := TileDurationsMS[level]
	first = int(startMS / dur)
	last = int(endMS / dur)
	if first < 0 {
		first = 0
	}
	if last < first {
		last = first
	}
	return first, last
}

// TileKey identifies one rendered tile. Every field that changes the
// pixels is part of the key, so a colormap or channel-mode switch misses
// the cache instead of showing stale colors.
type TileKey struct {
	Track    string
	Mode     string
	Colormap string
	Level    int
	Index    int
}

func (k TileKey) String() string {
	return fmt.Sprintf("%s|%s|%s|L%d|%d", k.Track, k.Mode, k.Colormap, k.Level, k.Index)
}

type renderRequest struct {
	key      TileKey
	track    *spectro.Track
	startMS  float64
	endMS    float64
	cmap     spectro.Colormap
	issuedAt time.Time
}

type renderResult struct {
	key TileKey
	img *image.RGBA
}

// Orchestrator schedules tile renders for viewports. Requests fan out to
// a pool of render goroutines; completions funnel back through a single
// collector goroutine, which is the only writer into the cache.
type Orchestrator struct {
	cache    *tilecache.Cache
	renderer *spectro.TileRenderer
	logger   *log.Logger

	requests chan renderRequest
	results  chan renderResult
	quit     chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	pending map[TileKey]struct{}

	onTile func(TileKey)
}

// NewOrchestrator wires an orchestrator to its cache and renderer.
// queueDepth bounds the request backlog; when it is full, new tiles are
// dropped to be re-requested on the next viewport pass.
func NewOrchestrator(cache *tilecache.Cache, renderer *spectro.TileRenderer, logger *log.Logger, queueDepth int) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if queueDepth <= 0 {
		queueDepth = 64
	}
	return &Orchestrator{
		cache:    cache,
		renderer: renderer,
		logger:   logger,
		requests: make(chan renderRequest, queueDepth),
		results:  make(chan renderResult, queueDepth),
		quit:     make(chan struct{}),
		pending:  make(map[TileKey]struct{}),
	}
}

// SetNotify registers a callback invoked from the collector goroutine
// whenever a tile lands in the cache. Set before Start.
func (o *Orchestrator) SetNotify(fn func(TileKey)) {
	o.onTile = fn
}

// Start launches the render workers and the collector.
func (o *Orchestrator) Start(workers int) {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.renderLoop()
	}
	o.wg.Add(1)
	go o.collectLoop()
}

// Stop shuts the workers down and waits for them to exit.
func (o *Orchestrator) Stop() {
	close(o.quit)
	o.wg.Wait()
}

// RequestViewport queues renders for every tile the viewport needs that
// is neither cached nor already in flight. It returns the number of tiles
// queued; zero means the viewport is fully served.
func (o *Orchestrator) RequestViewport(track *spectro.Track, cmap spectro.Colormap, startMS, endMS, widthPx float64) int {
	if track == nil || widthPx <= 0 || endMS <= startMS {
		return 0
	}
	level := LevelForZoom((endMS - startMS) / widthPx)
	first, last := TileRange(startMS, endMS, level)
	dur := TileDurationsMS[level]
	issued := time.Now()

	queued := 0
	for idx := first; idx <= last; idx++ {
		key := TileKey{
			Track:    track.Source,
			Mode:     track.ChannelMode,
			Colormap: cmap.Name(),
			Level:    level,
			Index:    idx,
		}
		if o.cache.Contains(key.String()) {
			continue
		}
		o.mu.Lock()
		if _, inFlight := o.pending[key]; inFlight {
			o.mu.Unlock()
			continue
		}
		o.pending[key] = struct{}{}
		o.mu.Unlock()

		req := renderRequest{
			key:      key,
			track:    track,
			startMS:  float64(idx) * dur,
			endMS:    float64(idx+1) * dur,
			cmap:     cmap,
			issuedAt: issued,
		}
		select {
		case o.requests <- req:
			queued++
		default:
			// Backlog full. Forget the tile so the next viewport pass can
			// try again.
			o.mu.Lock()
			delete(o.pending, key)
			o.mu.Unlock()
			o.logger.Debug("render queue full, dropping tile", "key", key.String())
		}
	}
	return queued
}

// Tile returns the cached image for key, or nil when it has not been
// rendered yet.
func (o *Orchestrator) Tile(key TileKey) *image.RGBA {
	if img, ok := o.cache.Get(key.String()); ok {
		return img
	}
	return nil
}

// Pending reports the number of tiles currently in flight.
func (o *Orchestrator) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Stats exposes the underlying cache counters.
func (o *Orchestrator) Stats() tilecache.Stats {
	return o.cache.Stats()
}

func (o *Orchestrator) renderLoop() {
	defer o.wg.Done()
	for {
		select {
		case <-o.quit:
			return
		case req := <-o.requests:
			img := o.renderer.Render(req.track, req.startMS, req.endMS, req.key.Level, req.cmap, req.issuedAt)
			select {
			case o.results <- renderResult{key: req.key, img: img}:
			case <-o.quit:
				return
			}
		}
	}
}

func (o *Orchestrator) collectLoop() {
	defer o.wg.Done()
	for {
		select {
		case <-o.quit:
			return
		case res := <-o.results:
			o.mu.Lock()
			delete(o.pending, res.key)
			o.mu.Unlock()
			if res.img == nil {
				continue
			}
			// A result for a viewport the user already left still goes into
			// the cache; panning back becomes a hit.
			o.cache.Put(res.key.String(), res.img)
			if o.onTile != nil {
				o.onTile(res.key)
			}
		}
	}
}

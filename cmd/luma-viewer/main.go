package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/ltyridium/LumaFlow/pkg/engine"
	"github.com/ltyridium/LumaFlow/pkg/spectro"
	"github.com/ltyridium/LumaFlow/pkg/tilecache"
	"github.com/ltyridium/LumaFlow/pkg/timeline"
)

var cli struct {
	Config     string `help:"Path to the TOML config file." default:"config.toml"`
	Audio      string `help:"MP3 file to analyze and display." type:"path"`
	Effect     string `help:"Demo timeline effect." enum:"breathing,rainbow" default:"rainbow"`
	CaptureDir string `help:"Write PNG frame captures here when pressing S."`
	Verbose    bool   `help:"Enable debug logging." short:"v"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("luma-viewer"),
		kong.Description("Interactive viewer for lighting timelines with an audio spectrogram."),
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "luma",
	})
	if cli.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := engine.LoadConfig(cli.Config)
	if err != nil {
		logger.Fatal("loading config", "err", err)
	}

	var track *spectro.Track
	if cli.Audio != "" {
		track = loadOrAnalyze(cfg, cli.Audio, logger)
	}

	durationMS := 60000.0
	if track != nil {
		durationMS = track.DurationMS
	}
	var seq timeline.Sequence
	switch cli.Effect {
	case "breathing":
		base := timeline.ChannelState{Red: 15, Green: 8, Blue: 2}
		seq = timeline.Breathing(durationMS, 200, base, 0.1, 1.0)
	default:
		seq = timeline.Rainbow(durationMS, 200, 1.0)
	}

	cache := tilecache.New(cfg.Render.CacheCapacity)
	renderer := spectro.NewTileRenderer(logger.WithPrefix("render"))
	orch := engine.NewOrchestrator(cache, renderer, logger.WithPrefix("tiles"), cfg.Render.QueueDepth)
	agg := engine.NewAggregationWorker(cfg.LUT(), logger.WithPrefix("agg"))

	stop := make(chan struct{})
	if cfg.Stream.Enabled {
		stream := engine.NewStreamServer(logger.WithPrefix("stream"))
		orch.SetNotify(stream.PublishTile)
		stream.StartStatsLoop(cache, 2*time.Second, stop)
		go func() {
			if err := stream.ListenAndServe(cfg.Stream.Bind); err != nil {
				logger.Error("event stream server", "err", err)
			}
		}()
	}

	orch.Start(cfg.Render.Workers)
	defer func() {
		orch.Stop()
		close(stop)
	}()

	view := engine.NewView(cfg, track, seq, orch, agg, logger.WithPrefix("view"))
	view.FrameCaptureDir = cli.CaptureDir

	ebiten.SetWindowSize(cfg.Display.Width, cfg.Display.Height)
	ebiten.SetWindowTitle("LumaFlow Viewer")
	if err := ebiten.RunGame(view); err != nil {
		logger.Fatal("viewer exited", "err", err)
	}
}

// loadOrAnalyze fetches the track's spectrogram from the on-disk store,
// analyzing the audio and persisting the result on a miss.
func loadOrAnalyze(cfg engine.Config, audioPath string, logger *log.Logger) *spectro.Track {
	store, err := spectro.OpenTrackStore(cfg.Audio.TrackStoreDir)
	if err != nil {
		logger.Fatal("opening track store", "dir", cfg.Audio.TrackStoreDir, "err", err)
	}
	defer store.Close()

	source := filepath.Base(audioPath)
	track, err := store.Get(source, cfg.Audio.ChannelMode)
	if err != nil {
		logger.Warn("reading track store", "err", err)
	}
	if track != nil {
		logger.Info("loaded cached analysis", "track", track.ID())
		return track
	}

	logger.Info("analyzing audio", "path", audioPath, "mode", cfg.Audio.ChannelMode)
	started := time.Now()
	track, err = spectro.LoadTrack(audioPath, cfg.Audio.ChannelMode, spectro.DefaultParams())
	if err != nil {
		logger.Fatal("analyzing audio", "err", err)
	}
	logger.Info("analysis complete",
		"track", track.ID(),
		"frames", track.Frames(),
		"took", time.Since(started))

	if err := store.Put(track); err != nil {
		logger.Warn("persisting analysis", "err", err)
	}
	return track
}

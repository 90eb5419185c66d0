package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/s0ultr4d3r/gpxheat/geo"
	"github.com/s0ultr4d3r/gpxheat/heatmap"
	"github.com/s0ultr4d3r/gpxheat/tiles"
	"github.com/s0ultr4d3r/gpxheat/track"
)

var errNoTracks = errors.New("no valid files loaded")

// staticBase is the static images endpoint; tests point it at a local server.
var staticBase = tiles.DefaultStaticBase

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the process exit code so deferred cleanup runs before exit:
// 2 for configuration errors, 1 for run failures.
func realMain(args []string) int {
	cfg, err := loadConfig(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpxheat: %v\n", err)
		return 2
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gpxheat: logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if cfg.PProf != "" {
		enablePPROF(cfg.PProf, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	out, err := run(ctx, cfg, log)
	if err != nil {
		log.Error("heatmap failed", zap.Error(err))
		return 1
	}
	log.Info("heatmap written", zap.String("out", out))
	if cfg.Open {
		openResult(out, log)
	}
	return 0
}

// run is the two-phase pipeline: parse and project first, then fetch a base
// map matching the projection and render onto it.
func run(ctx context.Context, cfg *Config, log *zap.Logger) (string, error) {
	bars := NewBars(cfg.Progress)
	defer bars.Done()

	disp := track.NewDispatcher(nil, cfg.Filter(), log)
	files := disp.Resolve(cfg.Inputs)
	bars.StartFiles(len(files))
	disp.OnFile = func(string) { bars.IncFiles() }
	ts := disp.Dispatch(files)
	if ts.Len() == 0 {
		return "", errNoTracks
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	box, err := boundingBox(cfg, ts)
	if err != nil {
		return "", err
	}
	proj := geo.Project(cfg.Size, box, cfg.Scale)
	log.Info("projection ready",
		zap.Stringer("center", proj.Center),
		zap.Float64("zoom", proj.Zoom),
		zap.Float64("meters_per_pixel", float64(proj.MetersPerPixel)),
		zap.Int("canvas", proj.Canvas()))

	base, err := baseMap(ctx, cfg, proj, log)
	if err != nil {
		return "", fmt.Errorf("base map: %w", err)
	}
	canvas := tiles.ToRGBA(base, proj.Canvas())

	r, err := heatmap.NewRenderer(proj, cfg.HeatmapOptions(), log)
	if err != nil {
		return "", err
	}
	bars.StartRender(ts.Len())
	r.OnTrack = bars.IncRender
	r.Render(canvas, ts)

	out := outputPath(cfg.Out, time.Now())
	if err := writePNG(out, canvas); err != nil {
		return "", fmt.Errorf("write png: %w", err)
	}
	return out, nil
}

func boundingBox(cfg *Config, ts track.TrackSet) (geo.BoundingBox, error) {
	if cfg.BBox != nil {
		return *cfg.BBox, nil
	}
	box, err := geo.BoundingBoxOf(ts)
	if err != nil {
		return geo.BoundingBox{}, err
	}
	if err := box.Validate(); err != nil {
		return geo.BoundingBox{}, fmt.Errorf("tracks span no area, pass --bbox: %w", err)
	}
	return box, nil
}

func baseMap(ctx context.Context, cfg *Config, proj geo.MapProjection, log *zap.Logger) (image.Image, error) {
	if cfg.Tiles == "" {
		c := tiles.NewStaticClient(cfg.Token, cfg.Style, time.Minute, log)
		c.BaseURL = staticBase
		return c.Fetch(ctx, proj.Center.Lat, proj.Center.Lng, proj.Zoom, proj.PixelSize)
	}

	preset, err := tiles.LookupPreset(cfg.Tiles)
	if err != nil {
		return nil, err
	}
	f, err := tiles.NewFetcher(cfg.CacheDir, cfg.RPS, 2, 30*time.Second, log)
	if err != nil {
		return nil, err
	}
	win := tiles.Window{
		MinLon: proj.PixelMin.Lng, MaxLat: proj.PixelMin.Lat,
		MaxLon: proj.PixelMax.Lng, MinLat: proj.PixelMax.Lat,
	}
	if preset.Attribution != "" {
		log.Info("tile attribution", zap.String("text", preset.Attribution))
	}
	return tiles.BuildMosaic(ctx, f, preset, win, tiles.MosaicZoom(proj.Zoom, proj.Multiplier, preset), proj.Canvas())
}

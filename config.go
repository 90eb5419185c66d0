package main

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/s0ultr4d3r/gpxheat/geo"
	"github.com/s0ultr4d3r/gpxheat/heatmap"
	"github.com/s0ultr4d3r/gpxheat/tiles"
	"github.com/s0ultr4d3r/gpxheat/track"
)

const envPrefix = "HEATMAP"

type Config struct {
	Inputs []string `validate:"min=1"`

	Token    string `validate:"required_without=Tiles"`
	Style    string
	Tiles    string
	CacheDir string
	RPS      float64 `validate:"gt=0"`

	Activities []track.ActivityKind
	Start      *time.Time
	End        *time.Time
	BBox       *geo.BoundingBox

	Size      int     `validate:"min=64,max=4096"`
	Color     color.RGBA
	Intensity float64       `validate:"gt=0"`
	MinAlpha  float64       `validate:"gte=0,lte=1"`
	Scale     float64       `validate:"gt=0"`
	Gap       time.Duration `validate:"gte=0"`

	Out      string
	Open     bool
	Timeout  time.Duration `validate:"gt=0"`
	LogLevel string        `validate:"oneof=debug info warn error"`
	PProf    string
	Progress bool
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("gpxheat", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: gpxheat [flags] FILE|DIR...\n\n%s", fs.FlagUsages())
	}

	fs.StringP("token", "t", "", "Mapbox access token for the static base map")
	fs.String("style", tiles.DefaultStaticStyle, "Mapbox style id")
	fs.String("tiles", "", "XYZ tile preset name or {z}/{x}/{y} url template, used instead of Mapbox")
	fs.String("cache-dir", ".tile-cache", "tile cache directory")
	fs.Float64("rps", 4, "tile requests per second")

	fs.StringSlice("activity", nil, "only map these activity types (bike, run, walk)")
	fs.String("start", "", "ignore activities before this time (RFC3339 or YYYY-MM-DD)")
	fs.String("end", "", "ignore activities after this time (RFC3339 or YYYY-MM-DD)")
	fs.String("bbox", "", "fixed window minLat,minLng,maxLat,maxLng instead of the data extent")

	fs.Int("size", 1280, "logical edge of the square map in pixels")
	fs.StringP("color", "c", "0,0,255", "overlay color as r,g,b or #RRGGBB")
	fs.Float64P("intensity", "i", 1, "opacity reached at the 75th percentile of track density")
	fs.Float64P("min-alpha", "m", 0.3, "minimum opacity of any pixel with a track on it")
	fs.Float64("scale", 2, "pixel density of the base map (2 for @2x images)")
	fs.Duration("gap", heatmap.DefaultMaxGap, "longest pause between samples still drawn as a line")

	fs.StringP("out", "o", "", "output png (default heatmap_<unix>.png)")
	fs.Bool("open", false, "open the result when done")
	fs.Duration("timeout", 10*time.Minute, "hard timeout for the whole run")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("pprof", "", "serve pprof on this address (e.g. 127.0.0.1:6060)")
	fs.Bool("progress", true, "show progress bars")
	return fs
}

// loadConfig merges flags, HEATMAP_* environment variables and an optional
// .env file, in that order of precedence.
func loadConfig(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	cfg := &Config{
		Inputs:    fs.Args(),
		Token:     v.GetString("token"),
		Style:     v.GetString("style"),
		Tiles:     v.GetString("tiles"),
		CacheDir:  v.GetString("cache-dir"),
		RPS:       v.GetFloat64("rps"),
		Size:      v.GetInt("size"),
		Intensity: v.GetFloat64("intensity"),
		MinAlpha:  v.GetFloat64("min-alpha"),
		Scale:     v.GetFloat64("scale"),
		Gap:       v.GetDuration("gap"),
		Out:       v.GetString("out"),
		Open:      v.GetBool("open"),
		Timeout:   v.GetDuration("timeout"),
		LogLevel:  strings.ToLower(v.GetString("log-level")),
		PProf:     v.GetString("pprof"),
		Progress:  v.GetBool("progress"),
	}

	var err error
	if cfg.Activities, err = parseActivities(v.GetStringSlice("activity")); err != nil {
		return nil, err
	}
	if cfg.Start, err = parseTime(v.GetString("start"), false); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if cfg.End, err = parseTime(v.GetString("end"), true); err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	if cfg.BBox, err = parseBBox(v.GetString("bbox")); err != nil {
		return nil, fmt.Errorf("bbox: %w", err)
	}
	if cfg.Color, err = ParseColor(v.GetString("color")); err != nil {
		return nil, fmt.Errorf("color: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q (%s)", strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
		}
		return err
	}
	if c.Start != nil && c.End != nil && c.Start.After(*c.End) {
		return errors.New("start is after end")
	}
	return nil
}

func (c *Config) Filter() track.Filter {
	return track.NewFilter(c.Activities, c.Start, c.End)
}

func (c *Config) HeatmapOptions() heatmap.Options {
	return heatmap.Options{
		Color:     c.Color,
		Intensity: c.Intensity,
		MinAlpha:  c.MinAlpha,
		MaxGap:    c.Gap,
	}
}

// parseActivities accepts repeated flags as well as a comma separated
// environment value.
func parseActivities(raw []string) ([]track.ActivityKind, error) {
	var out []track.ActivityKind
	for _, item := range raw {
		for _, tok := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			k, err := track.ParseActivityKind(tok)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
	}
	return out, nil
}

// parseTime reads RFC3339 or a bare date. A bare end date covers that whole day.
func parseTime(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%q is neither RFC3339 nor YYYY-MM-DD", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseBBox(s string) (*geo.BoundingBox, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("want minLat,minLng,maxLat,maxLng, got %q", s)
	}
	var f [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		f[i] = v
	}
	b, err := geo.NewBoundingBox(f[0], f[1], f[2], f[3])
	if err != nil {
		return nil, err
	}
	return &b, nil
}

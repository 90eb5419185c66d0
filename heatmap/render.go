// Package heatmap rasterizes tracks into a visitation count per pixel and
// blends the result onto a base map.
package heatmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/s0ultr4d3r/gpxheat/geo"
	"github.com/s0ultr4d3r/gpxheat/track"
)

// DefaultMaxGap is the longest pause between two samples that is still drawn as motion.
const DefaultMaxGap = 5 * time.Second

// Options control how counts become overlay opacity.
type Options struct {
	Color color.RGBA
	// Intensity is the opacity reached at the 75th-percentile density.
	Intensity float64
	// MinAlpha is the opacity floor for any touched pixel.
	MinAlpha float64
	// MaxGap bounds the time between samples joined by a line.
	MaxGap time.Duration
}

func (o Options) Validate() error {
	switch {
	case !(o.Intensity > 0):
		return fmt.Errorf("intensity must be > 0, got %v", o.Intensity)
	case !(o.MinAlpha >= 0 && o.MinAlpha <= 1):
		return fmt.Errorf("min alpha must be in [0,1], got %v", o.MinAlpha)
	case o.MaxGap < 0:
		return errors.New("max gap must not be negative")
	}
	return nil
}

// Stats summarises one render.
type Stats struct {
	Tracks    int
	Points    int
	Discarded int
	Touched   int
	Step      float64
}

// Renderer draws a TrackSet through a projection. It holds no per-render state.
type Renderer struct {
	Projection geo.MapProjection
	Options    Options
	Logger     *zap.Logger
	// OnTrack, if set, is called after each track has been accumulated.
	OnTrack func()
}

func NewRenderer(p geo.MapProjection, o Options, log *zap.Logger) (*Renderer, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{Projection: p, Options: o, Logger: log}, nil
}

// Render composites ts onto canvas in place.
func (r *Renderer) Render(canvas *image.RGBA, ts track.TrackSet) Stats {
	field, st := r.Accumulate(canvas.Bounds().Size(), ts)
	st.Step = r.Step(field)
	r.Composite(canvas, field, st.Step)
	st.Touched = field.Touched()

	r.logger().Info("heatmap rendered",
		zap.Int("tracks", st.Tracks),
		zap.Int("points", st.Points),
		zap.Int("discarded", st.Discarded),
		zap.Int("pixels", st.Touched),
		zap.Float64("step", st.Step))
	return st
}

// Accumulate builds the intensity field for a canvas of the given size.
func (r *Renderer) Accumulate(size image.Point, ts track.TrackSet) (*IntensityField, Stats) {
	field := NewIntensityField(size.X, size.Y)
	st := Stats{Tracks: ts.Len()}

	for i, pts := range ts {
		var (
			prev     image.Point
			prevTime *time.Time
			started  bool
			outside  int
		)
		for _, s := range pts {
			p, ok := r.toPixel(s.Position, size)
			if !ok {
				outside++
				continue
			}
			if started && p != prev && r.connected(prevTime, s.Time) {
				stepLine(field, prev, p)
			}
			field.Inc(p)
			prev, prevTime, started = p, s.Time, true
		}

		st.Points += len(pts) - outside
		st.Discarded += outside
		if outside > 0 {
			r.logger().Warn("samples outside canvas discarded", zap.Int("track", i), zap.Int("count", outside))
		}
		if r.OnTrack != nil {
			r.OnTrack()
		}
	}
	return field, st
}

// Step converts a count into opacity. It normalises by the 75th-percentile
// density; a field with no pixel above one count uses Intensity as is.
func (r *Renderer) Step(field *IntensityField) float64 {
	p := field.Percentile75()
	if p == 0 {
		return r.Options.Intensity
	}
	return r.Options.Intensity / float64(p)
}

// Composite blends the overlay colour into every touched pixel. Untouched pixels
// and the alpha channel are left alone.
func (r *Renderer) Composite(canvas *image.RGBA, field *IntensityField, step float64) {
	b := canvas.Bounds()
	c := [3]uint8{r.Options.Color.R, r.Options.Color.G, r.Options.Color.B}
	for y := 0; y < field.H; y++ {
		for x := 0; x < field.W; x++ {
			n := field.At(x, y)
			if n == 0 {
				continue
			}
			alpha := clamp(float64(n)*step, r.Options.MinAlpha, 1)
			i := canvas.PixOffset(b.Min.X+x, b.Min.Y+y)
			for ch := 0; ch < 3; ch++ {
				canvas.Pix[i+ch] = blend(c[ch], canvas.Pix[i+ch], alpha)
			}
		}
	}
}

// toPixel is the only float-to-index conversion. Samples within one pixel of
// an edge are rejected so that lines between accepted samples stay in bounds.
func (r *Renderer) toPixel(c track.Coordinate, size image.Point) (image.Point, bool) {
	fx, fy := r.Projection.ToPixel(c)
	x, y := math.Round(fx), math.Round(fy)
	if !(x >= 1 && x <= float64(size.X-2) && y >= 1 && y <= float64(size.Y-2)) {
		return image.Point{}, false
	}
	return image.Pt(int(x), int(y)), true
}

func (r *Renderer) connected(prev, cur *time.Time) bool {
	if prev == nil || cur == nil {
		return false
	}
	d := cur.Sub(*prev)
	if d < 0 {
		d = -d
	}
	return d <= r.Options.MaxGap
}

func (r *Renderer) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// stepLine increments the pixels strictly between from and to, one per step
// along the major axis.
func stepLine(f *IntensityField, from, to image.Point) {
	dx, dy := to.X-from.X, to.Y-from.Y
	if abs(dx) >= abs(dy) {
		slope := float64(dy) / float64(dx)
		sx := sign(dx)
		for i := 1; i < abs(dx); i++ {
			off := i * sx
			f.Inc(image.Pt(from.X+off, from.Y+int(math.Round(slope*float64(off)))))
		}
		return
	}
	slope := float64(dx) / float64(dy)
	sy := sign(dy)
	for i := 1; i < abs(dy); i++ {
		off := i * sy
		f.Inc(image.Pt(from.X+int(math.Round(slope*float64(off))), from.Y+off))
	}
}

func blend(fg, bg uint8, alpha float64) uint8 {
	return uint8(clamp(math.Round(float64(fg)*alpha+float64(bg)*(1-alpha)), 0, 255))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

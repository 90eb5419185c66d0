package heatmap

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/s0ultr4d3r/gpxheat/geo"
	"github.com/s0ultr4d3r/gpxheat/track"
)

// unit maps one degree to one pixel with (0,0) at the north-west corner.
var unit = geo.MapProjection{
	PixelMin:   track.Coordinate{},
	Scale:      track.Coordinate{Lat: -1, Lng: 1},
	PixelSize:  20,
	Multiplier: 1,
}

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func at(x, y int, d time.Duration) track.Sample {
	ts := t0.Add(d)
	return track.Sample{Position: track.Coordinate{Lat: -float64(y), Lng: float64(x)}, Time: &ts}
}

func untimed(x, y int) track.Sample {
	return track.Sample{Position: track.Coordinate{Lat: -float64(y), Lng: float64(x)}}
}

func newTestRenderer(t *testing.T, log *zap.Logger) *Renderer {
	t.Helper()
	r, err := NewRenderer(unit, Options{
		Color:     color.RGBA{R: 255, A: 255},
		Intensity: 0.5,
		MinAlpha:  0.1,
		MaxGap:    DefaultMaxGap,
	}, log)
	require.NoError(t, err)
	return r
}

var size = image.Pt(20, 20)

func TestAccumulate(t *testing.T) {
	r := newTestRenderer(t, nil)

	t.Run("isolated point", func(t *testing.T) {
		f, st := r.Accumulate(size, track.TrackSet{{at(5, 5, 0)}})
		assert.Equal(t, uint32(1), f.At(5, 5))
		assert.Equal(t, 1, f.Touched())
		assert.Equal(t, Stats{Tracks: 1, Points: 1}, st)
	})

	t.Run("close in time draws a line", func(t *testing.T) {
		f, _ := r.Accumulate(size, track.TrackSet{{at(10, 5, 0), at(15, 5, time.Second)}})
		for x := 10; x <= 15; x++ {
			assert.Equal(t, uint32(1), f.At(x, 5), "x=%d", x)
		}
		assert.Equal(t, 6, f.Touched())
	})

	t.Run("steep line steps along y", func(t *testing.T) {
		f, _ := r.Accumulate(size, track.TrackSet{{at(3, 3, 0), at(5, 10, 2*time.Second)}})
		assert.Equal(t, 8, f.Touched())
		for y := 3; y <= 10; y++ {
			row := 0
			for x := 0; x < size.X; x++ {
				row += int(f.At(x, y))
			}
			assert.Equal(t, 1, row, "y=%d", y)
		}
	})

	t.Run("reversed direction matches", func(t *testing.T) {
		fwd, _ := r.Accumulate(size, track.TrackSet{{at(2, 2, 0), at(14, 7, time.Second)}})
		rev, _ := r.Accumulate(size, track.TrackSet{{at(14, 7, 0), at(2, 2, time.Second)}})
		assert.Equal(t, fwd.Touched(), rev.Touched())
		assert.Equal(t, 13, fwd.Touched())
	})

	t.Run("long pause leaves a gap", func(t *testing.T) {
		f, _ := r.Accumulate(size, track.TrackSet{{at(10, 5, 0), at(15, 5, time.Hour)}})
		assert.Equal(t, 2, f.Touched())
		assert.Zero(t, f.At(12, 5))
	})

	t.Run("missing timestamps leave a gap", func(t *testing.T) {
		f, _ := r.Accumulate(size, track.TrackSet{{untimed(10, 5), untimed(15, 5)}})
		assert.Equal(t, 2, f.Touched())
	})

	t.Run("stationary sample counts once more", func(t *testing.T) {
		f, _ := r.Accumulate(size, track.TrackSet{{at(7, 7, 0), at(7, 7, time.Second)}})
		assert.Equal(t, uint32(2), f.At(7, 7))
		assert.Equal(t, 1, f.Touched())
	})

	t.Run("tracks are not joined", func(t *testing.T) {
		f, st := r.Accumulate(size, track.TrackSet{{at(2, 2, 0)}, {at(12, 2, time.Second)}})
		assert.Equal(t, 2, f.Touched())
		assert.Equal(t, 2, st.Tracks)
	})
}

func TestAccumulate_EdgeSamples(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := newTestRenderer(t, zap.New(core))

	calls := 0
	r.OnTrack = func() { calls++ }

	f, st := r.Accumulate(size, track.TrackSet{
		{at(0, 5, 0), at(19, 5, time.Second), at(18, 5, 2*time.Second), at(5, 25, 3*time.Second)},
		{at(1, 1, 0), at(18, 18, time.Second)},
	})

	assert.Equal(t, 3, st.Points)
	assert.Equal(t, 3, st.Discarded)
	assert.Equal(t, uint32(1), f.At(18, 5))
	// the diagonal of the second track is fully inside
	assert.Equal(t, 19, f.Touched())
	assert.Equal(t, 2, calls)

	warns := logs.FilterMessage("samples outside canvas discarded").All()
	require.Len(t, warns, 1)
	assert.Equal(t, int64(3), warns[0].ContextMap()["count"])
}

func TestStep(t *testing.T) {
	r := newTestRenderer(t, nil)

	t.Run("75th percentile of dense pixels", func(t *testing.T) {
		f := NewIntensityField(4, 1)
		copy(f.Counts, []uint32{2, 5, 3, 4})
		assert.Equal(t, uint32(5), f.Percentile75())
		assert.InDelta(t, 0.1, r.Step(f), 1e-12)
	})

	t.Run("single counts are ignored", func(t *testing.T) {
		f := NewIntensityField(6, 1)
		copy(f.Counts, []uint32{1, 1, 1, 1, 4, 0})
		assert.InDelta(t, 0.125, r.Step(f), 1e-12)
	})

	t.Run("no dense pixel falls back to intensity", func(t *testing.T) {
		f := NewIntensityField(3, 1)
		copy(f.Counts, []uint32{1, 0, 1})
		assert.Equal(t, 0.5, r.Step(f))
	})
}

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestComposite(t *testing.T) {
	gray := color.RGBA{R: 100, G: 100, B: 100, A: 255}

	tests := []struct {
		name     string
		count    uint32
		step     float64
		minAlpha float64
		want     color.RGBA
	}{
		{name: "half", count: 1, step: 0.5, minAlpha: 0.1, want: color.RGBA{R: 178, G: 50, B: 50, A: 255}},
		{name: "saturated", count: 10, step: 0.5, minAlpha: 0.1, want: color.RGBA{R: 255, A: 255}},
		{name: "floor", count: 1, step: 0.01, minAlpha: 0.2, want: color.RGBA{R: 131, G: 80, B: 80, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t, nil)
			r.Options.MinAlpha = tt.minAlpha

			canvas := fill(4, 4, gray)
			f := NewIntensityField(4, 4)
			f.Counts[1*4+1] = tt.count

			r.Composite(canvas, f, tt.step)
			assert.Equal(t, tt.want, canvas.RGBAAt(1, 1))
			assert.Equal(t, gray, canvas.RGBAAt(2, 2))
			assert.Equal(t, gray, canvas.RGBAAt(0, 0))
		})
	}
}

func TestRender(t *testing.T) {
	ts := track.TrackSet{
		{at(2, 2, 0), at(10, 2, time.Second), at(10, 9, 2*time.Second)},
		{at(2, 2, 0), at(10, 2, time.Second)},
		{at(15, 15, 0)},
	}
	base := color.RGBA{R: 30, G: 60, B: 90, A: 255}

	r := newTestRenderer(t, nil)
	a, b := fill(20, 20, base), fill(20, 20, base)
	stA := r.Render(a, ts)
	stB := r.Render(b, ts)

	assert.Equal(t, a.Pix, b.Pix)
	assert.Equal(t, stA, stB)
	assert.Equal(t, 3, stA.Tracks)
	assert.Equal(t, 6, stA.Points)
	// the shared segment is the only dense region: 9 pixels at count 2
	assert.InDelta(t, 0.25, stA.Step, 1e-12)
	assert.Equal(t, 17, stA.Touched)
	assert.Equal(t, base, a.RGBAAt(0, 0))
	assert.NotEqual(t, base, a.RGBAAt(15, 15))
}

func TestOptionsValidate(t *testing.T) {
	ok := Options{Intensity: 1, MinAlpha: 0.5, MaxGap: time.Second}
	assert.NoError(t, ok.Validate())

	bad := []Options{
		{Intensity: 0, MinAlpha: 0.5},
		{Intensity: 1, MinAlpha: 1.5},
		{Intensity: 1, MinAlpha: -0.1},
		{Intensity: 1, MaxGap: -time.Second},
	}
	for _, o := range bad {
		assert.Error(t, o.Validate(), "%+v", o)
	}

	_, err := NewRenderer(unit, bad[0], nil)
	assert.Error(t, err)
}

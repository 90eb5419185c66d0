package geo

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0ultr4d3r/gpxheat/track"
)

func randomCoords(n int) []track.Coordinate {
	r := rand.New(rand.NewSource(42))
	out := make([]track.Coordinate, n)
	for i := range out {
		out[i] = track.Coordinate{Lat: r.Float64()*170 - 85, Lng: r.Float64()*360 - 180}
	}
	return out
}

func TestHaversine(t *testing.T) {
	t.Run("known distance", func(t *testing.T) {
		d := Haversine(track.Coordinate{Lat: 31.2626, Lng: -100.3555}, track.Coordinate{Lat: 38.1345, Lng: -89.6150})
		assert.InDelta(t, 1_242_682.405_520_137_2, float64(d), 1e-6)
	})

	t.Run("matches s2", func(t *testing.T) {
		pts := randomCoords(50)
		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			want := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng)).Radians() * float64(EarthRadius)
			assert.InDelta(t, want, float64(Haversine(a, b)), 1e-3)
		}
	})

	t.Run("identity and symmetry", func(t *testing.T) {
		pts := randomCoords(30)
		for i, a := range pts {
			assert.Zero(t, Haversine(a, a))
			b := pts[(i+1)%len(pts)]
			assert.Equal(t, Haversine(a, b), Haversine(b, a))
		}
	})

	t.Run("triangle inequality", func(t *testing.T) {
		pts := randomCoords(24)
		for i := 0; i+2 < len(pts); i += 3 {
			a, b, c := pts[i], pts[i+1], pts[i+2]
			assert.LessOrEqual(t, float64(Haversine(a, c)), float64(Haversine(a, b)+Haversine(b, c))+1e-6)
		}
	})

	t.Run("small distances stay precise", func(t *testing.T) {
		a := track.Coordinate{Lat: 45, Lng: 7}
		b := track.Coordinate{Lat: 45 + 1e-7, Lng: 7}
		assert.InDelta(t, 0.0111195, float64(Haversine(a, b)), 1e-6)
	})
}

func TestDestination(t *testing.T) {
	t.Run("due north", func(t *testing.T) {
		dest := Destination(track.Coordinate{Lat: 30.343_888, Lng: -103.970_1}, 0, 300)
		assert.InDelta(t, 30.346_585_964_817_75, dest.Lat, 1e-9)
		assert.InDelta(t, -103.9701, dest.Lng, 1e-12)
	})

	t.Run("zero distance is identity", func(t *testing.T) {
		for i, p := range randomCoords(20) {
			got := Destination(p, Degrees(i*37), 0)
			assert.InDelta(t, p.Lat, got.Lat, 1e-12)
			assert.InDelta(t, p.Lng, got.Lng, 1e-12)
		}
	})

	t.Run("round trip distance", func(t *testing.T) {
		for i, p := range randomCoords(20) {
			got := Destination(p, Degrees(i*17), 5_000)
			assert.InDelta(t, 5_000, float64(Haversine(p, got)), 1e-3)
		}
	})
}

func TestBoundingBoxOf(t *testing.T) {
	t.Run("single point", func(t *testing.T) {
		p := track.Coordinate{Lat: 12.5, Lng: -3.25}
		b, err := BoundingBoxOf(track.TrackSet{{{Position: p}}})
		require.NoError(t, err)
		assert.Equal(t, BoundingBox{Min: p, Max: p}, b)
		assert.ErrorIs(t, b.Validate(), ErrDegenerateBox)
	})

	t.Run("axes reduced independently", func(t *testing.T) {
		ts := track.TrackSet{
			{{Position: track.Coordinate{Lat: 1, Lng: 10}}, {Position: track.Coordinate{Lat: 3, Lng: 5}}},
			{{Position: track.Coordinate{Lat: -2, Lng: 8}}},
		}
		b, err := BoundingBoxOf(ts)
		require.NoError(t, err)
		assert.Equal(t, track.Coordinate{Lat: -2, Lng: 5}, b.Min)
		assert.Equal(t, track.Coordinate{Lat: 3, Lng: 10}, b.Max)
		assert.NoError(t, b.Validate())
		assert.Equal(t, track.Coordinate{Lat: 0.5, Lng: 7.5}, b.Center())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := BoundingBoxOf(nil)
		assert.ErrorIs(t, err, ErrEmptyTrackSet)
	})
}

func TestNewBoundingBox(t *testing.T) {
	_, err := NewBoundingBox(30, -98, 30.5, -97)
	assert.NoError(t, err)

	_, err = NewBoundingBox(30, -98, 30, -97)
	assert.ErrorIs(t, err, ErrDegenerateBox)

	_, err = NewBoundingBox(31, -98, 30, -97)
	assert.ErrorIs(t, err, ErrDegenerateBox)
}

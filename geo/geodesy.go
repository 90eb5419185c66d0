// Package geo holds the spherical geometry behind the heatmap: great-circle
// distances, forward geodesics, bounding boxes and the map projection.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s1"

	"github.com/s0ultr4d3r/gpxheat/track"
)

// Meters is a ground distance; Degrees is a bearing or an angular coordinate.
type (
	Meters  float64
	Degrees float64
)

// EarthRadius is the mean Earth radius.
const EarthRadius Meters = 6_371_000

var (
	ErrEmptyTrackSet = errors.New("no samples to bound")
	ErrDegenerateBox = errors.New("bounding box has no extent")
)

func radians(d float64) float64 { return (s1.Angle(d) * s1.Degree).Radians() }
func degrees(r float64) float64 { return s1.Angle(r).Degrees() }

// Haversine returns the great-circle distance between a and b.
func Haversine(a, b track.Coordinate) Meters {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	sinLat := math.Sin(radians(b.Lat-a.Lat) / 2)
	sinLng := math.Sin(radians(b.Lng-a.Lng) / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadius * Meters(c)
}

// Destination walks distance d from origin along the great circle starting at bearing
// (clockwise from north).
func Destination(origin track.Coordinate, bearing Degrees, d Meters) track.Coordinate {
	delta := float64(d / EarthRadius)
	lat1 := radians(origin.Lat)
	theta := radians(float64(bearing))

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	dLng := math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(lat1), math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return track.Coordinate{Lat: degrees(lat2), Lng: origin.Lng + degrees(dLng)}
}

// BoundingBox is reduced per axis, so Min and Max need not be input points.
type BoundingBox struct {
	Min track.Coordinate
	Max track.Coordinate
}

// NewBoundingBox builds a box from explicit edges and checks it has extent.
func NewBoundingBox(minLat, minLng, maxLat, maxLng float64) (BoundingBox, error) {
	b := BoundingBox{
		Min: track.Coordinate{Lat: minLat, Lng: minLng},
		Max: track.Coordinate{Lat: maxLat, Lng: maxLng},
	}
	return b, b.Validate()
}

// BoundingBoxOf reduces every sample of ts.
func BoundingBoxOf(ts track.TrackSet) (BoundingBox, error) {
	if ts.Points() == 0 {
		return BoundingBox{}, ErrEmptyTrackSet
	}
	b := BoundingBox{
		Min: track.Coordinate{Lat: math.Inf(1), Lng: math.Inf(1)},
		Max: track.Coordinate{Lat: math.Inf(-1), Lng: math.Inf(-1)},
	}
	for _, pts := range ts {
		for _, p := range pts {
			b.Min.Lat = math.Min(b.Min.Lat, p.Position.Lat)
			b.Min.Lng = math.Min(b.Min.Lng, p.Position.Lng)
			b.Max.Lat = math.Max(b.Max.Lat, p.Position.Lat)
			b.Max.Lng = math.Max(b.Max.Lng, p.Position.Lng)
		}
	}
	return b, nil
}

// Validate rejects boxes that Project cannot handle.
func (b BoundingBox) Validate() error {
	lat, lng := b.Max.Lat-b.Min.Lat, b.Max.Lng-b.Min.Lng
	if !(lat > 0) || !(lng > 0) {
		return fmt.Errorf("%w: %.6f x %.6f degrees", ErrDegenerateBox, lat, lng)
	}
	return nil
}

// Center is the midpoint of both ranges.
func (b BoundingBox) Center() track.Coordinate {
	return track.Coordinate{
		Lat: b.Min.Lat + (b.Max.Lat-b.Min.Lat)/2,
		Lng: b.Min.Lng + (b.Max.Lng-b.Min.Lng)/2,
	}
}

package geo

import (
	"math"

	"github.com/s0ultr4d3r/gpxheat/track"
)

const (
	// Padding widens the ground resolution so edge points stay off the border.
	Padding = 1.1
	// ZoomNumerator and ZoomOffset turn a ground resolution at a latitude into
	// a web-map zoom level for 512px tiles.
	ZoomNumerator = 10_018_755.0
	ZoomOffset    = 7.0
)

// MapProjection maps coordinates linearly onto a square canvas.
// PixelMin is the coordinate of pixel (0,0), the north-west corner, so
// Scale.Lat is negative and y grows southwards.
type MapProjection struct {
	Center         track.Coordinate
	PixelMin       track.Coordinate
	PixelMax       track.Coordinate
	Zoom           float64
	Scale          track.Coordinate // pixels per degree
	MetersPerPixel Meters
	PixelSize      int
	Multiplier     float64
}

// Project fits box into a pixelSize square. scaleMultiplier reconciles the
// requested size with the pixel density of the base image (2 for an @2x image).
// Callers must Validate the box first.
func Project(pixelSize int, box BoundingBox, scaleMultiplier float64) MapProjection {
	px := float64(pixelSize)
	center := box.Center()

	width := Haversine(track.Coordinate{Lat: center.Lat, Lng: box.Min.Lng}, track.Coordinate{Lat: center.Lat, Lng: box.Max.Lng})
	height := Haversine(track.Coordinate{Lat: box.Min.Lat, Lng: center.Lng}, track.Coordinate{Lat: box.Max.Lat, Lng: center.Lng})
	mapMeters := math.Max(float64(width), float64(height))

	mpp := mapMeters / px * Padding
	zoom := math.Log2(ZoomNumerator*math.Cos(radians(center.Lat))/mpp) - ZoomOffset

	half := mpp * px / 2
	diagonal := Meters(math.Hypot(half, half))
	nw := Destination(center, 315, diagonal)
	se := Destination(center, 135, diagonal)

	return MapProjection{
		Center:   center,
		PixelMin: nw,
		PixelMax: se,
		Zoom:     zoom,
		Scale: track.Coordinate{
			Lat: px / (se.Lat - nw.Lat) * scaleMultiplier,
			Lng: px / (se.Lng - nw.Lng) * scaleMultiplier,
		},
		MetersPerPixel: Meters(mpp),
		PixelSize:      pixelSize,
		Multiplier:     scaleMultiplier,
	}
}

// Canvas is the edge length, in physical pixels, of the image the projection targets.
func (p MapProjection) Canvas() int {
	return int(math.Round(float64(p.PixelSize) * p.Multiplier))
}

// ToPixel applies the linear transform without rounding or bounds checks.
func (p MapProjection) ToPixel(c track.Coordinate) (x, y float64) {
	return (c.Lng - p.PixelMin.Lng) * p.Scale.Lng, (c.Lat - p.PixelMin.Lat) * p.Scale.Lat
}

package tiles

import "math"

const TileSize = 256

// mercX/Y: lon/lat (deg) -> normalized mercator [0..1]
func mercX(lon float64) float64 { return (lon + 180.0) / 360.0 }
func mercY(lat float64) float64 {
	lat = math.Min(85.05112878, math.Max(-85.05112878, lat))
	rad := lat * math.Pi / 180.0
	s := math.Sin(rad)
	return 0.5 - math.Log((1+s)/(1-s))/(4*math.Pi)
}

// At zoom z, world size in pixels:
func worldSize(z int) float64 { return float64(TileSize) * math.Exp2(float64(z)) }

// LonLatToPixel returns pixel coords in "world pixels" at zoom z.
func LonLatToPixel(lon, lat float64, z int) (px, py float64) {
	ws := worldSize(z)
	return mercX(lon) * ws, mercY(lat) * ws
}

// Window is a lon/lat rectangle, north-west to south-east.
type Window struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Pixels returns top-left & bottom-right world-pixel coords at zoom z.
func (w Window) Pixels(z int) (tlx, tly, brx, bry float64) {
	// top-left uses maxLat; bottom-right uses minLat
	tlx, tly = LonLatToPixel(w.MinLon, w.MaxLat, z)
	brx, bry = LonLatToPixel(w.MaxLon, w.MinLat, z)
	return
}

// CoveringTiles returns the inclusive tile range covering the window at zoom z,
// clipped to the world.
func (w Window) CoveringTiles(z int) (minTX, minTY, maxTX, maxTY int) {
	tlx, tly, brx, bry := w.Pixels(z)
	last := int(math.Exp2(float64(z))) - 1
	clip := func(v float64) int { return min(max(int(math.Floor(v/TileSize)), 0), last) }
	return clip(tlx), clip(tly), clip(brx - 1), clip(bry - 1)
}

// MosaicZoom converts a 512px-tile zoom at the given pixel density into the
// 256px-tile level that resolves at least as much detail.
func MosaicZoom(zoom, multiplier float64, p Preset) int {
	return p.ClampZoom(int(math.Floor(zoom + 1 + math.Log2(multiplier))))
}

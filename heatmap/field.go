package heatmap

import (
	"image"
	"slices"
)

// IntensityField counts, per canvas pixel, how often a track touched it.
type IntensityField struct {
	W, H   int
	Counts []uint32
}

func NewIntensityField(w, h int) *IntensityField {
	return &IntensityField{W: w, H: h, Counts: make([]uint32, w*h)}
}

func (f *IntensityField) At(x, y int) uint32 { return f.Counts[y*f.W+x] }

func (f *IntensityField) Inc(p image.Point) { f.Counts[p.Y*f.W+p.X]++ }

// Touched is the number of pixels with a nonzero count.
func (f *IntensityField) Touched() int {
	n := 0
	for _, c := range f.Counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// Percentile75 returns the 75th percentile of the counts greater than one,
// or 0 when no pixel was touched more than once.
func (f *IntensityField) Percentile75() uint32 {
	var dense []uint32
	for _, c := range f.Counts {
		if c > 1 {
			dense = append(dense, c)
		}
	}
	if len(dense) == 0 {
		return 0
	}
	slices.Sort(dense)
	return dense[len(dense)*3/4]
}

package track

import (
	"fmt"
	"strings"
	"time"
)

// Coordinate is a position in decimal degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

func (c Coordinate) String() string { return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng) }

// Sample is one GPS fix. Time is nil when the record carried no timestamp.
type Sample struct {
	Position Coordinate
	Time     *time.Time
}

func (s Sample) HasTime() bool { return s.Time != nil }

// ActivityKind is the closed set of activity types a run can be filtered by.
type ActivityKind int

const (
	Bike ActivityKind = iota + 1
	Run
	Walk
)

func (k ActivityKind) String() string {
	switch k {
	case Bike:
		return "bike"
	case Run:
		return "run"
	case Walk:
		return "walk"
	}
	return fmt.Sprintf("ActivityKind(%d)", int(k))
}

func ParseActivityKind(s string) (ActivityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bike", "biking", "ride", "cycling":
		return Bike, nil
	case "run", "running":
		return Run, nil
	case "walk", "walking", "hike":
		return Walk, nil
	}
	return 0, fmt.Errorf("unknown activity kind %q (want bike, run or walk)", s)
}

// TrackSet holds one sample sequence per accepted activity. Inner slices are never empty.
type TrackSet [][]Sample

func (ts TrackSet) Len() int { return len(ts) }

// Points returns the total number of samples across all activities.
func (ts TrackSet) Points() int {
	n := 0
	for _, pts := range ts {
		n += len(pts)
	}
	return n
}

package track

import (
	"encoding/xml"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
)

// gpxTypes are the <trk><type> codes written by Strava exports.
var gpxTypes = map[ActivityKind]string{
	Bike: "1",
	Run:  "9",
	Walk: "10",
}

// GPX parses GPS Exchange Format 1.0/1.1 documents. The whole document is one activity.
type GPX struct{}

func (GPX) Name() string { return "gpx" }

func (GPX) Sniff(root xml.Name) bool { return root.Local == "gpx" }

func (g GPX) Parse(doc []byte, f Filter, log *zap.Logger) ([]Sample, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := newScanner(doc)
	if err := s.root("gpx"); err != nil {
		return nil, err
	}

	var (
		pts     []Sample
		pt      pointBuilder
		inPt    bool
		index   int
		started bool // header start time seen
	)

	for {
		tok, err := s.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trkseg":
				if !s.within("trk") {
					return nil, parseErr(ErrStructure, s.offset(), "<trkseg> outside <trk>")
				}
			case "trkpt":
				if !s.within("trkseg") {
					return nil, parseErr(ErrStructure, s.offset(), "<trkpt> outside <trkseg>")
				}
				if inPt {
					return nil, parseErr(ErrStructure, s.offset(), "nested <trkpt>")
				}
				inPt = true
				pt.reset()
				if raw, ok := attr(t, "lat"); ok {
					v, err := s.float("lat", raw)
					if err != nil {
						return nil, err
					}
					pt.lat = &v
				}
				if raw, ok := attr(t, "lon"); ok {
					v, err := s.float("lon", raw)
					if err != nil {
						return nil, err
					}
					pt.lng = &v
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "time":
				raw := s.collected()
				switch {
				case raw == "":
				case s.inside("trkpt"):
					ts, err := s.timestamp("trkpt time", raw)
					if err != nil {
						return nil, err
					}
					pt.time = &ts
				case s.inside("metadata"):
					ts, err := s.timestamp("metadata time", raw)
					if err != nil {
						return nil, err
					}
					started = true
					if f.hasBounds() && !f.allowsTime(ts) {
						log.Debug("activity outside time window", zap.Time("start", ts))
						return nil, nil
					}
				}
			case "type":
				if s.inside("trk") {
					if token := s.collected(); !f.allowsToken(token, gpxTypes) {
						log.Debug("activity type filtered", zap.String("type", token))
						return nil, nil
					}
				}
			case "trkpt":
				inPt = false
				sample, reason, ok := pt.build()
				if !ok {
					log.Warn("dropping track point", zap.Int("index", index), zap.String("reason", reason))
				} else {
					pts = append(pts, sample)
				}
				index++
			}
		}
	}

	if !started && !f.allowsActivity(pts) {
		log.Debug("activity outside time window", zap.Timep("start", firstTime(pts)))
		return nil, nil
	}
	return pts, nil
}

func firstTime(pts []Sample) *time.Time {
	for _, p := range pts {
		if p.Time != nil {
			return p.Time
		}
	}
	return nil
}

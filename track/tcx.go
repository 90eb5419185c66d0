package track

import (
	"encoding/xml"
	"errors"
	"io"

	"go.uber.org/zap"
)

var tcxSports = map[ActivityKind]string{
	Bike: "Biking",
	Run:  "Running",
	Walk: "Other",
}

// TCX parses Garmin Training Center Database documents. A Sport outside the
// type filter ends the document with no samples. The time window is applied
// per <Activity>; accepted activities are concatenated in document order.
type TCX struct{}

func (TCX) Name() string { return "tcx" }

func (TCX) Sniff(root xml.Name) bool { return root.Local == "TrainingCenterDatabase" }

// tcxParents maps each validated element to the parent it must sit directly in.
var tcxParents = map[string]string{
	"Activity":         "Activities",
	"Lap":              "Activity",
	"Track":            "Lap",
	"Trackpoint":       "Track",
	"Time":             "Trackpoint",
	"Position":         "Trackpoint",
	"LatitudeDegrees":  "Position",
	"LongitudeDegrees": "Position",
}

func (TCX) Parse(doc []byte, f Filter, log *zap.Logger) ([]Sample, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := newScanner(doc)
	if err := s.root("TrainingCenterDatabase"); err != nil {
		return nil, err
	}

	var (
		out      []Sample
		activity []Sample
		pt       pointBuilder
		started  bool // current activity has a header start time
		index    int
	)

	// header records the activity start time and reports whether it falls
	// outside the window.
	header := func(field, raw string) (bool, error) {
		ts, err := s.timestamp(field, raw)
		if err != nil {
			return false, err
		}
		started = true
		if f.hasBounds() && !f.allowsTime(ts) {
			log.Debug("activity outside time window", zap.Time("start", ts))
			return true, nil
		}
		return false, nil
	}

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
			name := t.Name.Local
			if want, ok := tcxParents[name]; ok && !s.within(want) {
				return nil, parseErr(ErrStructure, s.offset(), "<%s> outside <%s>", name, want)
			}
			switch name {
			case "Activity":
				activity, started = nil, false
				if sport, ok := attr(t, "Sport"); ok && !f.allowsToken(sport, tcxSports) {
					log.Debug("activity type filtered", zap.String("sport", sport))
					return nil, nil
				}
			case "Lap":
				raw, ok := attr(t, "StartTime")
				if !ok || started {
					break
				}
				// The lap is now the innermost element; leave it and its activity.
				outside, err := header("Lap StartTime", raw)
				if err != nil {
					return nil, err
				}
				if outside {
					if err := s.skip(); err != nil {
						return nil, err
					}
					if err := s.skip(); err != nil {
						return nil, err
					}
					activity = nil
				}
			case "Trackpoint":
				pt.reset()
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "Id":
				if !s.inside("Activity") || started {
					break
				}
				raw := s.collected()
				if raw == "" {
					break
				}
				outside, err := header("Activity Id", raw)
				if err != nil {
					return nil, err
				}
				if outside {
					if err := s.skip(); err != nil {
						return nil, err
					}
					activity = nil
				}
			case "Time":
				if raw := s.collected(); raw != "" {
					ts, err := s.timestamp("Trackpoint Time", raw)
					if err != nil {
						return nil, err
					}
					pt.time = &ts
				}
			case "LatitudeDegrees":
				raw := s.collected()
				if raw == "" {
					break
				}
				v, err := s.float("LatitudeDegrees", raw)
				if err != nil {
					return nil, err
				}
				pt.lat = &v
			case "LongitudeDegrees":
				raw := s.collected()
				if raw == "" {
					break
				}
				v, err := s.float("LongitudeDegrees", raw)
				if err != nil {
					return nil, err
				}
				pt.lng = &v
			case "Trackpoint":
				sample, reason, ok := pt.build()
				if !ok {
					// Trackpoints without a position are common (indoor laps, pauses).
					log.Warn("dropping track point", zap.Int("index", index), zap.String("reason", reason))
				} else {
					activity = append(activity, sample)
				}
				index++
			case "Activity":
				if !started && !f.allowsActivity(activity) {
					log.Debug("activity outside time window", zap.Timep("start", firstTime(activity)))
				} else {
					out = append(out, activity...)
				}
				activity = nil
			}
		}
	}
	return out, nil
}

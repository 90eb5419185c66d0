package track

import "time"

// Filter restricts which activities a format parser accepts.
// A nil or empty Kinds admits every type; nil bounds are open.
type Filter struct {
	Kinds map[ActivityKind]bool
	Start *time.Time
	End   *time.Time
}

// NewFilter builds a Filter from a list of kinds and optional bounds.
func NewFilter(kinds []ActivityKind, start, end *time.Time) Filter {
	f := Filter{Start: start, End: end}
	if len(kinds) > 0 {
		f.Kinds = make(map[ActivityKind]bool, len(kinds))
		for _, k := range kinds {
			f.Kinds[k] = true
		}
	}
	return f
}

func (f Filter) hasKinds() bool  { return len(f.Kinds) > 0 }
func (f Filter) hasBounds() bool { return f.Start != nil || f.End != nil }

// allowsToken reports whether a format-specific activity token passes the type filter.
// tokens maps each ActivityKind to the token the format uses for it.
func (f Filter) allowsToken(token string, tokens map[ActivityKind]string) bool {
	if !f.hasKinds() {
		return true
	}
	for k := range f.Kinds {
		if tokens[k] == token {
			return true
		}
	}
	return false
}

// allowsTime reports whether t lies in [Start, End].
func (f Filter) allowsTime(t time.Time) bool {
	if f.Start != nil && t.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.After(*f.End) {
		return false
	}
	return true
}

// allowsActivity applies the time filter to a finished activity whose header
// carried no start time: the first timestamped sample stands in for it.
func (f Filter) allowsActivity(pts []Sample) bool {
	if !f.hasBounds() {
		return true
	}
	for _, p := range pts {
		if p.Time != nil {
			return f.allowsTime(*p.Time)
		}
	}
	return false
}

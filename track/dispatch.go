package track

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Dispatcher turns input paths into a TrackSet. Failures on one path are
// logged and never stop the batch.
type Dispatcher struct {
	Registry *Registry
	Filter   Filter
	Logger   *zap.Logger
	// OnFile, if set, is called after each regular file has been handled.
	OnFile func(path string)
}

func NewDispatcher(reg *Registry, f Filter, log *zap.Logger) *Dispatcher {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{Registry: reg, Filter: f, Logger: log}
}

// Resolve expands paths into the regular files they name. Directories are
// listed one level deep; nested directories, symlinks and other special
// entries are skipped.
func (d *Dispatcher) Resolve(paths []string) []string {
	var files []string
	for _, p := range paths {
		fi, err := os.Lstat(p)
		if err != nil {
			d.Logger.Warn("cannot stat input", zap.String("path", p), zap.Error(err))
			continue
		}
		switch {
		case fi.Mode().IsRegular():
			files = append(files, p)
		case fi.IsDir():
			entries, err := os.ReadDir(p)
			if err != nil {
				d.Logger.Warn("cannot list directory", zap.String("path", p), zap.Error(err))
				continue
			}
			for _, e := range entries {
				full := filepath.Join(p, e.Name())
				if !e.Type().IsRegular() {
					d.Logger.Warn("skipping non-regular entry", zap.String("path", full), zap.Stringer("mode", e.Type()))
					continue
				}
				files = append(files, full)
			}
		default:
			d.Logger.Warn("skipping non-regular input", zap.String("path", p), zap.Stringer("mode", fi.Mode()))
		}
	}
	return files
}

// Dispatch parses every file reachable from paths.
func (d *Dispatcher) Dispatch(paths []string) TrackSet {
	files := d.Resolve(paths)
	var ts TrackSet
	failed := 0
	for _, path := range files {
		pts, err := d.ParseFile(path)
		if err != nil {
			failed++
			d.Logger.Warn("skipping file", zap.String("file", path), zap.Error(err))
		} else if len(pts) > 0 {
			ts = append(ts, pts)
		}
		if d.OnFile != nil {
			d.OnFile(path)
		}
	}
	d.Logger.Info("inputs loaded",
		zap.Int("files", len(files)),
		zap.Int("failed", failed),
		zap.Int("tracks", ts.Len()),
		zap.Int("points", ts.Points()))
	return ts
}

// ParseFile reads and parses a single document.
func (d *Dispatcher) ParseFile(path string) ([]Sample, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	log := d.Logger.With(zap.String("file", path))
	pts, format, err := d.Registry.Parse(doc, d.Filter, log)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		log.Info("no samples after filtering", zap.String("format", format.Name()))
	} else {
		log.Debug("parsed", zap.String("format", format.Name()), zap.Int("points", len(pts)))
	}
	return pts, nil
}

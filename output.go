package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/cli/browser"
	"go.uber.org/zap"
)

func outputPath(out string, now time.Time) string {
	if out != "" {
		return out
	}
	return fmt.Sprintf("heatmap_%d.png", now.Unix())
}

// writePNG encodes img next to path and moves it into place once complete.
func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		if err := copyFile(tmp, path); err != nil {
			return fmt.Errorf("rename/copy png: %w", err)
		}
		_ = os.Remove(tmp)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}

func openResult(path string, log *zap.Logger) {
	browser.Stdout = os.Stderr
	if err := browser.OpenFile(path); err != nil {
		log.Warn("cannot open result", zap.String("out", path), zap.Error(err))
	}
}

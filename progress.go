package main

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

type Bars struct {
	Files  *progressbar.ProgressBar
	Render *progressbar.ProgressBar
}

// NewBars draws to stderr, or nowhere when disabled.
func NewBars(enabled bool) *Bars {
	var w io.Writer = os.Stderr
	if !enabled {
		w = io.Discard
	}
	theme := progressbar.Theme{
		Saucer:        "=",
		SaucerHead:    ">",
		SaucerPadding: " ",
		BarStart:      "[",
		BarEnd:        "]",
	}
	bar := func(desc string) *progressbar.ProgressBar {
		return progressbar.NewOptions(0,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetTheme(theme),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		)
	}
	return &Bars{Files: bar("[files] parsing"), Render: bar("[tracks] rendering")}
}

func (b *Bars) StartFiles(n int)  { b.Files.ChangeMax(n) }
func (b *Bars) StartRender(n int) { b.Render.ChangeMax(n) }
func (b *Bars) IncFiles()         { _ = b.Files.Add(1) }
func (b *Bars) IncRender()        { _ = b.Render.Add(1) }

func (b *Bars) Done() {
	_ = b.Files.Finish()
	_ = b.Render.Finish()
}

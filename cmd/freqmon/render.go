package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/petems/freqmon/internal/app"
	"github.com/petems/freqmon/internal/spectrum"
)

var barGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// terminalRenderer prints one line per frame, throttled to every.
type terminalRenderer struct {
	out    io.Writer
	every  time.Duration
	height int
	last   time.Time
}

func newTerminalRenderer(out io.Writer, every time.Duration, height int) *terminalRenderer {
	return &terminalRenderer{out: out, every: every, height: height}
}

func (r *terminalRenderer) SetIdle()      { fmt.Fprintln(r.out, "monitor off") }
func (r *terminalRenderer) SetStreaming() { fmt.Fprintln(r.out, "monitor on") }
func (r *terminalRenderer) SetError()     { fmt.Fprintln(r.out, "monitor error (see log)") }

func (r *terminalRenderer) Render(f app.Frame) {
	if !f.Streaming && settled(f.Levels) {
		return
	}
	now := time.Now()
	if now.Sub(r.last) < r.every {
		return
	}
	r.last = now
	fmt.Fprintf(r.out, "%6d Hz |%s|\n", int(f.DominantHz), bars(f.Levels, r.height))
}

// settled reports whether every held level has decayed to zero.
func settled(levels []spectrum.BandValue) bool {
	for _, l := range levels {
		if l.Held > 0 {
			return false
		}
	}
	return true
}

// bars draws each held level as one glyph scaled to height.
func bars(levels []spectrum.BandValue, height int) string {
	var b strings.Builder
	top := len(barGlyphs) - 1
	for _, l := range levels {
		i := 0
		if height > 0 {
			i = min(l.Held*top/height, top)
		}
		b.WriteRune(barGlyphs[i])
	}
	return b.String()
}

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/petems/freqmon/internal/app"
	"github.com/petems/freqmon/internal/spectrum"
)

func TestBars(t *testing.T) {
	levels := []spectrum.BandValue{{Held: 0}, {Held: 10}, {Held: 20}, {Held: 25}}
	assert.Equal(t, " ▄██", bars(levels, 20))
	assert.Equal(t, "    ", bars(levels, 0))
}

func TestTerminalRendererThrottles(t *testing.T) {
	var out bytes.Buffer
	r := newTerminalRenderer(&out, time.Hour, 20)

	r.Render(app.Frame{Streaming: true, DominantHz: 1000.7, Levels: []spectrum.BandValue{{Held: 20}}})
	r.Render(app.Frame{DominantHz: 2000})

	assert.Equal(t, "  1000 Hz |█|\n", out.String())
}

func TestTerminalRendererSkipsSettledIdleFrames(t *testing.T) {
	var out bytes.Buffer
	r := newTerminalRenderer(&out, 0, 20)

	r.Render(app.Frame{Levels: []spectrum.BandValue{{Held: 5}, {Held: 0}}})
	r.Render(app.Frame{Levels: []spectrum.BandValue{{Held: 0}, {Held: 0}}})
	r.Render(app.Frame{Levels: []spectrum.BandValue{{Held: 0}, {Held: 0}}})

	assert.Equal(t, "     0 Hz |▂ |\n", out.String())
}

package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/petems/freqmon/internal/audio"
	"github.com/petems/freqmon/internal/config"
	"github.com/petems/freqmon/internal/spectrum"
	"github.com/rs/zerolog"
)

// ErrNotRunning is returned by commands issued after Run has returned.
var ErrNotRunning = errors.New("app is not running")

// Renderer consumes frames and status changes (e.g., a plot or a bar grid)
type Renderer interface {
	SetIdle()
	SetStreaming()
	SetError()
	Render(Frame)
}

// Frame is the result of one analysis tick.
type Frame struct {
	DominantHz float64
	Bands      []int
	Levels     []spectrum.BandValue
	Spectrum   spectrum.Spectrum
	Streaming  bool
}

type Config struct {
	Driver   audio.Driver
	Config   *config.Config
	Logger   zerolog.Logger
	Renderer Renderer // Optional - can be nil
}

// App is the consumer-facing side of the pipeline. Capture runs on the
// driver's thread; everything else runs on the Run loop, which serializes
// commands and analysis ticks.
type App struct {
	catalog *audio.Catalog
	session *audio.Session
	cfg     *config.Config
	log     zerolog.Logger
	render  Renderer

	cmds chan command
	done chan struct{}

	running   atomic.Bool
	streaming atomic.Bool
	fast      atomic.Bool

	// Owned by the Run loop.
	analyzer    *spectrum.Analyzer
	smoother    *spectrum.BandSmoother
	deviceIndex int
	resolved    bool
	frameCount  int
	reported    bool
}

type command struct {
	run  func() error
	done chan error
}

func New(cfg Config) *App {
	a := &App{
		catalog:     audio.NewCatalog(cfg.Driver, cfg.Logger),
		session:     audio.NewSession(cfg.Driver, cfg.Logger),
		cfg:         cfg.Config,
		log:         cfg.Logger,
		render:      cfg.Renderer,
		cmds:        make(chan command),
		done:        make(chan struct{}),
		analyzer:    spectrum.NewAnalyzer(cfg.Config.Audio.SampleRate),
		smoother:    spectrum.NewBandSmoother(cfg.Config.Analysis.Bands),
		deviceIndex: audio.SystemDefault,
		frameCount:  cfg.Config.Audio.ActiveFrameCount(),
	}
	a.fast.Store(cfg.Config.Audio.FastMode)
	return a
}

// Run processes commands and, when RefreshInterval is positive, runs an
// analysis tick at that interval and hands each frame to the Renderer.
// It stops any running stream before returning.
func (a *App) Run(ctx context.Context) error {
	a.running.Store(true)
	defer close(a.done)

	var tick <-chan time.Time
	if interval := a.cfg.Analysis.RefreshInterval; interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	a.log.Debug().Dur("interval", a.cfg.Analysis.RefreshInterval).Msg("Analysis loop running")
	for {
		select {
		case <-ctx.Done():
			a.stopIfStreaming()
			return ctx.Err()
		case cmd := <-a.cmds:
			cmd.done <- cmd.run()
		case <-tick:
			a.tick()
		}
	}
}

// do runs fn on the Run loop and waits for its result.
func (a *App) do(ctx context.Context, fn func() error) error {
	cmd := command{run: fn, done: make(chan error, 1)}
	select {
	case a.cmds <- cmd:
	case <-a.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins capturing from the selected device.
func (a *App) Start(ctx context.Context) error {
	return a.do(ctx, a.startLocked)
}

// Stop halts capture.
func (a *App) Stop(ctx context.Context) error {
	return a.do(ctx, a.stopLocked)
}

// ToggleMonitor starts capture when idle and stops it when streaming.
func (a *App) ToggleMonitor(ctx context.Context) error {
	return a.do(ctx, func() error {
		if a.session.State() == audio.Streaming {
			return a.stopLocked()
		}
		return a.startLocked()
	})
}

// Restart replaces the running stream with one opened for sc. Later
// restarts (fast mode, device selection) keep sc's device, rate and
// channel count.
func (a *App) Restart(ctx context.Context, sc audio.StreamConfig) error {
	return a.do(ctx, func() error {
		return a.restartLocked(sc)
	})
}

// SetFastMode switches between the short and the long analysis window,
// restarting capture if it is running.
func (a *App) SetFastMode(ctx context.Context, on bool) error {
	return a.do(ctx, func() error {
		a.cfg.Audio.FastMode = on
		a.fast.Store(on)
		if on {
			a.frameCount = a.cfg.Audio.FastFrameCount
		} else {
			a.frameCount = a.cfg.Audio.SlowFrameCount
		}
		a.log.Info().Bool("fast", on).Int("frames", a.frameCount).Msg("Fast mode changed")

		if a.session.State() != audio.Streaming {
			return nil
		}
		return a.restartLocked(a.streamConfig())
	})
}

// SelectDevice switches to the input device called name, restarting
// capture if it is running. Unknown names select device 0.
func (a *App) SelectDevice(ctx context.Context, name string) error {
	return a.do(ctx, func() error {
		a.deviceIndex = a.catalog.ResolveIndexByName(name)
		a.resolved = true
		a.cfg.Audio.DeviceName = name
		a.log.Info().Str("device", name).Int("index", a.deviceIndex).Msg("Input device selected")

		if a.cfg.Path() != "" {
			if err := a.cfg.Save(); err != nil {
				a.log.Warn().Err(err).Msg("Failed to save config")
			}
		}

		if a.session.State() != audio.Streaming {
			return nil
		}
		return a.restartLocked(a.streamConfig())
	})
}

// PollSpectrum runs one analysis tick and returns its frame. While idle the
// frame carries only the decaying held levels together with
// audio.ErrNotStreaming; before the first block it returns
// audio.ErrBufferNotReady.
func (a *App) PollSpectrum(ctx context.Context) (Frame, error) {
	var frame Frame
	err := a.do(ctx, func() error {
		var err error
		frame, err = a.poll()
		return err
	})
	return frame, err
}

// InputDevices lists the devices that can be captured from.
func (a *App) InputDevices() ([]audio.DeviceDescriptor, error) {
	return a.catalog.ListInputDevices()
}

// DefaultInputDevice returns the host's default input device.
func (a *App) DefaultInputDevice() (audio.DeviceDescriptor, error) {
	return a.catalog.DefaultInputDevice()
}

func (a *App) IsStreaming() bool {
	return a.streaming.Load()
}

func (a *App) FastMode() bool {
	return a.fast.Load()
}

// Shutdown stops capture. It is safe to call whether or not Run is active.
func (a *App) Shutdown(ctx context.Context) error {
	if !a.running.Load() {
		a.stopIfStreaming()
		return nil
	}
	err := a.do(ctx, func() error {
		a.stopIfStreaming()
		return nil
	})
	if errors.Is(err, ErrNotRunning) {
		a.stopIfStreaming()
		return nil
	}
	return err
}

func (a *App) startLocked() error {
	if !a.resolved {
		if name := a.cfg.Audio.DeviceName; name != "" {
			a.deviceIndex = a.catalog.ResolveIndexByName(name)
		}
		a.resolved = true
	}

	sc := a.streamConfig()
	if err := a.session.Start(sc); err != nil {
		a.log.Error().Err(err).Msg("Failed to start capture")
		a.setError()
		return err
	}
	a.started(sc)
	return nil
}

func (a *App) restartLocked(sc audio.StreamConfig) error {
	if err := a.session.Restart(sc); err != nil {
		a.log.Error().Err(err).Msg("Failed to restart capture")
		a.streaming.Store(false)
		a.setError()
		return err
	}
	a.started(sc)
	return nil
}

func (a *App) stopLocked() error {
	if err := a.session.Stop(); err != nil {
		if !errors.Is(err, audio.ErrNotStreaming) {
			a.log.Error().Err(err).Msg("Failed to stop capture")
		}
		a.streaming.Store(false)
		return err
	}
	a.streaming.Store(false)
	if a.render != nil {
		a.render.SetIdle()
	}
	return nil
}

func (a *App) stopIfStreaming() {
	if a.session.State() == audio.Streaming {
		if err := a.stopLocked(); err != nil {
			a.log.Warn().Err(err).Msg("Stop on shutdown failed")
		}
	}
}

func (a *App) started(sc audio.StreamConfig) {
	a.frameCount = sc.FrameCount
	a.deviceIndex = sc.DeviceIndex
	a.resolved = true
	a.cfg.Audio.SampleRate = sc.SampleRate
	a.cfg.Audio.Channels = sc.Channels
	if a.analyzer.SampleRate() != sc.SampleRate {
		a.analyzer = spectrum.NewAnalyzer(sc.SampleRate)
	}
	a.reported = false
	a.streaming.Store(true)
	if a.render != nil {
		a.render.SetStreaming()
	}
}

func (a *App) setError() {
	if a.render != nil {
		a.render.SetError()
	}
}

func (a *App) streamConfig() audio.StreamConfig {
	sc := a.cfg.StreamConfig(a.deviceIndex)
	sc.FrameCount = a.frameCount
	return sc
}

func (a *App) tick() {
	frame, err := a.poll()
	switch {
	case errors.Is(err, audio.ErrBufferNotReady):
		return
	case errors.Is(err, audio.ErrStreamFailed):
		if !a.reported {
			a.reported = true
			a.streaming.Store(false)
			a.log.Error().Err(err).Msg("Capture stopped unexpectedly")
			a.setError()
		}
	}
	if a.render != nil {
		a.render.Render(frame)
	}
}

// poll analyzes the latest block. Without one, the held levels decay.
func (a *App) poll() (Frame, error) {
	maxHeight := a.cfg.Analysis.MaxBandHeight

	buf, err := a.session.LatestBuffer()
	if err != nil {
		if errors.Is(err, audio.ErrBufferNotReady) {
			return Frame{}, err
		}
		return Frame{
			Bands:  make([]int, a.smoother.Len()),
			Levels: a.smoother.Update(nil, maxHeight),
		}, err
	}

	spec := a.analyzer.Analyze(buf)
	bands := spectrum.AggregateBands(spec, a.smoother.Len())
	return Frame{
		DominantHz: spectrum.DominantFrequency(spec),
		Bands:      bands,
		Levels:     a.smoother.Update(bands, maxHeight),
		Spectrum:   spec,
		Streaming:  true,
	}, nil
}

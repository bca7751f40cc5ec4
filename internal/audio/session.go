package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the capture session state.
type State int

const (
	Idle State = iota
	Streaming
)

func (s State) String() string {
	if s == Streaming {
		return "streaming"
	}
	return "idle"
}

// Stats counts driver callbacks for the current stream.
type Stats struct {
	Delivered uint64
	Dropped   uint64
}

// Session owns one input stream and the latest block it produced.
type Session struct {
	driver Driver
	log    zerolog.Logger

	mu      sync.Mutex
	cur     *capture
	failure error
}

// capture is the per-stream state. A new one is built on every start so a
// restarted session never sees the previous stream's samples.
type capture struct {
	id     uuid.UUID
	cfg    StreamConfig
	stream Stream
	log    zerolog.Logger

	slot    slot
	scratch []int16

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// slot holds the latest complete mono block. The lock is held only for a
// copy of FrameCount samples on either side.
type slot struct {
	mu    sync.Mutex
	buf   []int16
	ready bool
}

func (s *slot) store(block []int16) {
	s.mu.Lock()
	copy(s.buf, block)
	s.ready = true
	s.mu.Unlock()
}

func (s *slot) load() ([]int16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, false
	}
	out := make([]int16, len(s.buf))
	copy(out, s.buf)
	return out, true
}

// NewSession creates an idle capture session.
func NewSession(driver Driver, log zerolog.Logger) *Session {
	return &Session{driver: driver, log: log}
}

// Start opens and starts an input stream for cfg.
func (s *Session) Start(cfg StreamConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		return ErrAlreadyStreaming
	}
	return s.startLocked(cfg)
}

// Stop halts the stream and releases it. It returns once the driver has
// guaranteed that no further callbacks will run.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return ErrNotStreaming
	}
	c := s.cur
	s.cur = nil
	s.failure = nil
	c.log.Info().Msg("Stopping capture")
	return c.release()
}

// Restart replaces the running stream with one opened for cfg. If the new
// stream cannot be opened the session is left idle with nothing held. An
// idle session is simply started.
func (s *Session) Restart(cfg StreamConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		c := s.cur
		s.cur = nil
		c.log.Info().Msg("Restarting capture")
		if err := c.release(); err != nil {
			return fmt.Errorf("restart: %w", err)
		}
	}
	return s.startLocked(cfg)
}

// LatestBuffer returns a copy of the most recent complete block.
func (s *Session) LatestBuffer() ([]int16, error) {
	s.mu.Lock()
	c, failure := s.cur, s.failure
	s.mu.Unlock()

	if c == nil {
		if failure != nil {
			return nil, failure
		}
		return nil, ErrNotStreaming
	}
	buf, ok := c.slot.load()
	if !ok {
		return nil, ErrBufferNotReady
	}
	return buf, nil
}

// State reports whether a stream is running.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return Idle
	}
	return Streaming
}

// Config returns the running stream's config.
func (s *Session) Config() (StreamConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return StreamConfig{}, false
	}
	return s.cur.cfg, true
}

// ID identifies the running stream in logs. It is uuid.Nil when idle.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return uuid.Nil
	}
	return s.cur.id
}

// Stats returns callback counters for the running stream.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return Stats{}
	}
	return Stats{
		Delivered: s.cur.delivered.Load(),
		Dropped:   s.cur.dropped.Load(),
	}
}

func (s *Session) startLocked(cfg StreamConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceOpen, err)
	}

	id := uuid.New()
	c := &capture{
		id:  id,
		cfg: cfg,
		log: s.log.With().Str("stream", id.String()).Logger(),
		slot: slot{
			buf: make([]int16, cfg.FrameCount),
		},
	}
	if cfg.Channels > 1 {
		c.scratch = make([]int16, cfg.FrameCount)
	}

	stream, err := s.driver.OpenInput(cfg, Callbacks{
		OnData: c.onData,
		OnError: func(err error) {
			// The driver may still be inside its own thread; release elsewhere.
			go s.fail(c, err)
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceOpen, err)
	}
	if err := stream.Start(); err != nil {
		if cerr := stream.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("Failed to close stream after start error")
		}
		return fmt.Errorf("%w: %w", ErrDeviceOpen, err)
	}

	c.stream = stream
	s.cur = c
	s.failure = nil

	c.log.Info().
		Int("device", cfg.DeviceIndex).
		Int("sample_rate", cfg.SampleRate).
		Int("channels", cfg.Channels).
		Int("frames", cfg.FrameCount).
		Msg("Capture started")
	return nil
}

// fail handles a fatal error reported by the driver for stream c.
func (s *Session) fail(c *capture, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != c {
		return
	}
	s.cur = nil
	s.failure = fmt.Errorf("%w: %w", ErrStreamFailed, cause)
	c.log.Error().Err(cause).Msg("Capture stream failed")
	if err := c.release(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to release failed stream")
	}
}

// onData runs on the driver thread: no logging, no allocation.
func (c *capture) onData(in []int16) {
	ch := c.cfg.Channels
	if len(in) != c.cfg.FrameCount*ch {
		c.dropped.Add(1)
		return
	}
	if ch == 1 {
		c.slot.store(in)
	} else {
		downmixInterleaved(c.scratch, in, ch)
		c.slot.store(c.scratch)
	}
	c.delivered.Add(1)
}

// release stops then closes the stream. Close runs even if Stop fails.
func (c *capture) release() (err error) {
	defer func() {
		if cerr := c.stream.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close stream: %w", cerr)
		}
	}()
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	return nil
}

// downmixInterleaved averages interleaved frames of in into dst, one sample
// per frame.
func downmixInterleaved(dst, in []int16, channels int) {
	for i := range dst {
		var sum int32
		frame := in[i*channels : (i+1)*channels]
		for _, v := range frame {
			sum += int32(v)
		}
		dst[i] = int16(sum / int32(channels))
	}
}

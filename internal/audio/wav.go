package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

// wavDriver replays a WAV file as if it were a single input device. Blocks
// are delivered from a goroutine paced at FrameCount/SampleRate, standing in
// for the audio driver's thread.
type wavDriver struct {
	name       string
	samples    []int16 // interleaved
	numChans   int
	sampleRate int
	loop       bool
	log        zerolog.Logger
}

// NewWAVDriver loads path and returns a driver exposing it as device 0.
// With loop set, replay wraps around at the end of the file; otherwise the
// stream fails with io.EOF once the file is exhausted.
func NewWAVDriver(path string, loop bool, log zerolog.Logger) (Driver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrUnsupportedFormat, path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	shift := int(dec.BitDepth) - 16
	if dec.BitDepth != 16 && dec.BitDepth != 24 && dec.BitDepth != 32 {
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, dec.BitDepth)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v >> shift)
	}

	d := &wavDriver{
		name:       "wav: " + filepath.Base(path),
		samples:    samples,
		numChans:   int(dec.NumChans),
		sampleRate: int(dec.SampleRate),
		loop:       loop,
		log:        log,
	}
	log.Debug().
		Str("file", path).
		Int("sample_rate", d.sampleRate).
		Int("channels", d.numChans).
		Int("frames", d.frames()).
		Msg("Loaded audio file")
	return d, nil
}

func (d *wavDriver) frames() int {
	if d.numChans == 0 {
		return 0
	}
	return len(d.samples) / d.numChans
}

func (d *wavDriver) DeviceCount() (int, error) {
	return 1, nil
}

func (d *wavDriver) Device(index int) (DeviceDescriptor, error) {
	if index != 0 {
		return DeviceDescriptor{}, fmt.Errorf("%w: index %d", ErrDeviceNotFound, index)
	}
	return d.descriptor(), nil
}

func (d *wavDriver) DefaultInputDevice() (DeviceDescriptor, error) {
	return d.descriptor(), nil
}

func (d *wavDriver) descriptor() DeviceDescriptor {
	return DeviceDescriptor{
		Index:             0,
		Name:              d.name,
		MaxInputChannels:  d.numChans,
		DefaultSampleRate: float64(d.sampleRate),
		HostAPI:           "wav",
		Default:           true,
	}
}

func (d *wavDriver) OpenInput(cfg StreamConfig, cb Callbacks) (Stream, error) {
	if cfg.DeviceIndex != 0 && cfg.DeviceIndex != SystemDefault {
		return nil, fmt.Errorf("%w: index %d", ErrDeviceNotFound, cfg.DeviceIndex)
	}
	if cfg.SampleRate != d.sampleRate {
		return nil, fmt.Errorf("%w: file is %d Hz, requested %d Hz", ErrUnsupportedFormat, d.sampleRate, cfg.SampleRate)
	}
	if cfg.Channels > d.numChans {
		return nil, fmt.Errorf("%w: file has %d channels, requested %d", ErrUnsupportedFormat, d.numChans, cfg.Channels)
	}

	period := time.Duration(float64(cfg.FrameCount) / float64(cfg.SampleRate) * float64(time.Second))
	return &wavStream{
		driver: d,
		cfg:    cfg,
		cb:     cb,
		period: period,
		block:  make([]int16, cfg.FrameCount*cfg.Channels),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

func (d *wavDriver) Close() error {
	return nil
}

type wavStream struct {
	driver *wavDriver
	cfg    StreamConfig
	cb     Callbacks
	period time.Duration
	block  []int16
	pos    int

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func (s *wavStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("stream already started")
	}
	s.started = true
	go s.run()
	return nil
}

// Stop returns after the replay goroutine has exited.
func (s *wavStream) Stop() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.done
	return nil
}

func (s *wavStream) Close() error {
	return s.Stop()
}

func (s *wavStream) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			if !s.fill() {
				s.cb.OnError(fmt.Errorf("replay %s: %w", s.driver.name, io.EOF))
				return
			}
			s.cb.OnData(s.block)
		}
	}
}

// fill copies the next FrameCount frames into block, keeping the first
// cfg.Channels channels of each frame.
func (s *wavStream) fill() bool {
	d := s.driver
	total := d.frames()
	ch := s.cfg.Channels
	for i := 0; i < s.cfg.FrameCount; i++ {
		if s.pos >= total {
			if !d.loop || total == 0 {
				return false
			}
			s.pos = 0
		}
		frame := d.samples[s.pos*d.numChans:]
		copy(s.block[i*ch:(i+1)*ch], frame[:ch])
		s.pos++
	}
	return true
}

// WriteWAV writes interleaved 16-bit samples to path as a PCM WAV file.
func WriteWAV(path string, sampleRate, channels int, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return enc.Close()
}

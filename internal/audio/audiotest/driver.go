// Package audiotest provides an in-memory audio.Driver whose devices,
// failures and callbacks are driven by the test.
package audiotest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/petems/freqmon/internal/audio"
)

// ErrQueryFailed is returned for devices listed in Driver.FailDevices.
var ErrQueryFailed = errors.New("audiotest: device query failed")

// Driver is a scripted audio.Driver. Configure the exported fields before
// handing it to the code under test.
type Driver struct {
	Devices []audio.DeviceDescriptor
	// DefaultIndex is the index of the default input device, or -1 for none.
	DefaultIndex int
	// FailDevices makes Device(i) fail for the listed indices.
	FailDevices map[int]bool
	// CountErr makes DeviceCount fail.
	CountErr error
	// OpenErr makes OpenInput fail.
	OpenErr error
	// StartErr makes Stream.Start fail.
	StartErr error
	// StopErr makes Stream.Stop fail.
	StopErr error

	mu      sync.Mutex
	streams []*Stream
}

// NewDriver returns a driver with the given devices; the first one with
// input channels is the default.
func NewDriver(devices ...audio.DeviceDescriptor) *Driver {
	d := &Driver{Devices: devices, DefaultIndex: -1}
	for i := range d.Devices {
		d.Devices[i].Index = i
		if d.DefaultIndex < 0 && d.Devices[i].MaxInputChannels > 0 {
			d.DefaultIndex = i
		}
	}
	return d
}

// Mic is a convenience mono input device.
func Mic(name string) audio.DeviceDescriptor {
	return audio.DeviceDescriptor{Name: name, MaxInputChannels: 1, DefaultSampleRate: 44100}
}

// Speaker is a convenience output-only device.
func Speaker(name string) audio.DeviceDescriptor {
	return audio.DeviceDescriptor{Name: name, MaxOutputChannels: 2, DefaultSampleRate: 48000}
}

func (d *Driver) DeviceCount() (int, error) {
	if d.CountErr != nil {
		return 0, d.CountErr
	}
	return len(d.Devices), nil
}

func (d *Driver) Device(index int) (audio.DeviceDescriptor, error) {
	if index < 0 || index >= len(d.Devices) {
		return audio.DeviceDescriptor{}, audio.ErrDeviceNotFound
	}
	if d.FailDevices[index] {
		return audio.DeviceDescriptor{}, ErrQueryFailed
	}
	desc := d.Devices[index]
	desc.Default = index == d.DefaultIndex
	return desc, nil
}

func (d *Driver) DefaultInputDevice() (audio.DeviceDescriptor, error) {
	if d.DefaultIndex < 0 {
		return audio.DeviceDescriptor{}, errors.New("audiotest: no default device")
	}
	return d.Device(d.DefaultIndex)
}

func (d *Driver) OpenInput(cfg audio.StreamConfig, cb audio.Callbacks) (audio.Stream, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	if cfg.DeviceIndex != audio.SystemDefault && (cfg.DeviceIndex < 0 || cfg.DeviceIndex >= len(d.Devices)) {
		return nil, fmt.Errorf("%w: index %d", audio.ErrDeviceNotFound, cfg.DeviceIndex)
	}

	s := &Stream{Config: cfg, cb: cb, startErr: d.StartErr, stopErr: d.StopErr}
	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

func (d *Driver) Close() error {
	return nil
}

// Streams returns every stream opened so far, oldest first.
func (d *Driver) Streams() []*Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Stream(nil), d.streams...)
}

// Last returns the most recently opened stream, or nil.
func (d *Driver) Last() *Stream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

// Stream records its lifecycle and lets the test play the driver thread.
type Stream struct {
	Config audio.StreamConfig

	cb       audio.Callbacks
	startErr error
	stopErr  error

	mu      sync.Mutex
	running bool
	started bool
	stopped bool
	closed  bool
}

func (s *Stream) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running, s.started = true, true
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.stopped = true
	return s.stopErr
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.closed = true
	return nil
}

// Emit delivers one block as the driver thread would. Blocks sent to a
// stream that is not running are discarded and Emit reports false.
func (s *Stream) Emit(block []int16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.cb.OnData(block)
	return true
}

// Fail reports a fatal stream error through the driver callback.
func (s *Stream) Fail(err error) {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.cb.OnError(err)
}

// Started reports whether Start succeeded.
func (s *Stream) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Stopped reports whether Stop was called.
func (s *Stream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Closed reports whether Close was called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

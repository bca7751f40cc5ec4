package audio

import "fmt"

// SystemDefault selects the host's default input device in a StreamConfig.
const SystemDefault = -1

// Driver is the host audio API boundary.
type Driver interface {
	DeviceCount() (int, error)
	Device(index int) (DeviceDescriptor, error)
	DefaultInputDevice() (DeviceDescriptor, error)
	OpenInput(cfg StreamConfig, cb Callbacks) (Stream, error)
	Close() error
}

// Stream is an opened input stream. Stop must not return while a callback
// is still running.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Callbacks are invoked on the driver's own thread.
type Callbacks struct {
	// OnData receives one block of interleaved samples. The slice is only
	// valid for the duration of the call.
	OnData func(in []int16)
	// OnError reports a fatal stream error. No OnData call follows it.
	OnError func(err error)
}

// DeviceDescriptor is a snapshot of what the driver reports for a device.
type DeviceDescriptor struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	HostAPI           string
	Default           bool
}

// StreamConfig is fixed for the lifetime of a capture session.
type StreamConfig struct {
	SampleRate  int
	Channels    int
	FrameCount  int
	DeviceIndex int
}

// Validate reports whether the config can be handed to a driver.
func (c StreamConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.Channels <= 0:
		return fmt.Errorf("%w: channels %d", ErrInvalidConfig, c.Channels)
	case c.FrameCount <= 0:
		return fmt.Errorf("%w: frame count %d", ErrInvalidConfig, c.FrameCount)
	case c.DeviceIndex < SystemDefault:
		return fmt.Errorf("%w: device index %d", ErrInvalidConfig, c.DeviceIndex)
	}
	return nil
}

package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDefaultDevice means the host reports no default input device.
	ErrNoDefaultDevice = errors.New("no default input device")
	// ErrDeviceOpen wraps every failure to open or start an input stream.
	ErrDeviceOpen = errors.New("failed to open input device")
	// ErrInvalidConfig is returned for stream parameters no driver accepts.
	ErrInvalidConfig = errors.New("invalid stream config")
	// ErrUnsupportedFormat is returned by a driver that cannot serve the
	// requested sample rate or channel layout.
	ErrUnsupportedFormat = errors.New("unsupported stream format")
	// ErrDeviceNotFound is returned for an unknown device index.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrAlreadyStreaming is returned by Start on a running session.
	ErrAlreadyStreaming = errors.New("capture session already streaming")
	// ErrNotStreaming is returned when the session is idle.
	ErrNotStreaming = errors.New("capture session not streaming")
	// ErrBufferNotReady is transient: the stream is running but no complete
	// block has arrived yet.
	ErrBufferNotReady = errors.New("capture buffer not yet available")
	// ErrStreamFailed wraps a fatal error reported by the driver.
	ErrStreamFailed = errors.New("capture stream failed")
)

// DeviceEnumerationError reports a single device that could not be queried.
type DeviceEnumerationError struct {
	Index int
	Err   error
}

func (e *DeviceEnumerationError) Error() string {
	return fmt.Sprintf("query device %d: %v", e.Index, e.Err)
}

func (e *DeviceEnumerationError) Unwrap() error {
	return e.Err
}

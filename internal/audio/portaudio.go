package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

type portAudioDriver struct {
	log zerolog.Logger
}

// NewPortAudio initializes PortAudio and returns a driver backed by it.
// Close terminates PortAudio.
func NewPortAudio(log zerolog.Logger) (Driver, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	log.Debug().Str("version", portaudio.VersionText()).Msg("PortAudio initialized")
	return &portAudioDriver{log: log}, nil
}

func (p *portAudioDriver) DeviceCount() (int, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return 0, err
	}
	return len(devices), nil
}

func (p *portAudioDriver) Device(index int) (DeviceDescriptor, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return DeviceDescriptor{}, err
	}
	if index < 0 || index >= len(devices) {
		return DeviceDescriptor{}, fmt.Errorf("%w: index %d", ErrDeviceNotFound, index)
	}
	def, _ := portaudio.DefaultInputDevice()
	return describe(index, devices[index], def), nil
}

func (p *portAudioDriver) DefaultInputDevice() (DeviceDescriptor, error) {
	def, err := portaudio.DefaultInputDevice()
	if err != nil {
		return DeviceDescriptor{}, err
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return DeviceDescriptor{}, err
	}
	for i, d := range devices {
		if d == def {
			return describe(i, d, def), nil
		}
	}
	return DeviceDescriptor{}, fmt.Errorf("%w: default device %q not enumerated", ErrDeviceNotFound, def.Name)
}

func (p *portAudioDriver) OpenInput(cfg StreamConfig, cb Callbacks) (Stream, error) {
	device, err := p.lookup(cfg.DeviceIndex)
	if err != nil {
		return nil, err
	}

	// Analysis windows are long; prefer the high latency hint to avoid overflows.
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultHighInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FrameCount,
	}

	callback := func(in []int16) {
		cb.OnData(in)
	}
	if err := portaudio.IsFormatSupported(params, callback); err != nil {
		return nil, fmt.Errorf("%w: %s at %d Hz x%d: %v", ErrUnsupportedFormat, device.Name, cfg.SampleRate, cfg.Channels, err)
	}

	stream, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	p.log.Debug().Str("device", device.Name).Dur("latency", device.DefaultHighInputLatency).Msg("Opened PortAudio input stream")
	return stream, nil
}

func (p *portAudioDriver) Close() error {
	return portaudio.Terminate()
}

func (p *portAudioDriver) lookup(index int) (*portaudio.DeviceInfo, error) {
	if index == SystemDefault {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("%w: index %d", ErrDeviceNotFound, index)
	}
	return devices[index], nil
}

func describe(index int, d, def *portaudio.DeviceInfo) DeviceDescriptor {
	desc := DeviceDescriptor{
		Index:             index,
		Name:              d.Name,
		MaxInputChannels:  d.MaxInputChannels,
		MaxOutputChannels: d.MaxOutputChannels,
		DefaultSampleRate: d.DefaultSampleRate,
		Default:           d == def,
	}
	if d.HostApi != nil {
		desc.HostAPI = d.HostApi.Name
	}
	return desc
}

package audio

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Catalog enumerates the driver's devices. Nothing is cached: every call
// asks the driver again so hot-plugged devices show up.
type Catalog struct {
	driver Driver
	log    zerolog.Logger
}

// NewCatalog creates a device catalog backed by driver.
func NewCatalog(driver Driver, log zerolog.Logger) *Catalog {
	return &Catalog{driver: driver, log: log}
}

// ListAllDevices returns every device the driver could describe. Devices
// whose query fails are logged and skipped.
func (c *Catalog) ListAllDevices() ([]DeviceDescriptor, error) {
	count, err := c.driver.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	devices := make([]DeviceDescriptor, 0, count)
	for i := 0; i < count; i++ {
		d, err := c.driver.Device(i)
		if err != nil {
			c.log.Warn().Err(&DeviceEnumerationError{Index: i, Err: err}).Msg("Skipping device")
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// ListInputDevices returns the devices with at least one input channel.
func (c *Catalog) ListInputDevices() ([]DeviceDescriptor, error) {
	all, err := c.ListAllDevices()
	if err != nil {
		return nil, err
	}

	inputs := all[:0]
	for _, d := range all {
		if d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return inputs, nil
}

// DefaultInputDevice returns the host's default input device.
func (c *Catalog) DefaultInputDevice() (DeviceDescriptor, error) {
	d, err := c.driver.DefaultInputDevice()
	if err != nil {
		return DeviceDescriptor{}, fmt.Errorf("%w: %w", ErrNoDefaultDevice, err)
	}
	return d, nil
}

// ResolveIndexByName returns the index of the first input device called
// name. When nothing matches (or enumeration fails) it returns 0, the first
// device, rather than an error; callers relying on a name should check the
// result against ListInputDevices.
func (c *Catalog) ResolveIndexByName(name string) int {
	inputs, err := c.ListInputDevices()
	if err != nil {
		c.log.Warn().Err(err).Str("device", name).Msg("Device lookup failed, falling back to device 0")
		return 0
	}
	for _, d := range inputs {
		if d.Name == name {
			return d.Index
		}
	}
	c.log.Warn().Str("device", name).Msg("No input device with that name, falling back to device 0")
	return 0
}

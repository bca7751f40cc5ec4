package audio_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/freqmon/internal/audio"
	"github.com/petems/freqmon/internal/audio/audiotest"
)

func newCatalog(d *audiotest.Driver) *audio.Catalog {
	return audio.NewCatalog(d, zerolog.Nop())
}

func TestListAllDevicesSkipsFailingDevice(t *testing.T) {
	d := audiotest.NewDriver(
		audiotest.Mic("Built-in Mic"),
		audiotest.Speaker("Speakers"),
		audiotest.Mic("USB Interface"),
	)
	d.FailDevices = map[int]bool{1: true}

	devices, err := newCatalog(d).ListAllDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Built-in Mic", devices[0].Name)
	assert.Equal(t, "USB Interface", devices[1].Name)
	assert.Equal(t, 2, devices[1].Index)
}

func TestListAllDevicesCountFailure(t *testing.T) {
	d := audiotest.NewDriver(audiotest.Mic("Mic"))
	d.CountErr = errors.New("host API gone")

	_, err := newCatalog(d).ListAllDevices()
	require.Error(t, err)
}

func TestListInputDevicesFiltersOutputs(t *testing.T) {
	d := audiotest.NewDriver(
		audiotest.Speaker("HDMI"),
		audiotest.Mic("Mic"),
		audiotest.Speaker("Headphones"),
	)

	inputs, err := newCatalog(d).ListInputDevices()
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Mic", inputs[0].Name)
	assert.Equal(t, 1, inputs[0].Index)
}

func TestDefaultInputDevice(t *testing.T) {
	d := audiotest.NewDriver(audiotest.Speaker("HDMI"), audiotest.Mic("Mic"))

	def, err := newCatalog(d).DefaultInputDevice()
	require.NoError(t, err)
	assert.Equal(t, "Mic", def.Name)
	assert.True(t, def.Default)
}

func TestDefaultInputDeviceMissing(t *testing.T) {
	d := audiotest.NewDriver(audiotest.Speaker("HDMI"))

	_, err := newCatalog(d).DefaultInputDevice()
	assert.ErrorIs(t, err, audio.ErrNoDefaultDevice)
}

func TestResolveIndexByName(t *testing.T) {
	d := audiotest.NewDriver(
		audiotest.Speaker("HDMI"),
		audiotest.Mic("Mic"),
		audiotest.Mic("USB Interface"),
		audiotest.Mic("USB Interface"),
	)
	c := newCatalog(d)

	assert.Equal(t, 1, c.ResolveIndexByName("Mic"))
	assert.Equal(t, 2, c.ResolveIndexByName("USB Interface"), "first match wins")
}

// An unknown name silently resolves to device 0, which here is not even an
// input device. Pinned until the fallback is replaced by an error.
func TestResolveIndexByNameUnknownFallsBackToFirstDevice(t *testing.T) {
	d := audiotest.NewDriver(audiotest.Speaker("HDMI"), audiotest.Mic("Mic"))

	assert.Equal(t, 0, newCatalog(d).ResolveIndexByName("Unplugged Headset"))
}

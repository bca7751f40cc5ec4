package audio

import "testing"

func TestDownmixInterleavedStereo(t *testing.T) {
	input := []int16{
		0, 100,
		50, 50,
		100, 0,
		-50, 50,
	}
	expected := []int16{50, 50, 50, 0}

	got := make([]int16, 4)
	downmixInterleaved(got, input, 2)
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %d, got %d", i, expected[i], got[i])
		}
	}
}

func TestDownmixInterleavedMoreChannels(t *testing.T) {
	input := []int16{
		1, 3, 5,
		2, 4, 6,
	}
	expected := []int16{3, 4}

	got := make([]int16, 2)
	downmixInterleaved(got, input, 3)
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %d, got %d", i, expected[i], got[i])
		}
	}
}

func TestDownmixInterleavedNoOverflow(t *testing.T) {
	input := []int16{32767, 32767, -32768, -32768}

	got := make([]int16, 2)
	downmixInterleaved(got, input, 2)
	if got[0] != 32767 || got[1] != -32768 {
		t.Fatalf("expected extremes to survive the average, got %v", got)
	}
}

func TestStreamConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   StreamConfig
		valid bool
	}{
		{"defaults", StreamConfig{SampleRate: 44100, Channels: 1, FrameCount: 44100, DeviceIndex: SystemDefault}, true},
		{"explicit device", StreamConfig{SampleRate: 11025, Channels: 2, FrameCount: 1024, DeviceIndex: 3}, true},
		{"zero rate", StreamConfig{SampleRate: 0, Channels: 1, FrameCount: 1024}, false},
		{"zero channels", StreamConfig{SampleRate: 44100, Channels: 0, FrameCount: 1024}, false},
		{"zero frames", StreamConfig{SampleRate: 44100, Channels: 1, FrameCount: 0}, false},
		{"bad device", StreamConfig{SampleRate: 44100, Channels: 1, FrameCount: 1024, DeviceIndex: -2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.valid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/petems/freqmon/internal/audio"
)

const (
	SourcePortAudio = "portaudio"
	SourceWAV       = "wav"
)

type Config struct {
	LogLevel string         `json:"log_level" mapstructure:"log_level"`
	Audio    AudioConfig    `json:"audio" mapstructure:"audio"`
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis"`

	path string
}

type AudioConfig struct {
	Source         string `json:"source" mapstructure:"source"`             // "portaudio" or "wav"
	DeviceName     string `json:"device_name" mapstructure:"device_name"`   // empty selects the system default
	WAVPath        string `json:"wav_path" mapstructure:"wav_path"`
	Loop           bool   `json:"loop" mapstructure:"loop"`
	SampleRate     int    `json:"sample_rate" mapstructure:"sample_rate"`
	Channels       int    `json:"channels" mapstructure:"channels"`
	FrameCount     int    `json:"frame_count" mapstructure:"frame_count"`
	FastFrameCount int    `json:"fast_frame_count" mapstructure:"fast_frame_count"`
	SlowFrameCount int    `json:"slow_frame_count" mapstructure:"slow_frame_count"` // used when fast mode is switched back off
	FastMode       bool   `json:"fast_mode" mapstructure:"fast_mode"`
}

type AnalysisConfig struct {
	Bands           int           `json:"bands" mapstructure:"bands"`
	MaxBandHeight   int           `json:"max_band_height" mapstructure:"max_band_height"`
	RefreshInterval time.Duration `json:"refresh_interval" mapstructure:"refresh_interval"`
}

// flagKeys maps config keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"log_level":                 "log-level",
	"audio.source":              "source",
	"audio.device_name":         "device",
	"audio.wav_path":            "wav",
	"audio.loop":                "loop",
	"audio.sample_rate":         "rate",
	"audio.channels":            "channels",
	"audio.frame_count":         "frames",
	"audio.fast_mode":           "fast",
	"analysis.bands":            "bands",
	"analysis.max_band_height":  "height",
	"analysis.refresh_interval": "interval",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("audio.source", SourcePortAudio)
	v.SetDefault("audio.device_name", "")
	v.SetDefault("audio.wav_path", "")
	v.SetDefault("audio.loop", true)
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.frame_count", 44100)
	v.SetDefault("audio.fast_frame_count", 4100)
	v.SetDefault("audio.slow_frame_count", 41000)
	v.SetDefault("audio.fast_mode", false)
	v.SetDefault("analysis.bands", 40)
	v.SetDefault("analysis.max_band_height", 20)
	v.SetDefault("analysis.refresh_interval", 10*time.Millisecond)
}

// Load builds the config from defaults, the JSON file at path (or the
// platform default when path is empty), FREQMON_* environment variables
// and any flags in flags that were set on the command line.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if path == "" {
		path = configPath()
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix("FREQMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Default returns the built-in configuration, not backed by any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults are static and always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Path returns the file the config was loaded from; empty for Default.
func (c *Config) Path() string {
	return c.path
}

// Save writes the config to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0644)
}

// ActiveFrameCount is the analysis window length for the current mode.
func (a AudioConfig) ActiveFrameCount() int {
	if a.FastMode {
		return a.FastFrameCount
	}
	return a.FrameCount
}

// StreamConfig returns the capture parameters for deviceIndex.
func (c *Config) StreamConfig(deviceIndex int) audio.StreamConfig {
	return audio.StreamConfig{
		SampleRate:  c.Audio.SampleRate,
		Channels:    c.Audio.Channels,
		FrameCount:  c.Audio.ActiveFrameCount(),
		DeviceIndex: deviceIndex,
	}
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "freqmon", "config.json")
}

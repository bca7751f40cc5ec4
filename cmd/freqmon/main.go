package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/freqmon/internal/audio"
	"github.com/petems/freqmon/internal/config"
	"github.com/petems/freqmon/internal/logging"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

var (
	configFile string
	logLevel   string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "freqmon",
	Short:         "Live audio spectrum and dominant frequency monitor",
	Version:       fmt.Sprintf("%s (%s)", Version, Commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log = logging.NewWithLevel(cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is the platform config dir, freqmon/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error, none)")
	rootCmd.PersistentFlags().String("source", config.SourcePortAudio,
		"capture source (portaudio, wav)")
	rootCmd.PersistentFlags().String("wav", "",
		"WAV file replayed when --source=wav")
	rootCmd.PersistentFlags().Bool("loop", true,
		"loop the WAV file instead of failing at its end")

	rootCmd.AddCommand(devicesCmd, monitorCmd, toneCmd)
}

// openDriver returns the capture driver selected by the config.
func openDriver() (audio.Driver, error) {
	switch cfg.Audio.Source {
	case config.SourcePortAudio:
		return audio.NewPortAudio(log)
	case config.SourceWAV:
		if cfg.Audio.WAVPath == "" {
			return nil, fmt.Errorf("--wav is required with --source=wav")
		}
		return audio.NewWAVDriver(cfg.Audio.WAVPath, cfg.Audio.Loop, log)
	default:
		return nil, fmt.Errorf("unknown capture source %q", cfg.Audio.Source)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

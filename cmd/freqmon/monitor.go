package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/petems/freqmon/internal/app"
	"github.com/petems/freqmon/internal/config"
	"github.com/petems/freqmon/internal/permissions"
)

var printEvery time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Capture audio and print the dominant frequency and band levels",
	RunE:  runMonitor,
}

func init() {
	f := monitorCmd.Flags()
	f.String("device", "", "input device name (default: system default)")
	f.Int("rate", 44100, "sample rate in Hz")
	f.Int("channels", 1, "input channels, downmixed to mono")
	f.Int("frames", 44100, "samples per analysis window")
	f.Bool("fast", false, "use the short analysis window")
	f.Int("bands", 40, "number of display bands")
	f.Int("height", 20, "maximum band height")
	f.Duration("interval", 10*time.Millisecond, "analysis tick interval")
	f.DurationVar(&printEvery, "print-every", 100*time.Millisecond, "minimum time between printed frames")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if cfg.Audio.Source == config.SourcePortAudio {
		// macOS requires explicit microphone approval before capture works
		if err := permissions.EnsureMicrophone(); err != nil {
			return err
		}
	}

	driver, err := openDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	application := app.New(app.Config{
		Driver:   driver,
		Config:   cfg,
		Logger:   log,
		Renderer: newTerminalRenderer(cmd.OutOrStdout(), printEvery, cfg.Analysis.MaxBandHeight),
	})

	log.Info().
		Str("version", Version).
		Str("source", cfg.Audio.Source).
		Bool("fast", cfg.Audio.FastMode).
		Msg("freqmon starting...")

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return application.Run(ctx)
	})
	g.Go(func() error {
		if err := application.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

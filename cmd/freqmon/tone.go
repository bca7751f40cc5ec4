package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petems/freqmon/internal/audio"
)

var (
	toneFreq    float64
	toneRate    int
	toneSeconds float64
	toneOut     string
)

var toneCmd = &cobra.Command{
	Use:   "tone",
	Short: "Write a sine test tone to a WAV file for --source=wav",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := int(toneSeconds * float64(toneRate))
		if n <= 0 {
			return fmt.Errorf("tone must be at least one sample long")
		}
		if err := audio.WriteWAV(toneOut, toneRate, 1, audio.Tone(toneFreq, toneRate, n, 16000)); err != nil {
			return err
		}
		log.Info().Str("file", toneOut).Float64("freq", toneFreq).Int("samples", n).Msg("Tone written")
		return nil
	},
}

func init() {
	toneCmd.Flags().Float64Var(&toneFreq, "freq", 1000, "tone frequency in Hz")
	toneCmd.Flags().IntVar(&toneRate, "rate", 44100, "sample rate in Hz")
	toneCmd.Flags().Float64Var(&toneSeconds, "seconds", 5, "duration")
	toneCmd.Flags().StringVarP(&toneOut, "out", "o", "tone.wav", "output file")
}

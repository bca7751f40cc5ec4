package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petems/freqmon/internal/audio"
)

var devicesAll bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := openDriver()
		if err != nil {
			return err
		}
		defer driver.Close()

		catalog := audio.NewCatalog(driver, log)
		var devices []audio.DeviceDescriptor
		if devicesAll {
			devices, err = catalog.ListAllDevices()
		} else {
			devices, err = catalog.ListInputDevices()
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tINDEX\tNAME\tIN\tOUT\tRATE\tHOST API")
		for _, d := range devices {
			marker := ""
			if d.Default {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%.0f\t%s\n",
				marker, d.Index, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate, d.HostAPI)
		}
		return w.Flush()
	},
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesAll, "all", false, "include output-only devices")
}

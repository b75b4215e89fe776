package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ptz-cli/pkg/onvif"
	"ptz-cli/pkg/sunapi"
	"ptz-cli/pkg/vapix"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the camera reports about itself",
	Long: `ONVIF cameras report manufacturer/model/firmware, VAPIX cameras
their supported PTZ commands, SUNAPI cameras their attribute catalogue.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		switch c := ctrl.(type) {
		case *onvif.Client:
			info, err := c.DeviceInformation(ctx)
			if err != nil {
				fmt.Printf("Error fetching device information: %v\n", err)
				os.Exit(1)
			}
			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(info); err != nil {
					fmt.Printf("Error encoding JSON: %v\n", err)
					os.Exit(1)
				}
				return
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "Manufacturer:\t%s\n", info.Manufacturer)
			fmt.Fprintf(w, "Model:\t%s\n", info.Model)
			fmt.Fprintf(w, "Firmware:\t%s\n", info.FirmwareVersion)
			fmt.Fprintf(w, "Serial:\t%s\n", info.SerialNumber)
			fmt.Fprintf(w, "Hardware:\t%s\n", info.HardwareID)
			w.Flush()
		case *vapix.Client:
			info, err := c.CommandInfo(ctx)
			if err != nil {
				fmt.Printf("Error fetching command info: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(info)
		case *sunapi.Client:
			attrs, err := c.Attributes(ctx)
			if err != nil {
				fmt.Printf("Error fetching attributes: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(attrs)
		default:
			fmt.Println("Error: this backend does not report device information.")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

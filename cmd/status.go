package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the camera's current pan/tilt/zoom position",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		pos, err := ctrl.Status(ctx)
		if err != nil {
			fmt.Printf("Error fetching PTZ status: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(map[string]float64{
				"pan":  pos.Pan,
				"tilt": pos.Tilt,
				"zoom": pos.Zoom,
			}); err != nil {
				fmt.Printf("Error encoding JSON: %v\n", err)
				os.Exit(1)
			}
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PAN\tTILT\tZOOM")
		fmt.Fprintln(w, "---\t----\t----")
		fmt.Fprintf(w, "%.2f\t%.2f\t%.2f\n", pos.Pan, pos.Tilt, pos.Zoom)
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

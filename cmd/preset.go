package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ptz-cli/pkg/ptz"
)

// Variables to hold flag values
var (
	presetToken string
	presetName  string
)

// Parent Command
var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage camera presets",
	Long:  `List, recall, store and remove camera-stored preset positions.`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored presets",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		lister, ok := ctrl.(ptz.PresetLister)
		if !ok {
			fmt.Println("Error: this backend does not support listing presets.")
			os.Exit(1)
		}

		presets, err := lister.Presets(ctx)
		if err != nil {
			fmt.Printf("Error fetching presets: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(presets); err != nil {
				fmt.Printf("Error encoding JSON: %v\n", err)
				os.Exit(1)
			}
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tNAME")
		fmt.Fprintln(w, "-----\t----")
		for _, p := range presets {
			fmt.Fprintf(w, "%s\t%s\n", p.Token, p.Name)
		}
		w.Flush()
	},
}

var presetGotoCmd = &cobra.Command{
	Use:     "goto",
	Short:   "Recall a stored preset",
	Example: `  ptz-cli preset goto --token 3`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		if err := ctrl.GotoPreset(ctx, presetToken); err != nil {
			fmt.Printf("Error recalling preset: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Preset recalled.")
	},
}

var presetSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Store the current position as a preset",
	Example: `  ptz-cli preset set --name entrance`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		store, ok := ctrl.(ptz.PresetStore)
		if !ok {
			fmt.Println("Error: this backend does not support storing presets.")
			os.Exit(1)
		}
		if err := store.SetPreset(ctx, presetName); err != nil {
			fmt.Printf("Error storing preset: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Preset '%s' stored.\n", presetName)
	},
}

var presetRemoveCmd = &cobra.Command{
	Use:     "remove",
	Short:   "Remove a stored preset",
	Example: `  ptz-cli preset remove --name entrance`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		store, ok := ctrl.(ptz.PresetStore)
		if !ok {
			fmt.Println("Error: this backend does not support removing presets.")
			os.Exit(1)
		}
		if err := store.RemovePreset(ctx, presetName); err != nil {
			fmt.Printf("Error removing preset: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Preset '%s' removed.\n", presetName)
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)

	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetGotoCmd)
	presetCmd.AddCommand(presetSetCmd)
	presetCmd.AddCommand(presetRemoveCmd)

	presetGotoCmd.Flags().StringVar(&presetToken, "token", "", "Preset token, number or name")
	_ = presetGotoCmd.MarkFlagRequired("token")

	presetSetCmd.Flags().StringVar(&presetName, "name", "", "Preset name")
	_ = presetSetCmd.MarkFlagRequired("name")

	presetRemoveCmd.Flags().StringVar(&presetName, "name", "", "Preset name")
	_ = presetRemoveCmd.MarkFlagRequired("name")
}

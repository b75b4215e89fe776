package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ptz-cli/pkg/onvif"
	"ptz-cli/pkg/ptz"
	"ptz-cli/pkg/sunapi"
	"ptz-cli/pkg/vapix"
)

// Variables to hold flag values
var (
	movePan   float64
	moveTilt  float64
	moveZoom  float64
	moveSpeed float64
)

// relativeMover is implemented by every backend; it is not part of the
// Controller interface because relative semantics are the least uniform
// across vendors.
type relativeMover interface {
	RelativeMove(ctx context.Context, rel ptz.Vector) error
}

// Parent Command
var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move the camera",
	Long:  `Absolute, relative and continuous movement, plus stop and home.`,
}

var moveAbsoluteCmd = &cobra.Command{
	Use:   "absolute",
	Short: "Move to an absolute position",
	Long: `Drives the camera to a position in the device's native ranges
(degrees for VAPIX/SUNAPI pan and tilt, normalized for most ONVIF devices).`,
	Example: `  ptz-cli move absolute --pan 90 --tilt -10 --zoom 2 --speed 0.5`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		pos := ptz.Vector{Pan: movePan, Tilt: moveTilt, Zoom: moveZoom}
		if err := ctrl.AbsoluteMove(ctx, pos, moveSpeed); err != nil {
			fmt.Printf("Error moving camera: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Move command sent.")
	},
}

var moveContinuousCmd = &cobra.Command{
	Use:     "continuous",
	Short:   "Start moving at a velocity",
	Long:    `Velocity components are normalized to [-1, 1]. Stop with 'ptz-cli move stop'.`,
	Example: `  ptz-cli move continuous --pan 0.5 --tilt 0 --zoom -0.2`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		speed := ptz.Vector{Pan: movePan, Tilt: moveTilt, Zoom: moveZoom}
		if err := ctrl.ContinuousMove(ctx, speed); err != nil {
			fmt.Printf("Error moving camera: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Continuous move started. Run 'ptz-cli move stop' to halt.")
	},
}

var moveRelativeCmd = &cobra.Command{
	Use:     "relative",
	Short:   "Move relative to the current position",
	Example: `  ptz-cli move relative --pan 10 --tilt -5`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		mover, ok := ctrl.(relativeMover)
		if !ok {
			fmt.Println("Error: this backend does not support relative moves.")
			os.Exit(1)
		}
		rel := ptz.Vector{Pan: movePan, Tilt: moveTilt, Zoom: moveZoom}
		if err := mover.RelativeMove(ctx, rel); err != nil {
			fmt.Printf("Error moving camera: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Move command sent.")
	},
}

var moveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop all ongoing movement",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		if err := ctrl.Stop(ctx); err != nil {
			fmt.Printf("Error stopping camera: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Stopped.")
	},
}

var moveHomeCmd = &cobra.Command{
	Use:   "home",
	Short: "Move to the home position",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := setupController(ctx)
		defer ctrl.Close()

		var err error
		switch c := ctrl.(type) {
		case *onvif.Client:
			err = c.GotoHomePosition(ctx)
		case *vapix.Client:
			err = c.GoHome(ctx)
		case *sunapi.Client:
			err = c.GoHome(ctx)
		default:
			fmt.Println("Error: this backend does not support a home position.")
			os.Exit(1)
		}
		if err != nil {
			fmt.Printf("Error moving camera: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Move command sent.")
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)

	moveCmd.AddCommand(moveAbsoluteCmd)
	moveCmd.AddCommand(moveContinuousCmd)
	moveCmd.AddCommand(moveRelativeCmd)
	moveCmd.AddCommand(moveStopCmd)
	moveCmd.AddCommand(moveHomeCmd)

	for _, sub := range []*cobra.Command{moveAbsoluteCmd, moveContinuousCmd, moveRelativeCmd} {
		sub.Flags().Float64Var(&movePan, "pan", 0, "Pan component")
		sub.Flags().Float64Var(&moveTilt, "tilt", 0, "Tilt component")
		sub.Flags().Float64Var(&moveZoom, "zoom", 0, "Zoom component")
	}
	moveAbsoluteCmd.Flags().Float64Var(&moveSpeed, "speed", 0, "Move speed, normalized [0,1] (0 = device default)")
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ptz-cli/internal/config"
	"ptz-cli/pkg/onvif"
	"ptz-cli/pkg/ptz"
	"ptz-cli/pkg/sunapi"
	"ptz-cli/pkg/vapix"
)

var cfgFile string
var jsonOutput bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ptz-cli",
	Short: "A CLI for controlling PTZ cameras",
	Long: `Control pan-tilt-zoom cameras over ONVIF (SOAP), Axis VAPIX or
Hanwha SUNAPI from one command set.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ptz-cli.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

// newController builds the backend client for a camera block. The ONVIF
// backend dials during construction; the HTTP backends do not.
func newController(ctx context.Context, cam config.Camera) (ptz.Controller, error) {
	switch cam.Protocol {
	case "onvif":
		return onvif.NewClient(ctx, onvif.Config{
			Host:         cam.Host,
			Port:         cam.Port,
			Username:     cam.Username,
			Password:     cam.Password,
			ProfileToken: cam.ProfileToken,
			Timeout:      cam.Timeout(),
			InsecureTLS:  cam.InsecureTLS,
		})
	case "vapix":
		return vapix.New(vapix.Config{
			Host:        cam.Host,
			Port:        cam.Port,
			Username:    cam.Username,
			Password:    cam.Password,
			Auth:        cam.Auth,
			Camera:      cam.Head,
			Timeout:     cam.Timeout(),
			InsecureTLS: cam.InsecureTLS,
			RetryCount:  cam.RetryCount,
		}), nil
	case "sunapi":
		return sunapi.New(sunapi.Config{
			Host:        cam.Host,
			Port:        cam.Port,
			Username:    cam.Username,
			Password:    cam.Password,
			Auth:        cam.Auth,
			Channel:     cam.Channel,
			Timeout:     cam.Timeout(),
			InsecureTLS: cam.InsecureTLS,
			RetryCount:  cam.RetryCount,
		}), nil
	default:
		return nil, fmt.Errorf("unknown protocol %q: want onvif, vapix or sunapi", cam.Protocol)
	}
}

// setupController loads the saved camera and connects to it, exiting with a
// message when no camera has been configured yet.
func setupController(ctx context.Context) ptz.Controller {
	cam, err := config.LoadCamera()
	if err != nil {
		fmt.Println("Error: no camera configured. Please run 'ptz-cli connect' first.")
		os.Exit(1)
	}

	ctrl, err := newController(ctx, cam)
	if err != nil {
		fmt.Printf("Error connecting to camera: %v\n", err)
		os.Exit(1)
	}
	return ctrl
}

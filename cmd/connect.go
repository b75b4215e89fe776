package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"ptz-cli/internal/config"
)

// Variables to hold flag values
var (
	protocol     string
	host         string
	port         int
	user         string
	pass         string
	authScheme   string
	profileToken string
	head         int
	channel      int
	timeoutSecs  int
	insecureTLS  bool
	retryCount   int
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Configure and verify the camera connection",
	Long: `Verifies the camera is reachable with the given protocol and
credentials, then saves the connection settings locally for future commands.

Example:
  ptz-cli connect --protocol onvif --host 192.168.1.50 --port 8080 --username admin --password pass
  ptz-cli connect --protocol vapix --host 192.168.1.60 --username root --password pass --auth digest`,
	Run: func(cmd *cobra.Command, args []string) {
		cam := config.Camera{
			Protocol:       protocol,
			Host:           host,
			Port:           port,
			Username:       user,
			Password:       pass,
			Auth:           authScheme,
			ProfileToken:   profileToken,
			Head:           head,
			Channel:        channel,
			TimeoutSeconds: timeoutSecs,
			InsecureTLS:    insecureTLS,
			RetryCount:     retryCount,
		}

		fmt.Printf("Connecting to %s camera at %s as user '%s'...\n", protocol, host, user)

		ctx := context.Background()
		ctrl, err := newController(ctx, cam)
		if err != nil {
			log.Fatalf("Fatal: connection failed: %v", err)
		}
		defer ctrl.Close()

		// A status query proves the credentials and the PTZ surface work
		// before anything gets saved.
		pos, err := ctrl.Status(ctx)
		if err != nil {
			log.Fatalf("Fatal: camera reachable but PTZ status query failed: %v", err)
		}
		fmt.Printf("Connected. Current position: pan=%.2f tilt=%.2f zoom=%.2f\n", pos.Pan, pos.Tilt, pos.Zoom)

		if err := config.SaveCamera(cam); err != nil {
			log.Fatalf("Failed to save configuration file: %v", err)
		}
		fmt.Println("Camera saved. You can now run commands like 'ptz-cli status'.")
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().StringVar(&protocol, "protocol", "", "Camera protocol: onvif, vapix or sunapi")
	connectCmd.Flags().StringVar(&host, "host", "", "Camera hostname or IP address")
	connectCmd.Flags().IntVar(&port, "port", 0, "Camera port (default 80)")
	connectCmd.Flags().StringVarP(&user, "username", "u", "admin", "Camera username")
	connectCmd.Flags().StringVarP(&pass, "password", "p", "", "Camera password")
	connectCmd.Flags().StringVar(&authScheme, "auth", "digest", "HTTP auth scheme for vapix/sunapi: basic or digest")
	connectCmd.Flags().StringVar(&profileToken, "profile-token", "", "ONVIF media profile token (default: first profile)")
	connectCmd.Flags().IntVar(&head, "head", 0, "VAPIX camera head number (default 1)")
	connectCmd.Flags().IntVar(&channel, "channel", 0, "SUNAPI video channel")
	connectCmd.Flags().IntVar(&timeoutSecs, "timeout", 10, "Request timeout in seconds")
	connectCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "Skip TLS certificate verification")
	connectCmd.Flags().IntVar(&retryCount, "retry", 0, "Retry count for failed requests (vapix/sunapi)")

	_ = connectCmd.MarkFlagRequired("protocol")
	_ = connectCmd.MarkFlagRequired("host")
	_ = connectCmd.MarkFlagRequired("password")
}

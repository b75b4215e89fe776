// Package config loads and saves the CLI's camera configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Camera is the persisted connection block for the configured camera.
type Camera struct {
	Protocol string `mapstructure:"protocol"` // onvif, vapix or sunapi
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Auth     string `mapstructure:"auth"` // basic or digest (HTTP backends)

	// ProfileToken pins the ONVIF media profile; empty uses the first one.
	ProfileToken string `mapstructure:"profile_token"`
	// Head selects the VAPIX camera head on multi-head devices.
	Head int `mapstructure:"head"`
	// Channel selects the SUNAPI video channel.
	Channel int `mapstructure:"channel"`

	TimeoutSeconds int  `mapstructure:"timeout_seconds"`
	InsecureTLS    bool `mapstructure:"insecure_tls"`
	RetryCount     int  `mapstructure:"retry_count"`
}

// Timeout returns the configured request timeout, zero meaning the
// transport default.
func (c Camera) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InitConfig reads in the config file and matching ENV variables.
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ptz-cli")
	}

	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// LoadCamera returns the saved camera block. An empty protocol means no
// camera has been configured yet.
func LoadCamera() (Camera, error) {
	var cam Camera
	if err := viper.UnmarshalKey("camera", &cam); err != nil {
		return Camera{}, fmt.Errorf("failed to parse camera configuration: %w", err)
	}
	if cam.Protocol == "" {
		return Camera{}, errors.New("no camera configured")
	}
	return cam, nil
}

// SaveCamera writes the camera block to the config file, creating the file
// if it does not exist yet.
func SaveCamera(cam Camera) error {
	viper.Set("camera.protocol", cam.Protocol)
	viper.Set("camera.host", cam.Host)
	viper.Set("camera.port", cam.Port)
	viper.Set("camera.username", cam.Username)
	viper.Set("camera.password", cam.Password)
	viper.Set("camera.auth", cam.Auth)
	viper.Set("camera.profile_token", cam.ProfileToken)
	viper.Set("camera.head", cam.Head)
	viper.Set("camera.channel", cam.Channel)
	viper.Set("camera.timeout_seconds", cam.TimeoutSeconds)
	viper.Set("camera.insecure_tls", cam.InsecureTLS)
	viper.Set("camera.retry_count", cam.RetryCount)

	if err := viper.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return viper.SafeWriteConfig()
		}
		home, _ := os.UserHomeDir()
		path := filepath.Join(home, ".ptz-cli.yaml")
		return viper.WriteConfigAs(path)
	}
	return nil
}

// Package onvif controls PTZ cameras over the ONVIF SOAP services.
package onvif

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"

	"ptz-cli/internal/soap"
	"ptz-cli/pkg/ptz"
)

// xmlns maps the schema prefixes used in request bodies.
var xmlns = map[string]string{
	"onvif": "http://www.onvif.org/ver10/schema",
	"tds":   "http://www.onvif.org/ver10/device/wsdl",
	"trt":   "http://www.onvif.org/ver10/media/wsdl",
	"tptz":  "http://www.onvif.org/ver20/ptz/wsdl",
}

// Config holds the connection settings for an ONVIF camera.
type Config struct {
	Host     string
	Port     int // 0 means 80
	Username string
	Password string

	// ProfileToken selects the media profile to control. Empty selects the
	// device's first profile during connection.
	ProfileToken string

	Timeout     time.Duration
	InsecureTLS bool

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

func (cfg Config) xaddr() string {
	port := cfg.Port
	if port == 0 {
		port = 80
	}
	return fmt.Sprintf("http://%s:%d/onvif/device_service", cfg.Host, port)
}

// Client is an ONVIF PTZ session bound to one camera and one media profile.
// It is not safe for concurrent use.
type Client struct {
	http         *http.Client
	username     string
	password     string
	endpoints    map[string]string
	profileToken ReferenceToken
}

// NewClient connects to the camera: it discovers the media and PTZ service
// endpoints via GetCapabilities and selects a media profile. An unreachable
// device fails here, not on the first operation.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: cfg.InsecureTLS, //nolint:gosec
				},
			},
		}
	}

	c := &Client{
		http:      httpClient,
		username:  cfg.Username,
		password:  cfg.Password,
		endpoints: map[string]string{"device": cfg.xaddr()},
	}

	data, err := c.call(ctx, c.endpoints["device"], getCapabilities{Category: "All"})
	if err != nil {
		return nil, fmt.Errorf("failed to get device capabilities: %w", err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse capabilities response: %w", err)
	}
	for _, path := range []string{
		"./Envelope/Body/GetCapabilitiesResponse/Capabilities/*/XAddr",
		"./Envelope/Body/GetCapabilitiesResponse/Capabilities/Extension/*/XAddr",
	} {
		for _, el := range doc.FindElements(path) {
			c.endpoints[strings.ToLower(el.Parent().Tag)] = el.Text()
		}
	}
	if c.endpoints["media"] == "" || c.endpoints["ptz"] == "" {
		return nil, errors.New("device does not expose media and ptz services")
	}

	if cfg.ProfileToken != "" {
		c.profileToken = ReferenceToken(cfg.ProfileToken)
		return c, nil
	}

	body, err := c.call(ctx, c.endpoints["media"], getProfiles{})
	if err != nil {
		return nil, fmt.Errorf("failed to get media profiles: %w", err)
	}
	var profiles getProfilesEnvelope
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("failed to decode media profiles response: %w", err)
	}
	if len(profiles.Body.GetProfilesResponse.Profiles) == 0 {
		return nil, errors.New("no media profiles found")
	}
	c.profileToken = profiles.Body.GetProfilesResponse.Profiles[0].Token

	return c, nil
}

// ProfileToken returns the media profile the session controls.
func (c *Client) ProfileToken() string {
	return string(c.profileToken)
}

// Status returns the current pan/tilt position and zoom level, as reported
// by the device in its native coordinate spaces.
func (c *Client) Status(ctx context.Context) (ptz.Vector, error) {
	var zero ptz.Vector
	body, err := c.callPTZ(ctx, getStatus{ProfileToken: c.profileToken})
	if err != nil {
		return zero, err
	}
	var resp getStatusEnvelope
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&resp); err != nil {
		return zero, fmt.Errorf("failed to decode PTZ status response: %w", err)
	}
	pos := resp.Body.GetStatusResponse.PTZStatus.Position
	return ptz.Vector{Pan: pos.PanTilt.X, Tilt: pos.PanTilt.Y, Zoom: pos.Zoom.X}, nil
}

// ContinuousMove starts moving at the given velocity. Components are
// normalized to [-1, 1], which is also ONVIF's native velocity space.
func (c *Client) ContinuousMove(ctx context.Context, speed ptz.Vector) error {
	_, err := c.callPTZ(ctx, continuousMove{
		ProfileToken: c.profileToken,
		Velocity: PTZSpeed{
			PanTilt: Vector2D{X: ptz.Clamp(speed.Pan, -1, 1), Y: ptz.Clamp(speed.Tilt, -1, 1)},
			Zoom:    Vector1D{X: ptz.Clamp(speed.Zoom, -1, 1)},
		},
	})
	return err
}

// AbsoluteMove drives the camera to pos in the device's native coordinate
// spaces. A speed of 0 leaves the move speed to the device default.
func (c *Client) AbsoluteMove(ctx context.Context, pos ptz.Vector, speed float64) error {
	req := absoluteMove{
		ProfileToken: c.profileToken,
		Position: PTZVector{
			PanTilt: Vector2D{X: pos.Pan, Y: pos.Tilt},
			Zoom:    Vector1D{X: pos.Zoom},
		},
	}
	if speed > 0 {
		s := ptz.Clamp(speed, 0, 1)
		req.Speed = &PTZSpeed{PanTilt: Vector2D{X: s, Y: s}, Zoom: Vector1D{X: s}}
	}
	_, err := c.callPTZ(ctx, req)
	return err
}

// RelativeMove translates the camera by the given amount relative to its
// current position.
func (c *Client) RelativeMove(ctx context.Context, translation ptz.Vector) error {
	_, err := c.callPTZ(ctx, relativeMove{
		ProfileToken: c.profileToken,
		Translation: PTZVector{
			PanTilt: Vector2D{X: translation.Pan, Y: translation.Tilt},
			Zoom:    Vector1D{X: translation.Zoom},
		},
	})
	return err
}

// Stop halts pan, tilt and zoom movement. It issues a single Stop request
// and succeeds regardless of whether the camera was moving.
func (c *Client) Stop(ctx context.Context) error {
	_, err := c.callPTZ(ctx, stop{ProfileToken: c.profileToken, PanTilt: true, Zoom: true})
	return err
}

// GotoHomePosition recalls the device home position.
func (c *Client) GotoHomePosition(ctx context.Context) error {
	_, err := c.callPTZ(ctx, gotoHomePosition{ProfileToken: c.profileToken})
	return err
}

// SetHomePosition stores the current position as the home position.
func (c *Client) SetHomePosition(ctx context.Context) error {
	_, err := c.callPTZ(ctx, setHomePosition{ProfileToken: c.profileToken})
	return err
}

// Presets lists the presets stored on the device.
func (c *Client) Presets(ctx context.Context) ([]ptz.PresetInfo, error) {
	body, err := c.callPTZ(ctx, getPresets{ProfileToken: c.profileToken})
	if err != nil {
		return nil, err
	}
	var resp getPresetsEnvelope
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode presets response: %w", err)
	}
	presets := make([]ptz.PresetInfo, 0, len(resp.Body.GetPresetsResponse.Presets))
	for _, p := range resp.Body.GetPresetsResponse.Presets {
		presets = append(presets, ptz.PresetInfo{Token: string(p.Token), Name: p.Name})
	}
	return presets, nil
}

// GotoPreset recalls a stored preset. The token may be either the device's
// preset token or the preset name; names are resolved against the preset
// list first.
func (c *Client) GotoPreset(ctx context.Context, token string) error {
	resolved := ReferenceToken(token)
	if presets, err := c.Presets(ctx); err == nil {
		for _, p := range presets {
			if p.Name == token || p.Token == token {
				resolved = ReferenceToken(p.Token)
				break
			}
		}
	}
	_, err := c.callPTZ(ctx, gotoPreset{ProfileToken: c.profileToken, PresetToken: resolved})
	return err
}

// SetPreset stores the current position under the given name. Storing a
// name that already exists is a no-op.
func (c *Client) SetPreset(ctx context.Context, name string) error {
	presets, err := c.Presets(ctx)
	if err != nil {
		return err
	}
	for _, p := range presets {
		if p.Name == name {
			return nil
		}
	}
	_, err = c.callPTZ(ctx, setPreset{ProfileToken: c.profileToken, PresetName: name})
	return err
}

// RemovePreset deletes the preset with the given name.
func (c *Client) RemovePreset(ctx context.Context, name string) error {
	presets, err := c.Presets(ctx)
	if err != nil {
		return err
	}
	for _, p := range presets {
		if p.Name == name {
			_, err := c.callPTZ(ctx, removePreset{ProfileToken: c.profileToken, PresetToken: ReferenceToken(p.Token)})
			return err
		}
	}
	return fmt.Errorf("no preset named %q", name)
}

// DeviceInformation returns the camera's manufacturer, model and firmware.
func (c *Client) DeviceInformation(ctx context.Context) (DeviceInformation, error) {
	var zero DeviceInformation
	body, err := c.call(ctx, c.endpoints["device"], getDeviceInformation{})
	if err != nil {
		return zero, err
	}
	var resp getDeviceInformationEnvelope
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&resp); err != nil {
		return zero, fmt.Errorf("failed to decode device information response: %w", err)
	}
	return resp.Body.GetDeviceInformationResponse, nil
}

// Close releases idle transport connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) callPTZ(ctx context.Context, method interface{}) ([]byte, error) {
	return c.call(ctx, c.endpoints["ptz"], method)
}

func (c *Client) call(ctx context.Context, endpoint string, method interface{}) ([]byte, error) {
	env := soap.NewEnvelope()
	for prefix, uri := range xmlns {
		env.AddNamespace(prefix, uri)
	}
	if err := env.AddBodyContent(method); err != nil {
		return nil, err
	}
	if c.username != "" || c.password != "" {
		if err := env.AddWSSecurity(c.username, c.password); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(env.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		// SOAP faults arrive with a non-200 status; hand the body back
		// untranslated.
		return nil, fmt.Errorf("SOAP request to %s failed with status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

var _ ptz.Controller = (*Client)(nil)
var _ ptz.PresetStore = (*Client)(nil)

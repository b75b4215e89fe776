// Package vapix controls Axis PTZ cameras through the VAPIX ptz.cgi
// endpoint.
package vapix

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ptz-cli/internal/transport"
	"ptz-cli/pkg/ptz"
)

const ptzPath = "/axis-cgi/com/ptz.cgi"

// Config holds the connection settings for an Axis camera.
type Config struct {
	Host     string
	Port     int // 0 means 80
	Username string
	Password string

	// Auth selects transport.AuthBasic or transport.AuthDigest. Empty
	// means digest, the scheme Axis firmware defaults to.
	Auth string

	// Camera selects the camera head on multi-head devices. 0 means 1.
	Camera int

	Timeout     time.Duration
	InsecureTLS bool
	RetryCount  int
	RetryWait   time.Duration
}

func (cfg Config) baseURL() string {
	if cfg.Port > 0 {
		return fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	}
	return "http://" + cfg.Host
}

// Client is a VAPIX PTZ session for one camera. The constructor does not
// dial; an unreachable host surfaces on the first command. Not safe for
// concurrent use.
type Client struct {
	http   *resty.Client
	camera int
}

// New returns a client for the camera described by cfg.
func New(cfg Config) *Client {
	camera := cfg.Camera
	if camera == 0 {
		camera = 1
	}
	return &Client{
		http: transport.New(transport.Options{
			BaseURL:     cfg.baseURL(),
			Username:    cfg.Username,
			Password:    cfg.Password,
			Auth:        cfg.Auth,
			Timeout:     cfg.Timeout,
			InsecureTLS: cfg.InsecureTLS,
			RetryCount:  cfg.RetryCount,
			RetryWait:   cfg.RetryWait,
		}),
		camera: camera,
	}
}

// command issues one ptz.cgi request. Every command carries the camera
// head, html=no and a timestamp, matching what the Axis tooling sends.
func (c *Client) command(ctx context.Context, params map[string]string) (*resty.Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("camera", strconv.Itoa(c.camera)).
		SetQueryParam("html", "no").
		SetQueryParam("timestamp", strconv.FormatInt(time.Now().Unix(), 10)).
		SetQueryParams(params).
		Get(ptzPath)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ptz.cgi request failed: %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}
	return resp, nil
}

// AbsoluteMove pans and tilts to a position in degrees relative to (0,0)
// and zooms to the step given in pos.Zoom. Speed is normalized [0, 1] and
// translated to VAPIX's 1-100 head speed; 0 uses a moderate default.
func (c *Client) AbsoluteMove(ctx context.Context, pos ptz.Vector, speed float64) error {
	vapixSpeed := defaultSpeed
	if speed > 0 {
		vapixSpeed = int(ptz.Clamp(speed, 0, 1) * 100)
	}
	_, err := c.command(ctx, map[string]string{
		"pan":   formatFloat(pos.Pan),
		"tilt":  formatFloat(pos.Tilt),
		"zoom":  strconv.Itoa(int(pos.Zoom)),
		"speed": strconv.Itoa(vapixSpeed),
	})
	return err
}

// RelativeMove pans and tilts by rel degrees and zooms by rel.Zoom steps
// relative to the current position.
func (c *Client) RelativeMove(ctx context.Context, rel ptz.Vector) error {
	_, err := c.command(ctx, map[string]string{
		"rpan":  formatFloat(rel.Pan),
		"rtilt": formatFloat(rel.Tilt),
		"rzoom": strconv.Itoa(int(rel.Zoom)),
		"speed": strconv.Itoa(defaultSpeed),
	})
	return err
}

// ContinuousMove starts pan/tilt/zoom movement. Speed components are
// normalized [-1, 1] and translated to VAPIX's -100..100 range.
func (c *Client) ContinuousMove(ctx context.Context, speed ptz.Vector) error {
	pan := int(ptz.Clamp(speed.Pan, -1, 1) * 100)
	tilt := int(ptz.Clamp(speed.Tilt, -1, 1) * 100)
	zoom := int(ptz.Clamp(speed.Zoom, -1, 1) * 100)
	_, err := c.command(ctx, map[string]string{
		"continuouspantiltmove": fmt.Sprintf("%d,%d", pan, tilt),
		"continuouszoommove":    strconv.Itoa(zoom),
	})
	return err
}

// Stop halts ongoing movement of any type by zeroing the continuous speeds.
func (c *Client) Stop(ctx context.Context) error {
	return c.ContinuousMove(ctx, ptz.Vector{})
}

// CenterMove re-centers the view on the clicked image coordinates.
func (c *Client) CenterMove(ctx context.Context, x, y, speed int) error {
	_, err := c.command(ctx, map[string]string{
		"center": fmt.Sprintf("%d,%d", x, y),
		"speed":  strconv.Itoa(speed),
	})
	return err
}

// AreaZoom centers on x,y and zooms by a factor of zoom/100.
func (c *Client) AreaZoom(ctx context.Context, x, y, zoom, speed int) error {
	_, err := c.command(ctx, map[string]string{
		"areazoom": fmt.Sprintf("%d,%d,%d", x, y, zoom),
		"speed":    strconv.Itoa(speed),
	})
	return err
}

// Move steps the camera 5 degrees in a named direction (home, up, down,
// left, right, upleft, upright, downleft, downright).
func (c *Client) Move(ctx context.Context, direction string, speed int) error {
	_, err := c.command(ctx, map[string]string{
		"move":  direction,
		"speed": strconv.Itoa(speed),
	})
	return err
}

// GoHome drives the camera to its home position.
func (c *Client) GoHome(ctx context.Context) error {
	return c.Move(ctx, "home", defaultSpeed)
}

// Position queries the current pan/tilt position in degrees and the zoom
// step.
func (c *Client) Position(ctx context.Context) (ptz.Vector, error) {
	resp, err := c.command(ctx, map[string]string{"query": "position"})
	if err != nil {
		return ptz.Vector{}, err
	}
	return parsePosition(resp.String())
}

// GotoServerPresetName recalls the server preset with the given name.
func (c *Client) GotoServerPresetName(ctx context.Context, name string, speed int) error {
	_, err := c.command(ctx, map[string]string{
		"gotoserverpresetname": name,
		"speed":                strconv.Itoa(speed),
	})
	return err
}

// GotoServerPresetNumber recalls the server preset with the given number.
func (c *Client) GotoServerPresetNumber(ctx context.Context, number, speed int) error {
	_, err := c.command(ctx, map[string]string{
		"gotoserverpresetno": strconv.Itoa(number),
		"speed":              strconv.Itoa(speed),
	})
	return err
}

// GotoDevicePreset bypasses the server preset list and recalls a preset
// stored on the device itself.
func (c *Client) GotoDevicePreset(ctx context.Context, preset, speed int) error {
	_, err := c.command(ctx, map[string]string{
		"gotodevicepreset": strconv.Itoa(preset),
		"speed":            strconv.Itoa(speed),
	})
	return err
}

// Presets lists the server presets as number/name pairs.
func (c *Client) Presets(ctx context.Context) ([]ptz.PresetInfo, error) {
	resp, err := c.command(ctx, map[string]string{"query": "presetposall"})
	if err != nil {
		return nil, err
	}
	return parsePresets(resp.String()), nil
}

// DevicePresets returns the raw listing of presets stored on the device.
func (c *Client) DevicePresets(ctx context.Context) (string, error) {
	resp, err := c.command(ctx, map[string]string{"query": "presetposcam"})
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// SetSpeed sets the head speed used by subsequent moves.
func (c *Client) SetSpeed(ctx context.Context, speed int) error {
	_, err := c.command(ctx, map[string]string{"speed": strconv.Itoa(speed)})
	return err
}

// Speed queries the configured head speed.
func (c *Client) Speed(ctx context.Context) (int, error) {
	resp, err := c.command(ctx, map[string]string{"query": "speed"})
	if err != nil {
		return 0, err
	}
	fields := parseKeyValues(resp.String())
	val, ok := fields["speed"]
	if !ok {
		return 0, fmt.Errorf("speed response missing %q key: %q", "speed", resp.String())
	}
	speed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, fmt.Errorf("malformed speed value %q: %w", val, err)
	}
	return speed, nil
}

// CommandInfo returns the device's description of the PTZ commands it
// supports. No movement is performed.
func (c *Client) CommandInfo(ctx context.Context) (string, error) {
	resp, err := c.command(ctx, map[string]string{"info": "1"})
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// Close releases idle transport connections.
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

// Status implements ptz.Controller.
func (c *Client) Status(ctx context.Context) (ptz.Vector, error) {
	return c.Position(ctx)
}

// GotoPreset implements ptz.Controller. Numeric tokens recall server preset
// numbers, anything else is treated as a preset name.
func (c *Client) GotoPreset(ctx context.Context, token string) error {
	if number, err := strconv.Atoi(token); err == nil {
		return c.GotoServerPresetNumber(ctx, number, defaultSpeed)
	}
	return c.GotoServerPresetName(ctx, token, defaultSpeed)
}

const defaultSpeed = 50

func parseKeyValues(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Fields(body) {
		if key, val, ok := strings.Cut(line, "="); ok {
			fields[key] = val
		}
	}
	return fields
}

// parsePosition extracts pan, tilt and zoom from a key=value position
// response. A body missing any of the three keys is a parse error; the
// caller is never handed defaults.
func parsePosition(body string) (ptz.Vector, error) {
	var zero ptz.Vector
	fields := parseKeyValues(body)

	values := make(map[string]float64, 3)
	for _, key := range []string{"pan", "tilt", "zoom"} {
		raw, ok := fields[key]
		if !ok {
			return zero, fmt.Errorf("position response missing %q key: %q", key, body)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return zero, fmt.Errorf("malformed %s value %q: %w", key, raw, err)
		}
		values[key] = val
	}
	return ptz.Vector{Pan: values["pan"], Tilt: values["tilt"], Zoom: values["zoom"]}, nil
}

// parsePresets parses presetposno<N>=<name> lines.
func parsePresets(body string) []ptz.PresetInfo {
	var presets []ptz.PresetInfo
	for _, line := range strings.Split(body, "\n") {
		key, name, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || !strings.HasPrefix(key, "presetposno") {
			continue
		}
		presets = append(presets, ptz.PresetInfo{
			Token: strings.TrimPrefix(key, "presetposno"),
			Name:  strings.TrimRight(name, "\r"),
		})
	}
	return presets
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ ptz.Controller = (*Client)(nil)
var _ ptz.PresetLister = (*Client)(nil)

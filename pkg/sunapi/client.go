// Package sunapi controls Hanwha PTZ cameras through the SUNAPI
// stw-cgi endpoints.
package sunapi

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ptz-cli/internal/transport"
	"ptz-cli/pkg/ptz"
)

const (
	ptzControlCGI = "/stw-cgi/ptzcontrol.cgi"
	videoCGI      = "/stw-cgi/video.cgi"
	attributesCGI = "/stw-cgi/attributes.cgi"
	openSDKCGI    = "/stw-cgi/opensdk.cgi"
)

// Focus is a SUNAPI continuous focus command.
type Focus string

// Continuous focus commands accepted by the device.
const (
	FocusNear Focus = "Near"
	FocusFar  Focus = "Far"
	FocusStop Focus = "Stop"
)

// Config holds the connection settings for a Hanwha camera.
type Config struct {
	Host     string
	Port     int // 0 means 80
	Username string
	Password string

	// Auth selects transport.AuthBasic or transport.AuthDigest. Empty
	// means digest, which Hanwha firmware requires by default.
	Auth string

	// Channel selects the video channel on multi-channel devices.
	Channel int

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

// Position is the full PTZ position report, including the raw zoom pulse
// counter alongside the magnification.
type Position struct {
	Pan       float64 `json:"Pan"`
	Tilt      float64 `json:"Tilt"`
	Zoom      float64 `json:"Zoom"`
	ZoomPulse float64 `json:"ZoomPulse"`
}

// Client is a SUNAPI PTZ session for one camera. The constructor does not
// dial; an unreachable host surfaces on the first command. Not safe for
// concurrent use.
type Client struct {
	http    *resty.Client
	channel int
}

// New returns a client for the camera described by cfg.
func New(cfg Config) *Client {
	r := transport.New(transport.Options{
		BaseURL:     cfg.baseURL(),
		Username:    cfg.Username,
		Password:    cfg.Password,
		Auth:        cfg.Auth,
		Timeout:     cfg.Timeout,
		InsecureTLS: cfg.InsecureTLS,
		RetryCount:  cfg.RetryCount,
		RetryWait:   cfg.RetryWait,
	})
	r.SetHeader("Accept", "application/json")
	return &Client{http: r, channel: cfg.Channel}
}

// command issues one stw-cgi request. A non-nil result is decoded from the
// JSON response body.
func (c *Client) command(ctx context.Context, cgi string, params map[string]string, result interface{}) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx).SetQueryParams(params)
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Get(cgi)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s request failed: %s: %s", strings.TrimPrefix(cgi, "/stw-cgi/"), resp.Status(), strings.TrimSpace(resp.String()))
	}
	return resp, nil
}

func (c *Client) control(ctx context.Context, submenu string, params map[string]string) error {
	all := map[string]string{"msubmenu": submenu, "action": "control"}
	for k, v := range params {
		all[k] = v
	}
	if c.channel > 0 {
		all["Channel"] = strconv.Itoa(c.channel)
	}
	_, err := c.command(ctx, ptzControlCGI, all, nil)
	return err
}

// Position queries the current pan/tilt/zoom position, including the zoom
// pulse counter. A pan reading within 0.02 of 0 or 360 is reported as 0:
// cameras at the wrap-around point return either value for the same
// physical position.
func (c *Client) Position(ctx context.Context) (Position, error) {
	var pos Position
	params := map[string]string{
		"msubmenu": "query",
		"action":   "view",
		"Query":    "Pan,Tilt,Zoom",
	}
	if _, err := c.command(ctx, ptzControlCGI, params, &pos); err != nil {
		return Position{}, err
	}
	if pos.Pan < 0.02 || math.Abs(360-pos.Pan) < 0.02 {
		pos.Pan = 0
	}
	return pos, nil
}

// Status implements ptz.Controller, dropping the zoom pulse from the
// position report.
func (c *Client) Status(ctx context.Context) (ptz.Vector, error) {
	pos, err := c.Position(ctx)
	if err != nil {
		return ptz.Vector{}, err
	}
	return ptz.Vector{Pan: pos.Pan, Tilt: pos.Tilt, Zoom: pos.Zoom}, nil
}

// Stop halts pan, tilt and zoom movement of any type.
func (c *Client) Stop(ctx context.Context) error {
	return c.control(ctx, "stop", map[string]string{"OperationType": "All"})
}

// AbsoluteMove drives the camera to pan/tilt degrees and zoom
// magnification. SUNAPI absolute moves have no speed parameter; speed is
// ignored.
func (c *Client) AbsoluteMove(ctx context.Context, pos ptz.Vector, _ float64) error {
	return c.control(ctx, "absolute", map[string]string{
		"Pan":  formatFloat(pos.Pan),
		"Tilt": formatFloat(pos.Tilt),
		"Zoom": formatFloat(pos.Zoom),
	})
}

// RelativeMove translates the camera by rel degrees/steps from its current
// position, adjusting the deltas so the result stays inside the device's
// envelope: pan wraps the short way around 360, tilt is held to [-20, 90],
// zoom to [1, 40]. When the current pan reads 0 the device's relative
// handling is unreliable, so the adjusted deltas are sent as an absolute
// move instead.
func (c *Client) RelativeMove(ctx context.Context, rel ptz.Vector) error {
	current, err := c.Position(ctx)
	if err != nil {
		return err
	}

	pan := rel.Pan
	if current.Pan+pan > 360 {
		pan -= 360
	} else if current.Pan+pan < 0 {
		pan += 360
	}

	tilt := rel.Tilt
	if current.Tilt+tilt > 90 {
		tilt = 90 - current.Tilt
	} else if current.Tilt+tilt < -20 {
		tilt = -20 + math.Abs(current.Tilt)
	}

	zoom := rel.Zoom
	if current.Zoom+zoom > 40 {
		zoom = 40 - current.Zoom
	} else if current.Zoom+zoom < 1 {
		zoom = 1 - current.Zoom
	}

	submenu := "relative"
	if current.Pan == 0 {
		submenu = "absolute"
	}
	return c.control(ctx, submenu, map[string]string{
		"Pan":  formatFloat(pan),
		"Tilt": formatFloat(tilt),
		"Zoom": formatFloat(zoom),
	})
}

// ContinuousMove starts pan/tilt/zoom movement. Speed components are
// normalized [-1, 1] and translated to SUNAPI's -100..100 normalized speed
// range.
func (c *Client) ContinuousMove(ctx context.Context, speed ptz.Vector) error {
	return c.control(ctx, "continuous", map[string]string{
		"NormalizedSpeed": "True",
		"Pan":             strconv.Itoa(int(ptz.Clamp(speed.Pan, -1, 1) * 100)),
		"Tilt":            strconv.Itoa(int(ptz.Clamp(speed.Tilt, -1, 1) * 100)),
		"Zoom":            strconv.Itoa(int(ptz.Clamp(speed.Zoom, -1, 1) * 100)),
	})
}

// ContinuousFocus starts or stops a focus sweep. The device rejects focus
// combined with pan/tilt/zoom, so focus gets its own call.
func (c *Client) ContinuousFocus(ctx context.Context, focus Focus) error {
	switch focus {
	case FocusNear, FocusFar, FocusStop:
	default:
		return fmt.Errorf("invalid focus command %q: want Near, Far or Stop", focus)
	}
	return c.control(ctx, "continuous", map[string]string{"Focus": string(focus)})
}

// AreaZoom zooms onto the rectangle (x1,y1)-(x2,y2) given in tile pixel
// coordinates.
func (c *Client) AreaZoom(ctx context.Context, x1, y1, x2, y2, tileWidth, tileHeight int) error {
	return c.control(ctx, "areazoom", map[string]string{
		"X1":         strconv.Itoa(x1),
		"Y1":         strconv.Itoa(y1),
		"X2":         strconv.Itoa(x2),
		"Y2":         strconv.Itoa(y2),
		"TileWidth":  strconv.Itoa(tileWidth),
		"TileHeight": strconv.Itoa(tileHeight),
	})
}

// ZoomOut returns the lens to 1x magnification.
func (c *Client) ZoomOut(ctx context.Context) error {
	return c.control(ctx, "areazoom", map[string]string{"Type": "1x"})
}

// Move starts moving continuously in a named direction (Home, Up, Down,
// Left, Right, UpLeft, UpRight, DownLeft, DownRight).
func (c *Client) Move(ctx context.Context, direction string, speed float64) error {
	return c.control(ctx, "move", map[string]string{
		"Direction": direction,
		"MoveSpeed": formatFloat(speed),
	})
}

// GoHome drives the camera to its home position.
func (c *Client) GoHome(ctx context.Context) error {
	return c.control(ctx, "home", nil)
}

// GotoPresetNumber recalls the preset stored under the given number.
func (c *Client) GotoPresetNumber(ctx context.Context, preset int) error {
	return c.control(ctx, "preset", map[string]string{"Preset": strconv.Itoa(preset)})
}

// GotoPresetName recalls the preset stored under the given name.
func (c *Client) GotoPresetName(ctx context.Context, name string) error {
	return c.control(ctx, "preset", map[string]string{"PresetName": name})
}

// GotoPreset implements ptz.Controller. Numeric tokens are preset numbers,
// anything else is treated as a preset name.
func (c *Client) GotoPreset(ctx context.Context, token string) error {
	if number, err := strconv.Atoi(token); err == nil {
		return c.GotoPresetNumber(ctx, number)
	}
	return c.GotoPresetName(ctx, token)
}

// Aux triggers an auxiliary device command: WiperOn, HeaterOn or HeaterOff.
func (c *Client) Aux(ctx context.Context, command string) error {
	switch command {
	case "WiperOn", "HeaterOn", "HeaterOff":
	default:
		return fmt.Errorf("invalid aux command %q: want WiperOn, HeaterOn or HeaterOff", command)
	}
	return c.control(ctx, "aux", map[string]string{"Command": command})
}

// Swing sweeps between the two swing presets. Mode is one of Pan, Tilt,
// PanTilt or Stop.
func (c *Client) Swing(ctx context.Context, mode string) error {
	switch mode {
	case "Pan", "Tilt", "PanTilt", "Stop":
	default:
		return fmt.Errorf("invalid swing mode %q: want Pan, Tilt, PanTilt or Stop", mode)
	}
	return c.control(ctx, "swing", map[string]string{"Mode": mode})
}

// Group starts or stops a preset group sequence. Mode is Start or Stop.
func (c *Client) Group(ctx context.Context, group int, mode string) error {
	if err := validateStartStop("group", mode); err != nil {
		return err
	}
	return c.control(ctx, "group", map[string]string{
		"Group": strconv.Itoa(group),
		"Mode":  mode,
	})
}

// Tour starts or stops a tour of preset groups. Mode is Start or Stop.
func (c *Client) Tour(ctx context.Context, tour int, mode string) error {
	if err := validateStartStop("tour", mode); err != nil {
		return err
	}
	return c.control(ctx, "tour", map[string]string{
		"Tour": strconv.Itoa(tour),
		"Mode": mode,
	})
}

// Trace starts or stops playback of a recorded movement trace. Mode is
// Start or Stop.
func (c *Client) Trace(ctx context.Context, trace int, mode string) error {
	if err := validateStartStop("trace", mode); err != nil {
		return err
	}
	return c.control(ctx, "trace", map[string]string{
		"Trace": strconv.Itoa(trace),
		"Mode":  mode,
	})
}

// Attributes returns the device's CGI attribute catalogue.
func (c *Client) Attributes(ctx context.Context) (string, error) {
	resp, err := c.command(ctx, attributesCGI, nil, nil)
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// Applications lists the OpenSDK applications installed on the camera.
func (c *Client) Applications(ctx context.Context) (string, error) {
	params := map[string]string{"msubmenu": "apps", "action": "view"}
	resp, err := c.command(ctx, openSDKCGI, params, nil)
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// Snapshot returns a JPEG still from the camera.
func (c *Client) Snapshot(ctx context.Context) ([]byte, error) {
	params := map[string]string{"msubmenu": "snapshot", "action": "view"}
	resp, err := c.command(ctx, videoCGI, params, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("snapshot response body is empty")
	}
	return resp.Body(), nil
}

// Close releases idle transport connections.
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

func validateStartStop(op, mode string) error {
	if mode != "Start" && mode != "Stop" {
		return fmt.Errorf("invalid %s mode %q: want Start or Stop", op, mode)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ ptz.Controller = (*Client)(nil)

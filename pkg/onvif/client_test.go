package onvif

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptz-cli/pkg/ptz"
)

const capabilitiesXML = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
 <s:Body>
  <tds:GetCapabilitiesResponse xmlns:tds="http://www.onvif.org/ver10/device/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
   <tds:Capabilities>
    <tt:Device><tt:XAddr>%[1]s/onvif/device_service</tt:XAddr></tt:Device>
    <tt:Media><tt:XAddr>%[1]s/onvif/media_service</tt:XAddr></tt:Media>
    %[2]s
   </tds:Capabilities>
  </tds:GetCapabilitiesResponse>
 </s:Body>
</s:Envelope>`

const profilesXML = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
 <s:Body>
  <trt:GetProfilesResponse xmlns:trt="http://www.onvif.org/ver10/media/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
   <trt:Profiles token="Profile_1"><tt:Name>mainStream</tt:Name></trt:Profiles>
   <trt:Profiles token="Profile_2"><tt:Name>subStream</tt:Name></trt:Profiles>
  </trt:GetProfilesResponse>
 </s:Body>
</s:Envelope>`

const statusXML = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
 <s:Body>
  <tptz:GetStatusResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
   <tptz:PTZStatus>
    <tt:Position>
     <tt:PanTilt x="0.51" y="-0.3"/>
     <tt:Zoom x="0.25"/>
    </tt:Position>
    <tt:MoveStatus><tt:PanTilt>IDLE</tt:PanTilt><tt:Zoom>IDLE</tt:Zoom></tt:MoveStatus>
   </tptz:PTZStatus>
  </tptz:GetStatusResponse>
 </s:Body>
</s:Envelope>`

const presetsXML = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
 <s:Body>
  <tptz:GetPresetsResponse xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl" xmlns:tt="http://www.onvif.org/ver10/schema">
   <tptz:Preset token="P1"><tt:Name>lobby</tt:Name></tptz:Preset>
   <tptz:Preset token="P2"><tt:Name>gate</tt:Name></tptz:Preset>
  </tptz:GetPresetsResponse>
 </s:Body>
</s:Envelope>`

const deviceInfoXML = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
 <s:Body>
  <tds:GetDeviceInformationResponse xmlns:tds="http://www.onvif.org/ver10/device/wsdl">
   <tds:Manufacturer>Acme</tds:Manufacturer>
   <tds:Model>PT-1000</tds:Model>
   <tds:FirmwareVersion>2.4.1</tds:FirmwareVersion>
   <tds:SerialNumber>ABC123</tds:SerialNumber>
   <tds:HardwareId>HW-7</tds:HardwareId>
  </tds:GetDeviceInformationResponse>
 </s:Body>
</s:Envelope>`

const emptyResponseXML = `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Body/></s:Envelope>`

// fakeDevice answers canned SOAP responses and records every request body.
type fakeDevice struct {
	t        *testing.T
	baseURL  string
	omitPTZ  bool
	requests []string
}

func (d *fakeDevice) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(d.t, err)
	req := string(body)
	d.requests = append(d.requests, req)

	switch {
	case strings.Contains(req, "GetCapabilities"):
		ptzCap := fmt.Sprintf("<tt:PTZ><tt:XAddr>%s/onvif/ptz_service</tt:XAddr></tt:PTZ>", d.baseURL)
		if d.omitPTZ {
			ptzCap = ""
		}
		fmt.Fprintf(w, capabilitiesXML, d.baseURL, ptzCap)
	case strings.Contains(req, "GetProfiles"):
		io.WriteString(w, profilesXML)
	case strings.Contains(req, "tptz:GetStatus"):
		io.WriteString(w, statusXML)
	case strings.Contains(req, "GetPresets"):
		io.WriteString(w, presetsXML)
	case strings.Contains(req, "GetDeviceInformation"):
		io.WriteString(w, deviceInfoXML)
	default:
		io.WriteString(w, emptyResponseXML)
	}
}

func (d *fakeDevice) count(op string) int {
	n := 0
	for _, req := range d.requests {
		if strings.Contains(req, op) {
			n++
		}
	}
	return n
}

func startFakeDevice(t *testing.T) (*fakeDevice, Config) {
	t.Helper()
	device := &fakeDevice{t: t}
	srv := httptest.NewServer(device)
	t.Cleanup(srv.Close)
	device.baseURL = srv.URL

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return device, Config{Host: u.Hostname(), Port: port}
}

func TestNewClientDiscoversEndpointsAndProfile(t *testing.T) {
	device, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "Profile_1", c.ProfileToken())
	assert.Equal(t, 1, device.count("GetCapabilities"))
	assert.Equal(t, 1, device.count("GetProfiles"))
}

func TestNewClientHonorsConfiguredProfile(t *testing.T) {
	device, cfg := startFakeDevice(t)
	cfg.ProfileToken = "Profile_2"

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "Profile_2", c.ProfileToken())
	assert.Zero(t, device.count("GetProfiles"))
}

func TestNewClientRejectsDeviceWithoutPTZ(t *testing.T) {
	device, cfg := startFakeDevice(t)
	device.omitPTZ = true

	_, err := NewClient(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "media and ptz")
}

func TestNewClientUnreachableDevice(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Host: "127.0.0.1", Port: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capabilities")
}

func TestStatus(t *testing.T) {
	device, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	pos, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ptz.Vector{Pan: 0.51, Tilt: -0.3, Zoom: 0.25}, pos)

	last := device.requests[len(device.requests)-1]
	assert.Contains(t, last, "<tptz:ProfileToken>Profile_1</tptz:ProfileToken>")
}

func TestStopIssuesSingleRequest(t *testing.T) {
	device, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, 1, device.count("tptz:Stop"))

	last := device.requests[len(device.requests)-1]
	assert.Contains(t, last, "<tptz:PanTilt>true</tptz:PanTilt>")
	assert.Contains(t, last, "<tptz:Zoom>true</tptz:Zoom>")

	// Stopping an already idle camera is not an error.
	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, 2, device.count("tptz:Stop"))
}

func TestContinuousMoveClampsVelocity(t *testing.T) {
	device, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.ContinuousMove(context.Background(), ptz.Vector{Pan: 2, Tilt: -3, Zoom: 0.5}))
	last := device.requests[len(device.requests)-1]
	assert.Contains(t, last, `x="1" y="-1"`)
	assert.Contains(t, last, `x="0.5"`)
}

func TestAbsoluteMoveOmitsSpeedWhenZero(t *testing.T) {
	device, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.AbsoluteMove(context.Background(), ptz.Vector{Pan: 0.1, Tilt: 0.2, Zoom: 0.3}, 0))
	last := device.requests[len(device.requests)-1]
	assert.Contains(t, last, "tptz:Position")
	assert.NotContains(t, last, "tptz:Speed")

	require.NoError(t, c.AbsoluteMove(context.Background(), ptz.Vector{Pan: 0.1, Tilt: 0.2, Zoom: 0.3}, 0.5))
	last = device.requests[len(device.requests)-1]
	assert.Contains(t, last, "tptz:Speed")
}

func TestRequestsCarrySecurityHeader(t *testing.T) {
	device, cfg := startFakeDevice(t)
	cfg.Username = "admin"
	cfg.Password = "hunter2"

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	first := device.requests[0]
	assert.Contains(t, first, "UsernameToken")
	assert.Contains(t, first, "<Username>admin</Username>")
	assert.NotContains(t, first, "hunter2")
}

func TestGotoPresetResolvesName(t *testing.T) {
	device, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.GotoPreset(context.Background(), "gate"))
	last := device.requests[len(device.requests)-1]
	assert.Contains(t, last, "<tptz:PresetToken>P2</tptz:PresetToken>")
}

func TestSetPresetExistingNameIsNoOp(t *testing.T) {
	device, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetPreset(context.Background(), "lobby"))
	assert.Zero(t, device.count("tptz:SetPreset"))

	require.NoError(t, c.SetPreset(context.Background(), "roof"))
	assert.Equal(t, 1, device.count("tptz:SetPreset"))
}

func TestRemovePresetUnknownName(t *testing.T) {
	_, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	err = c.RemovePreset(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no preset named "missing"`)
}

func TestPresets(t *testing.T) {
	_, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	presets, err := c.Presets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ptz.PresetInfo{
		{Token: "P1", Name: "lobby"},
		{Token: "P2", Name: "gate"},
	}, presets)
}

func TestDeviceInformation(t *testing.T) {
	_, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	info, err := c.DeviceInformation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DeviceInformation{
		Manufacturer:    "Acme",
		Model:           "PT-1000",
		FirmwareVersion: "2.4.1",
		SerialNumber:    "ABC123",
		HardwareID:      "HW-7",
	}, info)
}

func TestSoapFaultSurfaced(t *testing.T) {
	_, cfg := startFakeDevice(t)

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	// Replace the transport with one that always faults.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Body><s:Fault><s:Reason><s:Text>No such profile</s:Text></s:Reason></s:Fault></s:Body></s:Envelope>`)
	}))
	defer srv.Close()
	c.endpoints["ptz"] = srv.URL

	_, err = c.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "No such profile")
}

package onvif

import "encoding/xml"

// ReferenceToken identifies a profile or preset on the device.
type ReferenceToken string

// Vector2D is an x/y pair carried as attributes, used for pan/tilt.
type Vector2D struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

// Vector1D carries the zoom axis.
type Vector1D struct {
	X float64 `xml:"x,attr"`
}

// PTZVector is an absolute or relative pan/tilt/zoom position.
type PTZVector struct {
	PanTilt Vector2D `xml:"onvif:PanTilt"`
	Zoom    Vector1D `xml:"onvif:Zoom"`
}

// PTZSpeed is a pan/tilt/zoom velocity.
type PTZSpeed struct {
	PanTilt Vector2D `xml:"onvif:PanTilt"`
	Zoom    Vector1D `xml:"onvif:Zoom"`
}

// --- Request bodies ---
//
// Element names carry the prefixes declared on the envelope root
// (tds: device, trt: media, tptz: ptz).

type getCapabilities struct {
	XMLName  string `xml:"tds:GetCapabilities"`
	Category string `xml:"tds:Category"`
}

type getDeviceInformation struct {
	XMLName string `xml:"tds:GetDeviceInformation"`
}

type getProfiles struct {
	XMLName string `xml:"trt:GetProfiles"`
}

type getStatus struct {
	XMLName      string         `xml:"tptz:GetStatus"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
}

type continuousMove struct {
	XMLName      string         `xml:"tptz:ContinuousMove"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
	Velocity     PTZSpeed       `xml:"tptz:Velocity"`
}

type absoluteMove struct {
	XMLName      string         `xml:"tptz:AbsoluteMove"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
	Position     PTZVector      `xml:"tptz:Position"`
	Speed        *PTZSpeed      `xml:"tptz:Speed,omitempty"`
}

type relativeMove struct {
	XMLName      string         `xml:"tptz:RelativeMove"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
	Translation  PTZVector      `xml:"tptz:Translation"`
	Speed        *PTZSpeed      `xml:"tptz:Speed,omitempty"`
}

type stop struct {
	XMLName      string         `xml:"tptz:Stop"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
	PanTilt      bool           `xml:"tptz:PanTilt"`
	Zoom         bool           `xml:"tptz:Zoom"`
}

type gotoPreset struct {
	XMLName      string         `xml:"tptz:GotoPreset"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
	PresetToken  ReferenceToken `xml:"tptz:PresetToken"`
}

type setPreset struct {
	XMLName      string         `xml:"tptz:SetPreset"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
	PresetName   string         `xml:"tptz:PresetName"`
}

type removePreset struct {
	XMLName      string         `xml:"tptz:RemovePreset"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
	PresetToken  ReferenceToken `xml:"tptz:PresetToken"`
}

type getPresets struct {
	XMLName      string         `xml:"tptz:GetPresets"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
}

type gotoHomePosition struct {
	XMLName      string         `xml:"tptz:GotoHomePosition"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
}

type setHomePosition struct {
	XMLName      string         `xml:"tptz:SetHomePosition"`
	ProfileToken ReferenceToken `xml:"tptz:ProfileToken"`
}

// --- Response envelopes ---
//
// Decoding matches on local names, so the device-side tt:/tptz: prefixes do
// not appear here.

type ptzStatus struct {
	Position struct {
		PanTilt Vector2D `xml:"PanTilt"`
		Zoom    Vector1D `xml:"Zoom"`
	} `xml:"Position"`
}

type getStatusEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetStatusResponse struct {
			PTZStatus ptzStatus `xml:"PTZStatus"`
		} `xml:"GetStatusResponse"`
	} `xml:"Body"`
}

type profile struct {
	Token ReferenceToken `xml:"token,attr"`
	Name  string         `xml:"Name"`
}

type getProfilesEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetProfilesResponse struct {
			Profiles []profile `xml:"Profiles"`
		} `xml:"GetProfilesResponse"`
	} `xml:"Body"`
}

type preset struct {
	Token ReferenceToken `xml:"token,attr"`
	Name  string         `xml:"Name"`
}

type getPresetsEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetPresetsResponse struct {
			Presets []preset `xml:"Preset"`
		} `xml:"GetPresetsResponse"`
	} `xml:"Body"`
}

// DeviceInformation describes the camera hardware and firmware.
type DeviceInformation struct {
	Manufacturer    string `xml:"Manufacturer"`
	Model           string `xml:"Model"`
	FirmwareVersion string `xml:"FirmwareVersion"`
	SerialNumber    string `xml:"SerialNumber"`
	HardwareID      string `xml:"HardwareId"`
}

type getDeviceInformationEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		GetDeviceInformationResponse DeviceInformation `xml:"GetDeviceInformationResponse"`
	} `xml:"Body"`
}

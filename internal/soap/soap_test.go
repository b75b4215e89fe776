package soap

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequest struct {
	XMLName string `xml:"tptz:GetStatus"`
	Token   string `xml:"tptz:ProfileToken"`
}

func TestEnvelopeStructure(t *testing.T) {
	env := NewEnvelope()
	env.AddNamespace("tptz", "http://www.onvif.org/ver20/ptz/wsdl")
	require.NoError(t, env.AddBodyContent(fakeRequest{Token: "Profile_1"}))

	out := env.String()
	assert.Contains(t, out, "soap-env:Envelope")
	assert.Contains(t, out, "soap-env:Header")
	assert.Contains(t, out, "soap-env:Body")
	assert.Contains(t, out, `xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl"`)
	assert.Contains(t, out, "<tptz:GetStatus>")
	assert.Contains(t, out, "<tptz:ProfileToken>Profile_1</tptz:ProfileToken>")

	// The body element must sit inside the Body, not next to it.
	bodyIdx := strings.Index(out, "<soap-env:Body>")
	reqIdx := strings.Index(out, "<tptz:GetStatus>")
	closeIdx := strings.Index(out, "</soap-env:Body>")
	assert.True(t, bodyIdx < reqIdx && reqIdx < closeIdx)
}

func TestAddWSSecurity(t *testing.T) {
	env := NewEnvelope()
	require.NoError(t, env.AddWSSecurity("admin", "secret"))

	out := env.String()
	assert.Contains(t, out, "UsernameToken")
	assert.Contains(t, out, "<Username>admin</Username>")
	assert.Contains(t, out, "PasswordDigest")
	assert.Contains(t, out, "Nonce")
	assert.Contains(t, out, "Created")
	// The cleartext password must never appear in the envelope.
	assert.NotContains(t, out, "secret")

	// The envelope must remain well-formed XML.
	assert.NoError(t, xml.Unmarshal([]byte(out), new(struct{})))
}

func TestPasswordDigest(t *testing.T) {
	// B64ENCODE(SHA1(B64DECODE(nonce) + created + password))
	got := PasswordDigest("MDEyMzQ1Njc4OWFi", "2018-04-10T18:04:25.836Z", "secret")
	assert.Equal(t, "ZABLIRyv1F2OEr1hlnSKc34k8jE=", got)
}

func TestPasswordDigestVaries(t *testing.T) {
	a := PasswordDigest("MDEyMzQ1Njc4OWFi", "2018-04-10T18:04:25.836Z", "secret")
	b := PasswordDigest("MDEyMzQ1Njc4OWFi", "2018-04-10T18:04:25.836Z", "other")
	assert.NotEqual(t, a, b)
}

// Package soap builds the SOAP 1.2 envelopes used to talk to ONVIF devices.
package soap

import (
	//nolint:gosec // SHA-1 is what the WS-Security UsernameToken profile specifies.
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"time"

	"github.com/beevik/etree"
	"github.com/elgs/gostrgen"
)

// Envelope is a SOAP envelope under construction.
type Envelope struct {
	doc *etree.Document
}

// NewEnvelope returns an empty SOAP 1.2 envelope with Header and Body
// elements in place.
func NewEnvelope() *Envelope {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	env := doc.CreateElement("soap-env:Envelope")
	env.CreateAttr("xmlns:soap-env", "http://www.w3.org/2003/05/soap-envelope")
	env.CreateAttr("xmlns:soap-enc", "http://www.w3.org/2003/05/soap-encoding")
	env.CreateElement("soap-env:Header")
	env.CreateElement("soap-env:Body")
	return &Envelope{doc: doc}
}

// AddNamespace declares an xmlns prefix on the envelope root.
func (e *Envelope) AddNamespace(prefix, uri string) {
	e.doc.Root().CreateAttr("xmlns:"+prefix, uri)
}

// AddBodyContent marshals the request struct and appends it to the Body.
func (e *Envelope) AddBodyContent(method interface{}) error {
	out, err := xml.Marshal(method)
	if err != nil {
		return err
	}
	frag := etree.NewDocument()
	if err := frag.ReadFromBytes(out); err != nil {
		return err
	}
	e.doc.Root().SelectElement("Body").AddChild(frag.Root())
	return nil
}

// AddWSSecurity appends a WS-Security UsernameToken header with a password
// digest for the given credentials.
func (e *Envelope) AddWSSecurity(username, password string) error {
	out, err := xml.Marshal(newSecurity(username, password))
	if err != nil {
		return err
	}
	frag := etree.NewDocument()
	if err := frag.ReadFromBytes(out); err != nil {
		return err
	}
	e.doc.Root().SelectElement("Header").AddChild(frag.Root())
	return nil
}

// String renders the envelope.
func (e *Envelope) String() string {
	s, err := e.doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

const (
	//nolint:gosec
	passwordType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordDigest"
	//nolint:gosec
	encodingType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"
)

type security struct {
	XMLName xml.Name `xml:"http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd Security"`
	Token   usernameToken
}

type usernameToken struct {
	XMLName  xml.Name `xml:"UsernameToken"`
	Username string   `xml:"Username"`
	Password password `xml:"Password"`
	Nonce    nonce    `xml:"Nonce"`
	Created  string   `xml:"http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd Created"`
}

type password struct {
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

type nonce struct {
	Type  string `xml:"EncodingType,attr"`
	Value string `xml:",chardata"`
}

func newSecurity(username, passwd string) security {
	nonceSeq, _ := gostrgen.RandGen(32, gostrgen.Lower|gostrgen.Digit, "", "")
	created := time.Now().UTC().Format(time.RFC3339Nano)
	return security{
		Token: usernameToken{
			Username: username,
			Password: password{
				Type:  passwordType,
				Value: PasswordDigest(nonceSeq, created, passwd),
			},
			Nonce: nonce{
				Type:  encodingType,
				Value: nonceSeq,
			},
			Created: created,
		},
	}
}

// PasswordDigest computes B64ENCODE(SHA1(B64DECODE(nonce) + created + password)).
func PasswordDigest(nonce, created, passwd string) string {
	decoded, _ := base64.StdEncoding.DecodeString(nonce)
	//nolint:gosec
	h := sha1.New()
	h.Write([]byte(string(decoded) + created + passwd))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

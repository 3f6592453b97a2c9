package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// TwiML is a minimal Twilio Markup Language document builder.
// It intentionally avoids any provider SDK dependency; encoding/xml
// handles escaping of the markup specials (& < > " ') in the message.
//
// Only include the verbs the escape call needs.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr"`
	Language string   `xml:"language,attr"`
	Text     string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

// DefaultEscapeMessage is spoken when a call carries no message of its own
// and no override is configured.
const DefaultEscapeMessage = "Hello, this is an urgent call. Please call me back immediately."

const closingMessage = "This call will now end. Goodbye."

// RenderEscapeMessage builds the "say this, pause, say goodbye" document the
// provider renders as speech.
func RenderEscapeMessage(message string) (string, error) {
	if message == "" {
		return "", errors.New("telephony: message required")
	}

	r := twimlResponse{Verbs: []any{
		twimlSay{Voice: "alice", Language: "en-US", Text: message},
		twimlPause{Length: 1},
		twimlSay{Voice: "alice", Language: "en-US", Text: closingMessage},
	}}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

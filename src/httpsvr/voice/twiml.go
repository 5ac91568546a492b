package voice

import (
	"encoding/xml"
)

type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Say     *twimlSay     `xml:"Say,omitempty"`
	Connect *twimlConnect `xml:"Connect,omitempty"`
	Enqueue *twimlEnqueue `xml:"Enqueue,omitempty"`
}

type twimlSay struct {
	Text string `xml:",chardata"`
}

type twimlConnect struct {
	Action string         `xml:"action,attr,omitempty"`
	Relay  twimlConvRelay `xml:"ConversationRelay"`
}

type twimlConvRelay struct {
	URL             string `xml:"url,attr"`
	Voice           string `xml:"voice,attr,omitempty"`
	WelcomeGreeting string `xml:"welcomeGreeting,attr,omitempty"`
}

type twimlEnqueue struct {
	WorkflowSid string    `xml:"workflowSid,attr,omitempty"`
	Task        twimlTask `xml:"Task"`
}

type twimlTask struct {
	Attributes string `xml:",chardata"`
}

func (r twimlResponse) render() (string, error) {
	body, err := xml.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(body), nil
}

// Package relay sends one email on behalf of an authenticated caller. It
// validates the request, derives the sender, renders the HTML part, makes a
// single provider call and records a best-effort activity entry.
package relay

import (
	"encoding/json"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
)

// Request is the inbound send request.
type Request struct {
	To      string   `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	From    string   `json:"from,omitempty"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	ReplyTo string   `json:"replyTo,omitempty"`

	// EntityType and EntityID link the activity entry to an application
	// record. Both must be set to take effect.
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
}

// Result is the uniform response body for every send outcome.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// Succeeded builds the result for an accepted message. raw is the provider
// response and is omitted when empty.
func Succeeded(messageID string, raw json.RawMessage) *Result {
	res := &Result{Success: true, MessageID: messageID}
	if len(raw) > 0 {
		res.Details = raw
	}
	return res
}

// publicDetails are the detail keys a caller may see. Everything else stays
// in the logs.
var publicDetails = []string{"missing"}

// Failed converts err into the failure result and the status to send it with.
// A raw provider response, when attached, becomes the details payload.
func Failed(err error) (int, *Result) {
	e := errx.From(err)
	res := &Result{Success: false, Error: e.Message}

	if raw, ok := e.Detail(errx.DetailProviderResponse); ok {
		res.Details = raw
	} else {
		shown := make(map[string]any)
		for _, key := range publicDetails {
			if v, ok := e.Detail(key); ok {
				shown[key] = v
			}
		}
		if len(shown) > 0 {
			res.Details = shown
		}
	}

	status := e.HTTPStatus
	if status == 0 {
		status = 500
	}
	return status, res
}

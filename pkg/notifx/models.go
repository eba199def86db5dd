package notifx

import "encoding/json"

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	CC       []string `json:"cc,omitempty"`
	BCC      []string `json:"bcc,omitempty"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text,omitempty"`
	HTMLBody string   `json:"html,omitempty"`
}

// Receipt is what a provider hands back for an accepted message.
type Receipt struct {
	// MessageID is assigned by the provider, never generated locally.
	MessageID string `json:"message_id"`

	// Provider names the provider that accepted the message.
	Provider string `json:"provider"`

	// Raw is the provider response body, passed through to callers as diagnostics.
	Raw json.RawMessage `json:"raw,omitempty"`
}

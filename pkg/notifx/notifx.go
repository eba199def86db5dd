package notifx

import (
	"context"
	"strings"
)

// EmailSender delivers a single email and returns the provider receipt.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) (*Receipt, error)
}

// Client is the main entry point for sending notifications.
type Client struct {
	provider EmailSender
}

// NewClient creates a new notification client.
func NewClient(provider EmailSender) *Client {
	return &Client{provider: provider}
}

// SendEmail checks the message envelope and sends it through the configured provider.
// Exactly one delivery attempt is made.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage) (*Receipt, error) {
	if c.provider == nil {
		return nil, notifxErrors.New(ErrNoProvider)
	}
	if len(msg.To) == 0 {
		return nil, notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty subject")
	}
	if msg.From == "" {
		return nil, notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty sender")
	}
	return c.provider.SendEmail(ctx, msg)
}

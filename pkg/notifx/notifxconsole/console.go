package notifxconsole

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/google/uuid"
)

const ProviderName = "console"

// ConsoleProvider prints emails to the terminal via logx. Intended for development and testing.
type ConsoleProvider struct{}

// NewConsoleProvider creates a new console email provider.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the email details instead of sending it. The console provider
// plays the provider role, so it assigns the message id itself.
func (p *ConsoleProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage) (*notifx.Receipt, error) {
	id := "console-" + uuid.NewString()

	logx.WithContext(ctx).WithFields(logx.Fields{
		"message_id": id,
		"from":       msg.From,
		"to":         strings.Join(msg.To, ", "),
		"cc":         strings.Join(msg.CC, ", "),
		"bcc":        strings.Join(msg.BCC, ", "),
		"subject":    msg.Subject,
	}).Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	raw, _ := json.Marshal(map[string]string{"id": id})
	return &notifx.Receipt{MessageID: id, Provider: ProviderName, Raw: raw}, nil
}
